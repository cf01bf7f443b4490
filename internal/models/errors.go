package models

import "errors"

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// Registration code errors
var (
	ErrCodeNotFound    = errors.New("registration code not found")
	ErrCodeExpired     = errors.New("registration code expired")
	ErrCodeExhausted   = errors.New("registration code exhausted")
	ErrCodeInactive    = errors.New("registration code inactive")
	ErrDuplicateCode   = errors.New("registration code token collision")
	ErrDeletionBlocked = errors.New("registration code already used, deletion blocked")
)

// Device and assignment errors
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceLocked       = errors.New("device locked")
	ErrDeviceInactive     = errors.New("device inactive")
	ErrPinFormatInvalid   = errors.New("pin must be 4 to 6 digits")
	ErrPinRequiredForRole = errors.New("pin required for this role")
	ErrAssignmentConflict = errors.New("device modified concurrently, retry")
)
