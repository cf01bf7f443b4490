package models

import (
	"time"

	"github.com/google/uuid"
)

// Device represents one physical handheld unit bound to a store.
// A device belongs to exactly one store for its lifetime.
type Device struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	StoreID        uuid.UUID     `db:"store_id" json:"store_id"`
	Name           string        `db:"name" json:"name"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	IsLocked       bool          `db:"is_locked" json:"is_locked"`
	AssignedUserID *uuid.UUID    `db:"assigned_user_id" json:"assigned_user_id,omitempty"`
	PINHash        *string       `db:"pin_hash" json:"-"` // Never expose in JSON
	Permissions    CapabilitySet `db:"permissions" json:"permissions"`
	Version        int64         `db:"version" json:"-"`
	RegisteredAt   time.Time     `db:"registered_at" json:"registered_at"`
	LastSeenAt     *time.Time    `db:"last_seen_at" json:"last_seen_at,omitempty"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// RegisterDeviceRequest is the body a handheld sends to register itself
type RegisterDeviceRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"omitempty,max=100"`
}

// AssignRequest binds a user, permission set and PIN to a device
type AssignRequest struct {
	UserID       uuid.UUID     `json:"user_id" validate:"required"`
	Capabilities CapabilitySet `json:"capabilities"`
	PIN          *string       `json:"pin"`
}
