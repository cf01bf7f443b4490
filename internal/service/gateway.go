package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret    string
	ExpiresIn int // hours
}

// DeviceClaims represents a device session's JWT claims
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
	StoreID  string `json:"store_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GatewayService is the single entry point for handheld clients:
// it authenticates a device+PIN pair and authorizes capabilities
type GatewayService struct {
	devices   DeviceStore
	directory Directory
	jwtConfig JWTConfig
}

// NewGatewayService creates a new access control gateway
func NewGatewayService(devices DeviceStore, directory Directory, jwtConfig JWTConfig) *GatewayService {
	return &GatewayService{
		devices:   devices,
		directory: directory,
		jwtConfig: jwtConfig,
	}
}

// Authenticate verifies a device PIN and returns a session token.
// Admin and manager devices with no device PIN fall back to the user's
// master PIN, verified by the directory. last_seen_at is updated on
// success only.
func (s *GatewayService) Authenticate(ctx context.Context, deviceID uuid.UUID, pin string) (string, *models.Device, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return "", nil, err
	}

	if !device.IsActive {
		return "", nil, models.ErrDeviceInactive
	}
	if device.IsLocked {
		return "", nil, models.ErrDeviceLocked
	}
	if device.AssignedUserID == nil {
		return "", nil, models.ErrUnauthorized
	}

	user, err := s.directory.GetUser(ctx, *device.AssignedUserID)
	if err != nil {
		return "", nil, models.ErrUnauthorized
	}
	if !user.IsActive {
		return "", nil, models.ErrUnauthorized
	}

	if device.PINHash != nil {
		// bcrypt comparison is constant-time over the hash
		if err := bcrypt.CompareHashAndPassword([]byte(*device.PINHash), []byte(pin)); err != nil {
			return "", nil, models.ErrUnauthorized
		}
	} else if user.Role.IsPrivileged() {
		if err := s.directory.VerifyMasterPIN(ctx, user.ID, pin); err != nil {
			return "", nil, models.ErrUnauthorized
		}
	} else {
		return "", nil, models.ErrUnauthorized
	}

	if err := s.devices.TouchLastSeen(ctx, device.ID); err != nil {
		return "", nil, fmt.Errorf("failed to record device activity: %w", err)
	}

	token, err := s.generateToken(device, user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, device, nil
}

// Authorize checks whether the session may perform the capability.
// The device record is re-read and the role clamp re-applied on every
// call so permission edits take effect immediately.
func (s *GatewayService) Authorize(ctx context.Context, claims *DeviceClaims, capability models.Capability) (bool, error) {
	deviceID, err := uuid.Parse(claims.DeviceID)
	if err != nil {
		return false, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return false, err
	}

	if !device.IsActive {
		return false, models.ErrDeviceInactive
	}
	if device.IsLocked {
		return false, models.ErrDeviceLocked
	}
	// The session dies with the assignment it was minted under
	if device.AssignedUserID == nil || device.AssignedUserID.String() != claims.UserID {
		return false, models.ErrUnauthorized
	}

	effective := device.Permissions.EffectiveFor(models.UserRole(claims.Role))
	return effective.Has(capability), nil
}

// generateToken generates a session JWT for an authenticated device
func (s *GatewayService) generateToken(device *models.Device, user *models.User) (string, error) {
	expirationTime := time.Now().Add(time.Duration(s.jwtConfig.ExpiresIn) * time.Hour)

	claims := &DeviceClaims{
		DeviceID: device.ID.String(),
		UserID:   user.ID.String(),
		StoreID:  device.StoreID.String(),
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a device session token and returns the claims
func (s *GatewayService) ValidateToken(tokenString string) (*DeviceClaims, error) {
	claims := &DeviceClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
