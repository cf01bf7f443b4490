package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationCode is a store-scoped, limited-use credential that
// authorizes creating one device record per consumption
type RegistrationCode struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	StoreID     uuid.UUID  `db:"store_id" json:"store_id"`
	Code        string     `db:"code" json:"code"`
	MaxUses     int        `db:"max_uses" json:"max_uses"`
	CurrentUses int        `db:"current_uses" json:"current_uses"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"created_by"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the code has passed its expiry timestamp
func (c *RegistrationCode) IsExpired() bool {
	return c.ExpiresAt != nil && !time.Now().Before(*c.ExpiresAt)
}

// IsExhausted reports whether every use has been consumed
func (c *RegistrationCode) IsExhausted() bool {
	return c.CurrentUses >= c.MaxUses
}

// IsUsable reports whether a registration attempt against this code
// could still succeed
func (c *RegistrationCode) IsUsable() bool {
	return c.IsActive && !c.IsExhausted() && !c.IsExpired()
}

// CodeRequest is used for registration code creation
type CodeRequest struct {
	StoreID   uuid.UUID  `json:"store_id" validate:"required"`
	MaxUses   int        `json:"max_uses" validate:"omitempty,min=1"`
	ExpiresAt *time.Time `json:"expires_at"`
	Notes     *string    `json:"notes"`
}
