package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleManager    UserRole = "manager"
	RoleEmployee   UserRole = "employee"
)

// IsPrivileged reports whether the role may fall back to a master PIN
// when its device has no device-specific PIN set
func (r UserRole) IsPrivileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleManager
}

// User is a store staff record as resolved through the directory
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	StoreID       uuid.UUID `db:"store_id" json:"store_id"`
	Username      string    `db:"username" json:"username"`
	PasswordHash  string    `db:"password_hash" json:"-"` // Never expose in JSON
	Name          string    `db:"name" json:"name"`
	Role          UserRole  `db:"role" json:"role"`
	MasterPINHash *string   `db:"master_pin_hash" json:"-"` // Never expose in JSON
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Actor identifies the authenticated staff member performing a request
type Actor struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    UserRole
}
