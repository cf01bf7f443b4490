package repository

import (
	"github.com/jmoiron/sqlx"
)

// Factory provides access to all repositories
type Factory struct {
	Code   *CodeRepository
	Device *DeviceRepository
	User   *UserRepository
}

// NewFactory creates a new repository factory
func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{
		Code:   NewCodeRepository(db),
		Device: NewDeviceRepository(db),
		User:   NewUserRepository(db),
	}
}
