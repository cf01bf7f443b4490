package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
)

// CodeStore persists registration codes
type CodeStore interface {
	Create(ctx context.Context, code models.RegistrationCode) (*models.RegistrationCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationCode, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.RegistrationCode, error)
	// TryConsume atomically increments current_uses if the code is usable.
	// It returns the code row and whether a use was consumed; the row is
	// returned unchanged when consumption was refused so the caller can
	// classify the refusal. Missing codes return models.ErrCodeNotFound.
	TryConsume(ctx context.Context, code string) (*models.RegistrationCode, bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RegistrationCode, error)
	// DeleteUnused deletes the code only while current_uses is zero.
	// A used code returns models.ErrDeletionBlocked.
	DeleteUnused(ctx context.Context, id uuid.UUID) error
}

// DeviceStore persists device records
type DeviceStore interface {
	Create(ctx context.Context, device models.Device) (*models.Device, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error)
	List(ctx context.Context, storeID uuid.UUID, includeInactive bool) ([]models.Device, error)
	// Update applies the given record with an optimistic version check.
	// A stale version returns models.ErrAssignmentConflict.
	Update(ctx context.Context, device models.Device) (*models.Device, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// TouchLastSeen records an authenticated use without bumping the version
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
}

// Directory is the store/user directory collaborator. It owns user
// identity, role resolution, the store boundary and master PIN
// verification; none of that lives in the core services.
type Directory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// GetUserInStore resolves a user only within the given store;
	// cross-store lookups fail with models.ErrUserNotFound.
	GetUserInStore(ctx context.Context, storeID, userID uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsersInStore lists a store's staff, for assignment pickers
	ListUsersInStore(ctx context.Context, storeID uuid.UUID) ([]models.User, error)
	// VerifyMasterPIN checks the user-level fallback PIN for privileged
	// roles. Returns models.ErrUnauthorized on mismatch or when no
	// master PIN is set.
	VerifyMasterPIN(ctx context.Context, userID uuid.UUID, pin string) error
}
