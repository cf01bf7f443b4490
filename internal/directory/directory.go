package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/db/repository"
	"github.com/storelink-nz/device-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Directory resolves store staff identities and roles and owns master
// PIN verification. It is the only place user credentials are checked
// against storage; the core services only see the outcome.
type Directory struct {
	users *repository.UserRepository
}

// New creates a repository-backed directory
func New(users *repository.UserRepository) *Directory {
	return &Directory{users: users}
}

// GetUser resolves a user by ID
func (d *Directory) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return d.users.GetByID(ctx, userID)
}

// GetUserInStore resolves a user within a store. Users from other
// stores are indistinguishable from missing ones.
func (d *Directory) GetUserInStore(ctx context.Context, storeID, userID uuid.UUID) (*models.User, error) {
	return d.users.GetByStoreAndID(ctx, storeID, userID)
}

// GetUserByUsername resolves a user by login name
func (d *Directory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return d.users.GetByUsername(ctx, username)
}

// ListUsersInStore lists a store's staff
func (d *Directory) ListUsersInStore(ctx context.Context, storeID uuid.UUID) ([]models.User, error) {
	return d.users.ListByStore(ctx, storeID)
}

// VerifyMasterPIN checks the user-level fallback PIN. A user without a
// master PIN set simply cannot authenticate this way.
func (d *Directory) VerifyMasterPIN(ctx context.Context, userID uuid.UUID, pin string) error {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.MasterPINHash == nil {
		return models.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.MasterPINHash), []byte(pin)); err != nil {
		return models.ErrUnauthorized
	}

	return nil
}
