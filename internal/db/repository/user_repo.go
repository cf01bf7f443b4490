package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/storelink-nz/device-service/internal/models"
)

// UserRepository handles staff user data access for the directory
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, store_id, username, password_hash, name, role, master_pin_hash, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByStoreAndID retrieves a user only within the given store
func (r *UserRepository) GetByStoreAndID(ctx context.Context, storeID, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, store_id, username, password_hash, name, role, master_pin_hash, is_active, created_at, updated_at
		FROM users
		WHERE id = $1 AND store_id = $2
	`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, store_id, username, password_hash, name, role, master_pin_hash, is_active, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// ListByStore retrieves all users in a store
func (r *UserRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT id, store_id, username, password_hash, name, role, master_pin_hash, is_active, created_at, updated_at
		FROM users
		WHERE store_id = $1
		ORDER BY username ASC
	`

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
