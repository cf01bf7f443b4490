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

// DeviceRepository handles device data access
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create creates a new device record
func (r *DeviceRepository) Create(ctx context.Context, device models.Device) (*models.Device, error) {
	query := `
		INSERT INTO devices (store_id, name, is_active, is_locked, assigned_user_id, pin_hash, permissions, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING id, store_id, name, is_active, is_locked, assigned_user_id, pin_hash, permissions, version, registered_at, last_seen_at, updated_at
	`

	var created models.Device
	err := r.db.GetContext(
		ctx,
		&created,
		query,
		device.StoreID,
		device.Name,
		device.IsActive,
		device.IsLocked,
		device.AssignedUserID,
		device.PINHash,
		device.Permissions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	query := `
		SELECT id, store_id, name, is_active, is_locked, assigned_user_id, pin_hash, permissions, version, registered_at, last_seen_at, updated_at
		FROM devices
		WHERE id = $1
	`

	var device models.Device
	err := r.db.GetContext(ctx, &device, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &device, nil
}

// List retrieves a store's devices, newest first. Inactive devices are
// excluded unless includeInactive is set.
func (r *DeviceRepository) List(ctx context.Context, storeID uuid.UUID, includeInactive bool) ([]models.Device, error) {
	query := `
		SELECT id, store_id, name, is_active, is_locked, assigned_user_id, pin_hash, permissions, version, registered_at, last_seen_at, updated_at
		FROM devices
		WHERE store_id = $1 AND (is_active = true OR $2)
		ORDER BY registered_at DESC
	`

	var devices []models.Device
	err := r.db.SelectContext(ctx, &devices, query, storeID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return devices, nil
}

// Update applies the record with an optimistic version check so that
// two admins editing the same device cannot silently overwrite each
// other. A stale version surfaces as models.ErrAssignmentConflict.
func (r *DeviceRepository) Update(ctx context.Context, device models.Device) (*models.Device, error) {
	query := `
		UPDATE devices
		SET name = $1, is_active = $2, is_locked = $3, assigned_user_id = $4, pin_hash = $5, permissions = $6,
		    version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
		RETURNING id, store_id, name, is_active, is_locked, assigned_user_id, pin_hash, permissions, version, registered_at, last_seen_at, updated_at
	`

	var updated models.Device
	err := r.db.GetContext(
		ctx,
		&updated,
		query,
		device.Name,
		device.IsActive,
		device.IsLocked,
		device.AssignedUserID,
		device.PINHash,
		device.Permissions,
		device.ID,
		device.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a deleted device from a lost race
			if _, getErr := r.GetByID(ctx, device.ID); getErr != nil {
				return nil, getErr
			}
			return nil, models.ErrAssignmentConflict
		}
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	return &updated, nil
}

// Delete hard-deletes a device record
func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM devices WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrDeviceNotFound
	}

	return nil
}

// TouchLastSeen records an authenticated use. Deliberately bypasses the
// version check: activity timestamps must not conflict with admin edits.
func (r *DeviceRepository) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE devices
		SET last_seen_at = now()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update device activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrDeviceNotFound
	}

	return nil
}
