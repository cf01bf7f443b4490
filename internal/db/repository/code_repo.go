package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/storelink-nz/device-service/internal/models"
)

// CodeRepository handles registration code data access
type CodeRepository struct {
	db *sqlx.DB
}

// NewCodeRepository creates a new registration code repository
func NewCodeRepository(db *sqlx.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// Create creates a new registration code
func (r *CodeRepository) Create(ctx context.Context, code models.RegistrationCode) (*models.RegistrationCode, error) {
	query := `
		INSERT INTO registration_codes (store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes)
		VALUES ($1, $2, $3, 0, $4, $5, $6, $7)
		RETURNING id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
	`

	var created models.RegistrationCode
	err := r.db.GetContext(
		ctx,
		&created,
		query,
		code.StoreID,
		code.Code,
		code.MaxUses,
		code.ExpiresAt,
		code.IsActive,
		code.CreatedBy,
		code.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to create registration code: %w", err)
	}

	return &created, nil
}

// isUniqueViolation reports whether the error is a postgres
// unique-constraint violation, used by the token collision retry
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByID retrieves a registration code by ID
func (r *CodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationCode, error) {
	query := `
		SELECT id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
		FROM registration_codes
		WHERE id = $1
	`

	var code models.RegistrationCode
	err := r.db.GetContext(ctx, &code, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get registration code: %w", err)
	}

	return &code, nil
}

// ListByStore retrieves all registration codes issued for a store
func (r *CodeRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.RegistrationCode, error) {
	query := `
		SELECT id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
		FROM registration_codes
		WHERE store_id = $1
		ORDER BY created_at DESC
	`

	var codes []models.RegistrationCode
	err := r.db.SelectContext(ctx, &codes, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registration codes: %w", err)
	}

	return codes, nil
}

// TryConsume spends one use of the code in a single conditional update
// so that concurrent registrations can never push current_uses past
// max_uses. When the update matches no row the current row is fetched
// so the caller can classify the refusal.
func (r *CodeRepository) TryConsume(ctx context.Context, code string) (*models.RegistrationCode, bool, error) {
	query := `
		UPDATE registration_codes
		SET current_uses = current_uses + 1, updated_at = now()
		WHERE code = $1
		  AND is_active = true
		  AND current_uses < max_uses
		  AND (expires_at IS NULL OR expires_at > now())
		RETURNING id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
	`

	var consumed models.RegistrationCode
	err := r.db.GetContext(ctx, &consumed, query, code)
	if err == nil {
		return &consumed, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to consume registration code: %w", err)
	}

	// Refused: fetch the row as-is for classification
	getQuery := `
		SELECT id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
		FROM registration_codes
		WHERE code = $1
	`

	var current models.RegistrationCode
	err = r.db.GetContext(ctx, &current, getQuery, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, models.ErrCodeNotFound
		}
		return nil, false, fmt.Errorf("failed to get registration code: %w", err)
	}

	return &current, false, nil
}

// SetActive toggles a code between active and retired
func (r *CodeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RegistrationCode, error) {
	query := `
		UPDATE registration_codes
		SET is_active = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, store_id, code, max_uses, current_uses, expires_at, is_active, created_by, notes, created_at, updated_at
	`

	var updated models.RegistrationCode
	err := r.db.GetContext(ctx, &updated, query, active, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to update registration code: %w", err)
	}

	return &updated, nil
}

// DeleteUnused deletes a code only while it has never been consumed
func (r *CodeRepository) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM registration_codes
		WHERE id = $1 AND current_uses = 0
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the code never existed or it has consumed uses
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrDeletionBlocked
	}

	return nil
}
