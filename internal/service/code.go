package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
)

// codeTokenBytes sizes the random token; 10 bytes gives a 16-character
// base32 code that fits on a printed slip
const codeTokenBytes = 10

// CodeService issues and consumes device registration codes
type CodeService struct {
	codes CodeStore
}

// NewCodeService creates a new registration code service
func NewCodeService(codes CodeStore) *CodeService {
	return &CodeService{codes: codes}
}

// Generate creates a new registration code for a store. Only a
// super admin may issue codes.
func (s *CodeService) Generate(ctx context.Context, actor models.Actor, req models.CodeRequest) (*models.RegistrationCode, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}

	maxUses := req.MaxUses
	if maxUses <= 0 {
		maxUses = 1
	}

	code := models.RegistrationCode{
		StoreID:   req.StoreID,
		MaxUses:   maxUses,
		ExpiresAt: req.ExpiresAt,
		IsActive:  true,
		CreatedBy: actor.UserID,
		Notes:     req.Notes,
	}

	// Regenerate on the rare token collision
	const maxAttempts = 3
	for i := 0; i < maxAttempts; i++ {
		token, err := generateCodeToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code token: %w", err)
		}
		code.Code = token

		created, err := s.codes.Create(ctx, code)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, models.ErrDuplicateCode) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to create registration code: %w", models.ErrDuplicateCode)
}

// Consume atomically spends one use of the code. Refusals are
// classified into distinct errors so the device client can tell a dead
// code from a retired one. The classification read runs after the
// conditional update, so a reactivation landing between the two can
// make a refused code read as usable again; those attempts are retried
// rather than mislabeled.
func (s *CodeService) Consume(ctx context.Context, code string) (*models.RegistrationCode, error) {
	const maxAttempts = 3
	for i := 0; i < maxAttempts; i++ {
		row, consumed, err := s.codes.TryConsume(ctx, code)
		if err != nil {
			return nil, err
		}
		if consumed {
			return row, nil
		}

		switch {
		case !row.IsActive:
			return nil, models.ErrCodeInactive
		case row.IsExpired():
			return nil, models.ErrCodeExpired
		case row.IsExhausted():
			return nil, models.ErrCodeExhausted
		}
		// Refused, yet the row reads usable: retry the consume
	}

	return nil, models.ErrCodeExhausted
}

// Get retrieves a single code by ID
func (s *CodeService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.RegistrationCode, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}
	return s.codes.GetByID(ctx, id)
}

// List retrieves all codes issued for a store
func (s *CodeService) List(ctx context.Context, actor models.Actor, storeID uuid.UUID) ([]models.RegistrationCode, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}
	return s.codes.ListByStore(ctx, storeID)
}

// Deactivate retires a code without deleting its usage history
func (s *CodeService) Deactivate(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.RegistrationCode, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}
	return s.codes.SetActive(ctx, id, false)
}

// Reactivate re-enables a retired code. An exhausted code stays dead.
func (s *CodeService) Reactivate(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.RegistrationCode, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}

	code, err := s.codes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if code.IsExhausted() {
		return nil, models.ErrCodeExhausted
	}

	return s.codes.SetActive(ctx, id, true)
}

// Delete removes a code that has never been consumed
func (s *CodeService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleSuperAdmin {
		return models.ErrUnauthorized
	}
	return s.codes.DeleteUnused(ctx, id)
}

// generateCodeToken mints an opaque random token from crypto/rand
func generateCodeToken() (string, error) {
	buf := make([]byte, codeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
