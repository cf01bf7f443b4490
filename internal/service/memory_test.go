package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// In-memory store implementations so the services can be tested
// without a database. The mutexes mirror the atomicity the SQL
// repositories get from conditional updates.

type memCodeStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.RegistrationCode
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{codes: make(map[uuid.UUID]*models.RegistrationCode)}
}

func (s *memCodeStore) Create(ctx context.Context, code models.RegistrationCode) (*models.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.codes {
		if existing.Code == code.Code {
			return nil, models.ErrDuplicateCode
		}
	}

	code.ID = uuid.New()
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt
	s.codes[code.ID] = &code

	copied := code
	return &copied, nil
}

func (s *memCodeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return nil, models.ErrCodeNotFound
	}
	copied := *code
	return &copied, nil
}

func (s *memCodeStore) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var codes []models.RegistrationCode
	for _, code := range s.codes {
		if code.StoreID == storeID {
			codes = append(codes, *code)
		}
	}
	return codes, nil
}

func (s *memCodeStore) TryConsume(ctx context.Context, token string) (*models.RegistrationCode, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.codes {
		if code.Code != token {
			continue
		}
		if code.IsUsable() {
			code.CurrentUses++
			code.UpdatedAt = time.Now()
			copied := *code
			return &copied, true, nil
		}
		copied := *code
		return &copied, false, nil
	}
	return nil, false, models.ErrCodeNotFound
}

func (s *memCodeStore) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return nil, models.ErrCodeNotFound
	}
	code.IsActive = active
	code.UpdatedAt = time.Now()
	copied := *code
	return &copied, nil
}

func (s *memCodeStore) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return models.ErrCodeNotFound
	}
	if code.CurrentUses > 0 {
		return models.ErrDeletionBlocked
	}
	delete(s.codes, id)
	return nil
}

type memDeviceStore struct {
	mu      sync.Mutex
	devices map[uuid.UUID]*models.Device
}

func newMemDeviceStore() *memDeviceStore {
	return &memDeviceStore{devices: make(map[uuid.UUID]*models.Device)}
}

func (s *memDeviceStore) Create(ctx context.Context, device models.Device) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device.ID = uuid.New()
	device.Version = 1
	device.RegisteredAt = time.Now()
	device.UpdatedAt = device.RegisteredAt
	s.devices[device.ID] = &device

	copied := device
	return &copied, nil
}

func (s *memDeviceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[id]
	if !ok {
		return nil, models.ErrDeviceNotFound
	}
	copied := *device
	return &copied, nil
}

func (s *memDeviceStore) List(ctx context.Context, storeID uuid.UUID, includeInactive bool) ([]models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var devices []models.Device
	for _, device := range s.devices {
		if device.StoreID != storeID {
			continue
		}
		if !device.IsActive && !includeInactive {
			continue
		}
		devices = append(devices, *device)
	}
	return devices, nil
}

func (s *memDeviceStore) Update(ctx context.Context, device models.Device) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.devices[device.ID]
	if !ok {
		return nil, models.ErrDeviceNotFound
	}
	if current.Version != device.Version {
		return nil, models.ErrAssignmentConflict
	}

	device.Version++
	device.UpdatedAt = time.Now()
	device.RegisteredAt = current.RegisteredAt
	device.LastSeenAt = current.LastSeenAt
	s.devices[device.ID] = &device

	copied := device
	return &copied, nil
}

func (s *memDeviceStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return models.ErrDeviceNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *memDeviceStore) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[id]
	if !ok {
		return models.ErrDeviceNotFound
	}
	now := time.Now()
	device.LastSeenAt = &now
	return nil
}

type memDirectory struct {
	users map[uuid.UUID]*models.User
}

func newMemDirectory(users ...*models.User) *memDirectory {
	d := &memDirectory{users: make(map[uuid.UUID]*models.User)}
	for _, user := range users {
		d.users[user.ID] = user
	}
	return d
}

func (d *memDirectory) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := d.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (d *memDirectory) GetUserInStore(ctx context.Context, storeID, userID uuid.UUID) (*models.User, error) {
	user, ok := d.users[userID]
	if !ok || user.StoreID != storeID {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (d *memDirectory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range d.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (d *memDirectory) ListUsersInStore(ctx context.Context, storeID uuid.UUID) ([]models.User, error) {
	var users []models.User
	for _, user := range d.users {
		if user.StoreID == storeID {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (d *memDirectory) VerifyMasterPIN(ctx context.Context, userID uuid.UUID, pin string) error {
	user, ok := d.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	if user.MasterPINHash == nil {
		return models.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.MasterPINHash), []byte(pin)); err != nil {
		return models.ErrUnauthorized
	}
	return nil
}

// Test fixture helpers

func testUser(storeID uuid.UUID, role models.UserRole) *models.User {
	return &models.User{
		ID:       uuid.New(),
		StoreID:  storeID,
		Username: "user-" + uuid.NewString()[:8],
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
}

func withMasterPIN(user *models.User, pin string) *models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	h := string(hashed)
	user.MasterPINHash = &h
	return user
}

func superAdmin(storeID uuid.UUID) models.Actor {
	return models.Actor{UserID: uuid.New(), StoreID: storeID, Role: models.RoleSuperAdmin}
}

func managerActor(storeID uuid.UUID) models.Actor {
	return models.Actor{UserID: uuid.New(), StoreID: storeID, Role: models.RoleManager}
}
