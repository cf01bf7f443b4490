package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
)

// defaultDeviceName is used when a handheld registers without a name
const defaultDeviceName = "Handheld"

// DeviceService owns device records and their lifecycle
type DeviceService struct {
	devices DeviceStore
	codes   *CodeService
}

// NewDeviceService creates a new device registry service
func NewDeviceService(devices DeviceStore, codes *CodeService) *DeviceService {
	return &DeviceService{
		devices: devices,
		codes:   codes,
	}
}

// Register consumes a registration code and creates a device bound to
// the code's store. Any code refusal propagates unchanged and no
// device is created.
func (s *DeviceService) Register(ctx context.Context, req models.RegisterDeviceRequest) (*models.Device, error) {
	code, err := s.codes.Consume(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = defaultDeviceName
	}

	device := models.Device{
		StoreID:     code.StoreID,
		Name:        name,
		IsActive:    true,
		IsLocked:    false,
		Permissions: models.DefaultCapabilitySet(),
	}

	created, err := s.devices.Create(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	return created, nil
}

// Get retrieves a device by ID
func (s *DeviceService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Device, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.ErrUnauthorized
	}
	return s.devices.GetByID(ctx, id)
}

// List retrieves a store's devices. Inactive devices are excluded
// unless asked for.
func (s *DeviceService) List(ctx context.Context, actor models.Actor, storeID uuid.UUID, includeInactive bool) ([]models.Device, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.ErrUnauthorized
	}
	return s.devices.List(ctx, storeID, includeInactive)
}

// Rename changes the display name of a device
func (s *DeviceService) Rename(ctx context.Context, actor models.Actor, id uuid.UUID, name string) (*models.Device, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	device.Name = name
	return s.devices.Update(ctx, *device)
}

// Lock blocks all authentication and authorization on the device.
// The assignment is kept.
func (s *DeviceService) Lock(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Device, error) {
	return s.setLocked(ctx, actor, id, true)
}

// Unlock lifts a lock
func (s *DeviceService) Unlock(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Device, error) {
	return s.setLocked(ctx, actor, id, false)
}

func (s *DeviceService) setLocked(ctx context.Context, actor models.Actor, id uuid.UUID, locked bool) (*models.Device, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	device.IsLocked = locked
	return s.devices.Update(ctx, *device)
}

// Deactivate hides the device from default listings without deleting it
func (s *DeviceService) Deactivate(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Device, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	device.IsActive = false
	return s.devices.Update(ctx, *device)
}

// Reactivate returns an inactive device to the active, unlocked state
func (s *DeviceService) Reactivate(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Device, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	device.IsActive = true
	device.IsLocked = false
	return s.devices.Update(ctx, *device)
}

// Unregister hard-deletes the device record, assignment included.
// The originating registration code keeps its consumed use; a new
// registration needs a fresh code.
func (s *DeviceService) Unregister(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleSuperAdmin {
		return models.ErrUnauthorized
	}
	return s.devices.Delete(ctx, id)
}
