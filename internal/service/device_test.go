package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
)

func newDeviceFixture(t *testing.T) (*DeviceService, *CodeService, *memDeviceStore, uuid.UUID, models.Actor) {
	t.Helper()
	devices := newMemDeviceStore()
	codes := NewCodeService(newMemCodeStore())
	storeID := uuid.New()
	return NewDeviceService(devices, codes), codes, devices, storeID, superAdmin(storeID)
}

func registerDevice(t *testing.T, svc *DeviceService, codes *CodeService, storeID uuid.UUID, actor models.Actor) *models.Device {
	t.Helper()
	code, err := codes.Generate(context.Background(), actor, models.CodeRequest{StoreID: storeID})
	if err != nil {
		t.Fatalf("Failed to generate code: %v", err)
	}
	device, err := svc.Register(context.Background(), models.RegisterDeviceRequest{Code: code.Code})
	if err != nil {
		t.Fatalf("Failed to register device: %v", err)
	}
	return device
}

func TestRegisterConsumesCode(t *testing.T) {
	svc, codes, _, storeID, actor := newDeviceFixture(t)

	code, err := codes.Generate(context.Background(), actor, models.CodeRequest{StoreID: storeID})
	if err != nil {
		t.Fatalf("Failed to generate code: %v", err)
	}

	device, err := svc.Register(context.Background(), models.RegisterDeviceRequest{Code: code.Code, Name: "Dock 1"})
	if err != nil {
		t.Fatalf("Failed to register device: %v", err)
	}
	if device.StoreID != storeID {
		t.Errorf("Device bound to wrong store: %s", device.StoreID)
	}
	if device.Name != "Dock 1" {
		t.Errorf("Expected device name Dock 1, got %s", device.Name)
	}
	if !device.IsActive || device.IsLocked || device.AssignedUserID != nil {
		t.Error("New device should be active, unlocked and unassigned")
	}
	if device.Permissions != models.DefaultCapabilitySet() {
		t.Error("New device should carry the default capability set")
	}

	// One-time code is now spent
	_, err = svc.Register(context.Background(), models.RegisterDeviceRequest{Code: code.Code})
	if !errors.Is(err, models.ErrCodeExhausted) {
		t.Fatalf("Second registration should be exhausted, got %v", err)
	}
}

func TestRegisterBadCodeCreatesNothing(t *testing.T) {
	svc, _, devices, _, _ := newDeviceFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterDeviceRequest{Code: "BOGUS"})
	if !errors.Is(err, models.ErrCodeNotFound) {
		t.Fatalf("Expected ErrCodeNotFound, got %v", err)
	}
	if len(devices.devices) != 0 {
		t.Errorf("No device should exist after a failed registration, found %d", len(devices.devices))
	}
}

func TestLockKeepsAssignment(t *testing.T) {
	svc, codes, devices, storeID, actor := newDeviceFixture(t)
	device := registerDevice(t, svc, codes, storeID, actor)

	// Assign directly through the store to isolate lock behavior
	userID := uuid.New()
	device.AssignedUserID = &userID
	if _, err := devices.Update(context.Background(), *device); err != nil {
		t.Fatalf("Failed to seed assignment: %v", err)
	}

	locked, err := svc.Lock(context.Background(), actor, device.ID)
	if err != nil {
		t.Fatalf("Failed to lock device: %v", err)
	}
	if !locked.IsLocked {
		t.Error("Device should be locked")
	}
	if locked.AssignedUserID == nil || *locked.AssignedUserID != userID {
		t.Error("Locking must not clear the assignment")
	}

	unlocked, err := svc.Unlock(context.Background(), actor, device.ID)
	if err != nil {
		t.Fatalf("Failed to unlock device: %v", err)
	}
	if unlocked.IsLocked {
		t.Error("Device should be unlocked")
	}
}

func TestDeactivateHidesFromDefaultListing(t *testing.T) {
	svc, codes, _, storeID, actor := newDeviceFixture(t)
	device := registerDevice(t, svc, codes, storeID, actor)

	if _, err := svc.Deactivate(context.Background(), actor, device.ID); err != nil {
		t.Fatalf("Failed to deactivate device: %v", err)
	}

	visible, err := svc.List(context.Background(), actor, storeID, false)
	if err != nil {
		t.Fatalf("Failed to list devices: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("Inactive device should be excluded from default listing, got %d", len(visible))
	}

	all, err := svc.List(context.Background(), actor, storeID, true)
	if err != nil {
		t.Fatalf("Failed to list all devices: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Inactive device should appear in full listing, got %d", len(all))
	}
}

func TestReactivateUnlocks(t *testing.T) {
	svc, codes, _, storeID, actor := newDeviceFixture(t)
	device := registerDevice(t, svc, codes, storeID, actor)

	if _, err := svc.Lock(context.Background(), actor, device.ID); err != nil {
		t.Fatalf("Failed to lock device: %v", err)
	}
	if _, err := svc.Deactivate(context.Background(), actor, device.ID); err != nil {
		t.Fatalf("Failed to deactivate device: %v", err)
	}

	revived, err := svc.Reactivate(context.Background(), actor, device.ID)
	if err != nil {
		t.Fatalf("Failed to reactivate device: %v", err)
	}
	if !revived.IsActive || revived.IsLocked {
		t.Error("Reactivation should return the device to active and unlocked")
	}
}

func TestUnregisterIsTerminal(t *testing.T) {
	svc, codes, _, storeID, actor := newDeviceFixture(t)
	device := registerDevice(t, svc, codes, storeID, actor)

	if err := svc.Unregister(context.Background(), actor, device.ID); err != nil {
		t.Fatalf("Failed to unregister device: %v", err)
	}

	if _, err := svc.Get(context.Background(), actor, device.ID); !errors.Is(err, models.ErrDeviceNotFound) {
		t.Fatalf("Unregistered device should be gone, got %v", err)
	}

	// Deletion is not undoable and never restores code capacity
	if err := svc.Unregister(context.Background(), actor, device.ID); !errors.Is(err, models.ErrDeviceNotFound) {
		t.Fatalf("Second unregister should be not found, got %v", err)
	}
}

func TestLifecycleRequiresSuperAdmin(t *testing.T) {
	svc, codes, _, storeID, actor := newDeviceFixture(t)
	device := registerDevice(t, svc, codes, storeID, actor)

	manager := managerActor(storeID)
	if _, err := svc.Lock(context.Background(), manager, device.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Lock by manager should be unauthorized, got %v", err)
	}
	if _, err := svc.Deactivate(context.Background(), manager, device.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Deactivate by manager should be unauthorized, got %v", err)
	}
	if err := svc.Unregister(context.Background(), manager, device.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Unregister by manager should be unauthorized, got %v", err)
	}
}
