package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func newAssignmentFixture(t *testing.T) (*AssignmentService, *memDeviceStore, *memDirectory, *models.Device, uuid.UUID) {
	t.Helper()
	devices := newMemDeviceStore()
	dir := newMemDirectory()
	storeID := uuid.New()

	device, err := devices.Create(context.Background(), models.Device{
		StoreID:     storeID,
		Name:        "Handheld",
		IsActive:    true,
		Permissions: models.DefaultCapabilitySet(),
	})
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	return NewAssignmentService(devices, dir), devices, dir, device, storeID
}

func TestAssignEmployeePinRules(t *testing.T) {
	svc, _, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	employee := testUser(storeID, models.RoleEmployee)
	dir.users[employee.ID] = employee

	req := models.AssignRequest{UserID: employee.ID, Capabilities: models.DefaultCapabilitySet()}

	// No PIN: employees always need one
	if _, err := svc.Assign(context.Background(), actor, device.ID, req); !errors.Is(err, models.ErrPinRequiredForRole) {
		t.Fatalf("Expected ErrPinRequiredForRole, got %v", err)
	}

	// Too short
	req.PIN = strPtr("12")
	if _, err := svc.Assign(context.Background(), actor, device.ID, req); !errors.Is(err, models.ErrPinFormatInvalid) {
		t.Fatalf("Expected ErrPinFormatInvalid for short pin, got %v", err)
	}

	// Non-digits
	req.PIN = strPtr("12ab56")
	if _, err := svc.Assign(context.Background(), actor, device.ID, req); !errors.Is(err, models.ErrPinFormatInvalid) {
		t.Fatalf("Expected ErrPinFormatInvalid for non-digit pin, got %v", err)
	}

	// Valid
	req.PIN = strPtr("1234")
	assigned, err := svc.Assign(context.Background(), actor, device.ID, req)
	if err != nil {
		t.Fatalf("Failed to assign with valid pin: %v", err)
	}
	if assigned.AssignedUserID == nil || *assigned.AssignedUserID != employee.ID {
		t.Error("Device should be assigned to the employee")
	}
	if assigned.PINHash == nil {
		t.Fatal("Device pin hash should be set")
	}
	if *assigned.PINHash == "1234" {
		t.Error("Pin must never be stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*assigned.PINHash), []byte("1234")); err != nil {
		t.Error("Stored hash should verify against the pin")
	}
}

func TestAssignAdminWithoutPinUsesMasterFallback(t *testing.T) {
	svc, _, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	admin := testUser(storeID, models.RoleAdmin)
	dir.users[admin.ID] = admin

	assigned, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID:       admin.ID,
		Capabilities: models.DefaultCapabilitySet(),
	})
	if err != nil {
		t.Fatalf("Admin assignment without pin should succeed: %v", err)
	}
	if assigned.PINHash != nil {
		t.Error("No device pin hash should be stored when falling back to the master pin")
	}
}

func TestAssignStoresRawCapabilities(t *testing.T) {
	svc, _, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	employee := testUser(storeID, models.RoleEmployee)
	dir.users[employee.ID] = employee

	// Advanced flag stored as requested; clamping happens at evaluation
	caps := models.DefaultCapabilitySet()
	caps.CanEditProducts = true

	assigned, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID:       employee.ID,
		Capabilities: caps,
		PIN:          strPtr("123456"),
	})
	if err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}

	if !assigned.Permissions.CanEditProducts {
		t.Error("Stored permissions should keep the raw flag for audit and editing")
	}
	if assigned.Permissions.EffectiveFor(models.RoleEmployee).CanEditProducts {
		t.Error("Effective permissions must clamp advanced flags for employees")
	}
	if !assigned.Permissions.EffectiveFor(models.RoleManager).CanEditProducts {
		t.Error("The same stored set should grant the flag to a manager")
	}
}

func TestAssignRejectsCrossStoreUser(t *testing.T) {
	svc, _, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	outsider := testUser(uuid.New(), models.RoleManager)
	dir.users[outsider.ID] = outsider

	_, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{UserID: outsider.ID})
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("Cross-store user should fail resolution, got %v", err)
	}
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	svc, _, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	employee := testUser(storeID, models.RoleEmployee)
	dir.users[employee.ID] = employee

	caps := models.AllCapabilitySet()
	if _, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID:       employee.ID,
		Capabilities: caps,
		PIN:          strPtr("4321"),
	}); err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}

	cleared, err := svc.Unassign(context.Background(), actor, device.ID)
	if err != nil {
		t.Fatalf("Failed to unassign: %v", err)
	}
	if cleared.AssignedUserID != nil {
		t.Error("Unassign should clear the user")
	}
	if cleared.PINHash != nil {
		t.Error("Unassign should clear the pin hash")
	}
	if cleared.Permissions != models.DefaultCapabilitySet() {
		t.Error("Unassign should reset permissions to the default set")
	}
}

func TestAssignReplacesAtomically(t *testing.T) {
	svc, devices, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	first := testUser(storeID, models.RoleEmployee)
	second := testUser(storeID, models.RoleManager)
	dir.users[first.ID] = first
	dir.users[second.ID] = second

	if _, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID: first.ID,
		PIN:    strPtr("1111"),
	}); err != nil {
		t.Fatalf("Failed first assignment: %v", err)
	}

	replaced, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID:       second.ID,
		Capabilities: models.AllCapabilitySet(),
		PIN:          strPtr("2222"),
	})
	if err != nil {
		t.Fatalf("Failed re-assignment: %v", err)
	}

	if *replaced.AssignedUserID != second.ID {
		t.Error("Re-assignment should replace the user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*replaced.PINHash), []byte("2222")); err != nil {
		t.Error("Re-assignment should replace the pin")
	}

	stored, err := devices.GetByID(context.Background(), device.ID)
	if err != nil {
		t.Fatalf("Failed to re-read device: %v", err)
	}
	if *stored.AssignedUserID != second.ID {
		t.Error("Store should hold the replacement assignment")
	}
}

func TestAssignConflictOnStaleVersion(t *testing.T) {
	svc, devices, dir, device, storeID := newAssignmentFixture(t)
	actor := managerActor(storeID)

	employee := testUser(storeID, models.RoleEmployee)
	dir.users[employee.ID] = employee

	// Simulate a concurrent edit landing between read and write
	stale := *device
	device.Name = "Renamed meanwhile"
	if _, err := devices.Update(context.Background(), *device); err != nil {
		t.Fatalf("Failed concurrent update: %v", err)
	}

	_, err := devices.Update(context.Background(), stale)
	if !errors.Is(err, models.ErrAssignmentConflict) {
		t.Fatalf("Stale write should conflict, got %v", err)
	}

	// A fresh read-modify-write goes through
	if _, err := svc.Assign(context.Background(), actor, device.ID, models.AssignRequest{
		UserID: employee.ID,
		PIN:    strPtr("9999"),
	}); err != nil {
		t.Fatalf("Assignment after refresh should succeed: %v", err)
	}
}
