package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// pinPattern is the device PIN policy: 4 to 6 digits, nothing else
var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// AssignmentService binds users to devices with a PIN and a stored
// permission set
type AssignmentService struct {
	devices   DeviceStore
	directory Directory
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(devices DeviceStore, directory Directory) *AssignmentService {
	return &AssignmentService{
		devices:   devices,
		directory: directory,
	}
}

// Assign binds a user to the device, replacing any prior user, PIN and
// permission set in one versioned update. Capabilities are stored as
// given; role clamping happens at evaluation time so the raw intent
// stays visible for editing.
func (s *AssignmentService) Assign(ctx context.Context, actor models.Actor, deviceID uuid.UUID, req models.AssignRequest) (*models.Device, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	// Cross-store users fail resolution at the directory boundary
	user, err := s.directory.GetUserInStore(ctx, device.StoreID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.PIN == nil && user.Role == models.RoleEmployee {
		return nil, models.ErrPinRequiredForRole
	}

	var pinHash *string
	if req.PIN != nil {
		if !pinPattern.MatchString(*req.PIN) {
			return nil, models.ErrPinFormatInvalid
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash pin: %w", err)
		}
		h := string(hashed)
		pinHash = &h
	}
	// Privileged roles with no device PIN fall back to their master PIN
	// at authentication time

	device.AssignedUserID = &user.ID
	device.PINHash = pinHash
	device.Permissions = req.Capabilities

	return s.devices.Update(ctx, *device)
}

// Unassign clears the user, PIN and permissions, returning the device
// to the default capability set
func (s *AssignmentService) Unassign(ctx context.Context, actor models.Actor, deviceID uuid.UUID) (*models.Device, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.ErrUnauthorized
	}

	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	device.AssignedUserID = nil
	device.PINHash = nil
	device.Permissions = models.DefaultCapabilitySet()

	return s.devices.Update(ctx, *device)
}
