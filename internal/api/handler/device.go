package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/api"
	"github.com/storelink-nz/device-service/internal/middleware"
	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
	"github.com/storelink-nz/device-service/internal/websockets"
)

// DeviceHandler handles device management requests
type DeviceHandler struct {
	deviceService     *service.DeviceService
	assignmentService *service.AssignmentService
	hub               EventPublisher
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *service.DeviceService, assignmentService *service.AssignmentService, hub EventPublisher) *DeviceHandler {
	return &DeviceHandler{
		deviceService:     deviceService,
		assignmentService: assignmentService,
		hub:               hub,
	}
}

// deviceActions maps the lifecycle sub-path to its audit event
var deviceActions = map[string]websockets.EventType{
	"lock":       websockets.TypeDeviceLocked,
	"unlock":     websockets.TypeDeviceUnlocked,
	"deactivate": websockets.TypeDeviceDeactivated,
	"reactivate": websockets.TypeDeviceReactivated,
	"assign":     websockets.TypeDeviceAssigned,
	"unassign":   websockets.TypeDeviceUnassigned,
}

// HandleDevices handles requests for devices
func (h *DeviceHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	// Extract the ID from path
	path := strings.TrimPrefix(r.URL.Path, "/devices")
	path = strings.TrimPrefix(path, "/")

	// Check for lifecycle endpoints: /devices/{id}/{action}
	if parts := strings.Split(path, "/"); len(parts) == 2 {
		if _, ok := deviceActions[parts[1]]; !ok {
			api.BadRequest(w, "Invalid path")
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := uuid.Parse(parts[0])
		if err != nil {
			api.BadRequest(w, "Invalid device ID")
			return
		}
		h.deviceAction(w, r, id, parts[1])
		return
	}

	switch r.Method {
	case http.MethodGet:
		if path == "" {
			h.listDevices(w, r)
		} else {
			id, err := uuid.Parse(path)
			if err != nil {
				api.BadRequest(w, "Invalid device ID")
				return
			}
			h.getDevice(w, r, id)
		}

	case http.MethodPut:
		id, err := uuid.Parse(path)
		if err != nil {
			api.BadRequest(w, "Invalid device ID")
			return
		}
		h.renameDevice(w, r, id)

	case http.MethodDelete:
		id, err := uuid.Parse(path)
		if err != nil {
			api.BadRequest(w, "Invalid device ID")
			return
		}
		h.unregisterDevice(w, r, id)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleRegister registers a new handheld against a registration code.
// The code itself is the credential; no staff token is involved.
func (h *DeviceHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}
	if req.Code == "" {
		api.BadRequest(w, "code is required")
		return
	}

	device, err := h.deviceService.Register(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(websockets.TypeDeviceRegistered, device.StoreID.String(), device)

	respondJSONStatus(w, http.StatusCreated, struct {
		DeviceID uuid.UUID `json:"device_id"`
	}{DeviceID: device.ID})
}

// listDevices lists a store's devices
func (h *DeviceHandler) listDevices(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	storeID, err := uuid.Parse(r.URL.Query().Get("store_id"))
	if err != nil {
		api.BadRequest(w, "Invalid store_id")
		return
	}
	includeInactive := r.URL.Query().Get("all") == "true"

	devices, err := h.deviceService.List(r.Context(), actor, storeID, includeInactive)
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, devices)
}

// getDevice gets a device by ID
func (h *DeviceHandler) getDevice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	device, err := h.deviceService.Get(r.Context(), actor, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, device)
}

// renameDevice updates a device's display name
func (h *DeviceHandler) renameDevice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		api.BadRequest(w, "name is required")
		return
	}

	device, err := h.deviceService.Rename(r.Context(), actor, id, req.Name)
	if err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(websockets.TypeDeviceRenamed, device.StoreID.String(), device)

	respondJSON(w, device)
}

// deviceAction dispatches the lifecycle and assignment endpoints
func (h *DeviceHandler) deviceAction(w http.ResponseWriter, r *http.Request, id uuid.UUID, action string) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var device *models.Device
	var err error

	switch action {
	case "lock":
		device, err = h.deviceService.Lock(r.Context(), actor, id)
	case "unlock":
		device, err = h.deviceService.Unlock(r.Context(), actor, id)
	case "deactivate":
		device, err = h.deviceService.Deactivate(r.Context(), actor, id)
	case "reactivate":
		device, err = h.deviceService.Reactivate(r.Context(), actor, id)
	case "assign":
		var req models.AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "Invalid request body")
			return
		}
		device, err = h.assignmentService.Assign(r.Context(), actor, id, req)
	case "unassign":
		device, err = h.assignmentService.Unassign(r.Context(), actor, id)
	}

	if err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(deviceActions[action], device.StoreID.String(), device)

	respondJSON(w, device)
}

// unregisterDevice hard-deletes a device record
func (h *DeviceHandler) unregisterDevice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// The event must reach the device's store, which for a super admin
	// is not necessarily the actor's own
	device, err := h.deviceService.Get(r.Context(), actor, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.deviceService.Unregister(r.Context(), actor, id); err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(websockets.TypeDeviceUnregistered, device.StoreID.String(), map[string]string{"id": id.String()})

	w.WriteHeader(http.StatusNoContent)
}
