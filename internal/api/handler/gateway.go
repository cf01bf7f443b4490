package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/api"
	"github.com/storelink-nz/device-service/internal/middleware"
	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
)

// GatewayHandler handles handheld session requests
type GatewayHandler struct {
	gateway *service.GatewayService
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(gateway *service.GatewayService) *GatewayHandler {
	return &GatewayHandler{gateway: gateway}
}

// HandleAuthenticate exchanges a device ID and PIN for a session token
func (h *GatewayHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		DeviceID uuid.UUID `json:"device_id"`
		PIN      string    `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}

	token, device, err := h.gateway.Authenticate(r.Context(), req.DeviceID, req.PIN)
	if err != nil {
		api.Error(w, err)
		return
	}

	response := struct {
		Token  string        `json:"token"`
		Device models.Device `json:"device"`
	}{
		Token:  token,
		Device: *device,
	}

	respondJSON(w, response)
}

// HandleAuthorize answers whether the session may perform a capability.
// Requires a device session (middleware.DeviceAuth).
func (h *GatewayHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetDeviceClaims(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Capability string `json:"capability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}
	if !models.ValidCapability(req.Capability) {
		api.BadRequest(w, "Unknown capability")
		return
	}

	allowed, err := h.gateway.Authorize(r.Context(), claims, models.Capability(req.Capability))
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, struct {
		Allowed bool `json:"allowed"`
	}{Allowed: allowed})
}
