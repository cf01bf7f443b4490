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

// CodeHandler handles registration code requests
type CodeHandler struct {
	codeService *service.CodeService
	hub         EventPublisher
}

// NewCodeHandler creates a new registration code handler
func NewCodeHandler(codeService *service.CodeService, hub EventPublisher) *CodeHandler {
	return &CodeHandler{
		codeService: codeService,
		hub:         hub,
	}
}

// HandleCodes handles requests for registration codes
func (h *CodeHandler) HandleCodes(w http.ResponseWriter, r *http.Request) {
	// Extract the ID from path
	path := strings.TrimPrefix(r.URL.Path, "/codes")
	path = strings.TrimPrefix(path, "/")

	// Check for lifecycle endpoints
	if strings.HasSuffix(path, "/deactivate") || strings.HasSuffix(path, "/reactivate") {
		parts := strings.Split(path, "/")
		if len(parts) != 2 || r.Method != http.MethodPost {
			api.BadRequest(w, "Invalid path")
			return
		}
		id, err := uuid.Parse(parts[0])
		if err != nil {
			api.BadRequest(w, "Invalid code ID")
			return
		}
		h.setActive(w, r, id, parts[1] == "reactivate")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if path == "" {
			h.listCodes(w, r)
		} else {
			id, err := uuid.Parse(path)
			if err != nil {
				api.BadRequest(w, "Invalid code ID")
				return
			}
			h.getCode(w, r, id)
		}

	case http.MethodPost:
		if path != "" {
			api.BadRequest(w, "Invalid path")
			return
		}
		h.generateCode(w, r)

	case http.MethodDelete:
		id, err := uuid.Parse(path)
		if err != nil {
			api.BadRequest(w, "Invalid code ID")
			return
		}
		h.deleteCode(w, r, id)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// generateCode issues a new registration code
func (h *CodeHandler) generateCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}
	if req.StoreID == uuid.Nil {
		api.BadRequest(w, "store_id is required")
		return
	}

	code, err := h.codeService.Generate(r.Context(), actor, req)
	if err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(websockets.TypeCodeGenerated, code.StoreID.String(), code)

	respondJSONStatus(w, http.StatusCreated, code)
}

// listCodes lists a store's registration codes
func (h *CodeHandler) listCodes(w http.ResponseWriter, r *http.Request) {
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

	codes, err := h.codeService.List(r.Context(), actor, storeID)
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, codes)
}

// getCode gets a registration code by ID
func (h *CodeHandler) getCode(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	code, err := h.codeService.Get(r.Context(), actor, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, code)
}

// setActive deactivates or reactivates a registration code
func (h *CodeHandler) setActive(w http.ResponseWriter, r *http.Request, id uuid.UUID, active bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var code *models.RegistrationCode
	var err error
	if active {
		code, err = h.codeService.Reactivate(r.Context(), actor, id)
	} else {
		code, err = h.codeService.Deactivate(r.Context(), actor, id)
	}
	if err != nil {
		api.Error(w, err)
		return
	}

	eventType := websockets.TypeCodeDeactivated
	if active {
		eventType = websockets.TypeCodeReactivated
	}
	h.hub.PublishEvent(eventType, code.StoreID.String(), code)

	respondJSON(w, code)
}

// deleteCode deletes a never-consumed registration code
func (h *CodeHandler) deleteCode(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// The event must reach the code's store, which for a super admin
	// is not necessarily the actor's own
	code, err := h.codeService.Get(r.Context(), actor, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.codeService.Delete(r.Context(), actor, id); err != nil {
		api.Error(w, err)
		return
	}

	h.hub.PublishEvent(websockets.TypeCodeDeleted, code.StoreID.String(), map[string]string{"id": id.String()})

	w.WriteHeader(http.StatusNoContent)
}
