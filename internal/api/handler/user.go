package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/storelink-nz/device-service/internal/api"
	"github.com/storelink-nz/device-service/internal/middleware"
	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
)

// UserHandler exposes the staff directory to the management surface
type UserHandler struct {
	directory service.Directory
}

// NewUserHandler creates a new user handler
func NewUserHandler(directory service.Directory) *UserHandler {
	return &UserHandler{directory: directory}
}

// HandleUsers lists a store's staff so an admin can pick an assignee.
// Staff may only list their own store; super admins may list any.
func (h *UserHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

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

	if actor.Role != models.RoleSuperAdmin && actor.StoreID != storeID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	users, err := h.directory.ListUsersInStore(r.Context(), storeID)
	if err != nil {
		api.Error(w, err)
		return
	}

	respondJSON(w, users)
}
