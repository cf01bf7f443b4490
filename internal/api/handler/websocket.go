package handler

import (
	"net/http"

	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
	"github.com/storelink-nz/device-service/internal/websockets"
)

// WebSocketHandler upgrades management clients onto the audit feed
type WebSocketHandler struct {
	authService *service.AuthService
	hub         *websockets.Hub
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(authService *service.AuthService, hub *websockets.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		authService: authService,
		hub:         hub,
	}
}

// HandleFeed subscribes a staff client to a store's audit events.
// Browsers cannot set headers on websocket dials, so the staff token
// rides in the query string.
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		http.Error(w, "store_id is required", http.StatusBadRequest)
		return
	}

	// Staff may only watch their own store; super admins see any
	if models.UserRole(claims.Role) != models.RoleSuperAdmin && claims.StoreID != storeID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websockets.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// If upgrading fails, the upgrader has already written the error to the response
		return
	}

	websockets.ServeWs(h.hub, conn, claims.UserID, storeID)
}
