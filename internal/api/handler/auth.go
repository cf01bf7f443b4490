package handler

import (
	"encoding/json"
	"net/http"

	"github.com/storelink-nz/device-service/internal/api"
	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
)

// AuthHandler handles staff authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// HandleLogin handles staff login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var loginReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		api.BadRequest(w, "Invalid request body")
		return
	}

	token, user, err := h.authService.Login(r.Context(), loginReq.Username, loginReq.Password)
	if err != nil {
		api.Error(w, err)
		return
	}

	response := struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}{
		Token: token,
		User:  *user,
	}

	respondJSON(w, response)
}
