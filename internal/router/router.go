// internal/router/router.go
package router

import (
	"net/http"

	"github.com/storelink-nz/device-service/internal/api/handler"
	"github.com/storelink-nz/device-service/internal/db"
	"github.com/storelink-nz/device-service/internal/middleware"
	"github.com/storelink-nz/device-service/internal/models"
	"github.com/storelink-nz/device-service/internal/service"
	"github.com/storelink-nz/device-service/internal/websockets"
)

// Services bundles everything the router wires into handlers
type Services struct {
	Auth       *service.AuthService
	Code       *service.CodeService
	Device     *service.DeviceService
	Assignment *service.AssignmentService
	Gateway    *service.GatewayService
	Directory  service.Directory
}

// Router handles HTTP routing
type Router struct {
	mux      *http.ServeMux
	services Services
	database *db.Postgres
	hub      *websockets.Hub
}

// New creates a new router
func New(database *db.Postgres, services Services, hub *websockets.Hub) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		services: services,
		database: database,
		hub:      hub,
	}

	r.setupRoutes()

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// setupRoutes sets up the routes for the router
func (r *Router) setupRoutes() {
	authHandler := handler.NewAuthHandler(r.services.Auth)
	codeHandler := handler.NewCodeHandler(r.services.Code, r.hub)
	deviceHandler := handler.NewDeviceHandler(r.services.Device, r.services.Assignment, r.hub)
	gatewayHandler := handler.NewGatewayHandler(r.services.Gateway)
	userHandler := handler.NewUserHandler(r.services.Directory)
	wsHandler := handler.NewWebSocketHandler(r.services.Auth, r.hub)

	// Public routes: the registration code and the device PIN are the
	// credentials for these
	r.mux.Handle("/api/auth/login", middleware.Logger(http.HandlerFunc(authHandler.HandleLogin)))
	r.mux.Handle("/api/devices/register", middleware.Logger(http.HandlerFunc(deviceHandler.HandleRegister)))
	r.mux.Handle("/api/device/authenticate", middleware.Logger(http.HandlerFunc(gatewayHandler.HandleAuthenticate)))
	r.mux.Handle("/api/health", http.HandlerFunc(r.handleHealth))
	r.mux.Handle("/ws", http.HandlerFunc(wsHandler.HandleFeed))

	// Device session routes
	r.mux.Handle("/api/device/authorize", middleware.Logger(
		middleware.DeviceAuth(r.services.Gateway)(
			http.HandlerFunc(gatewayHandler.HandleAuthorize),
		),
	))

	// Staff routes; fine-grained role checks live in the services
	staffHandler := http.NewServeMux()
	staffHandler.Handle("/codes", middleware.RequireRole(models.RoleSuperAdmin)(http.HandlerFunc(codeHandler.HandleCodes)))
	staffHandler.Handle("/codes/", middleware.RequireRole(models.RoleSuperAdmin)(http.HandlerFunc(codeHandler.HandleCodes)))
	staffHandler.Handle("/devices", middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)(http.HandlerFunc(deviceHandler.HandleDevices)))
	staffHandler.Handle("/devices/", middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)(http.HandlerFunc(deviceHandler.HandleDevices)))
	staffHandler.Handle("/users", middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)(http.HandlerFunc(userHandler.HandleUsers)))

	staffChain := middleware.Logger(
		middleware.Auth(r.services.Auth)(
			staffHandler,
		),
	)

	r.mux.Handle("/api/", http.StripPrefix("/api", staffChain))
}

// handleHealth reports service and database health
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if err := r.database.HealthCheck(req.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
