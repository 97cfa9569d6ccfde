package api

import (
	"context"
	"net/http"

	"github.com/M-LunaFarm/NationSystem/internal/auth"
	"github.com/M-LunaFarm/NationSystem/internal/service"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/M-LunaFarm/NationSystem/internal/world"
	"github.com/google/uuid"
)

// Services bundles the domain services the HTTP layer dispatches into.
type Services struct {
	Nations     *service.NationService
	Territories *service.TerritoryService
	Buildings   *service.BuildingService
	Wars        *service.WarService
	Bank        *service.BankService
	Levels      *service.LevelService
	Presents    *service.PresentService
	Storage     *service.StorageService
	Shop        *service.ShopService
	Quests      *service.QuestService
	Events      *service.Events
}

// Router holds the HTTP routes and dependencies
type Router struct {
	mux      *http.ServeMux
	baseCtx  context.Context
	store    *storage.Store
	svc      *Services
	gateway  *world.Gateway
	wsHub    *WebSocketHub
	sessions *SessionRegistry
	auth     *auth.Service
}

// NewRouter creates a new HTTP router. ctx bounds the lifetime of play
// sessions; request contexts die with the upgrade handler, so sessions run
// on the server's context instead.
func NewRouter(ctx context.Context, store *storage.Store, svc *Services, gateway *world.Gateway, authService *auth.Service) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		baseCtx:  ctx,
		store:    store,
		svc:      svc,
		gateway:  gateway,
		wsHub:    NewWebSocketHub(),
		sessions: NewSessionRegistry(),
		auth:     authService,
	}

	// Read API
	r.mux.HandleFunc("GET /api/nations", r.handleGetNations)
	r.mux.HandleFunc("GET /api/nations/{id}", r.handleGetNation)
	r.mux.HandleFunc("GET /api/nations/{id}/territories", r.handleGetNationTerritories)
	r.mux.HandleFunc("GET /api/nations/{id}/war", r.handleGetNationWar)
	r.mux.HandleFunc("GET /api/territories/{id}/buildings", r.handleGetTerritoryBuildings)
	r.mux.HandleFunc("GET /api/war/status", r.handleGetWarStatus)

	// Auth routes
	r.mux.HandleFunc("POST /api/auth/login", r.handleLogin)
	r.mux.HandleFunc("POST /api/auth/logout", r.handleLogout)
	r.mux.HandleFunc("GET /api/auth/check", r.handleAuthCheck)

	// User management routes (admin only)
	r.mux.HandleFunc("GET /api/users", r.requireAdmin(r.handleListUsers))
	r.mux.HandleFunc("POST /api/users", r.requireAdmin(r.handleCreateUser))
	r.mux.HandleFunc("DELETE /api/users/{username}", r.requireAdmin(r.handleDeleteUser))

	// War administration (admin only)
	r.mux.HandleFunc("POST /api/admin/war/match", r.requireAdmin(r.handleSetMatchOpen))
	r.mux.HandleFunc("POST /api/admin/war/clear-queue", r.requireAdmin(r.handleClearQueue))

	// WebSocket endpoints
	r.mux.HandleFunc("GET /ws/events", r.handleEventSocket)
	r.mux.HandleFunc("GET /ws/play", r.handlePlaySocket)

	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)

	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// CORS headers for API
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// StartWebSocketHub starts broadcasting domain events to observer clients
func (r *Router) StartWebSocketHub() {
	go r.wsHub.Run()

	go func() {
		for event := range r.svc.Events.C() {
			r.wsHub.Broadcast(event)
		}
	}()
}

// DeliverToPlayer routes a notification to the player's session, if any.
// Registered as the notify delivery function; must not block.
func (r *Router) DeliverToPlayer(player uuid.UUID, text string) {
	r.sessions.Deliver(player, text)
}
