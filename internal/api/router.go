package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/codebattle-go/internal/api/handler"
	"github.com/mcoot/codebattle-go/internal/api/middleware"
	"github.com/mcoot/codebattle-go/internal/services/auth"
	"github.com/mcoot/codebattle-go/internal/services/battle"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
	"github.com/mcoot/codebattle-go/internal/services/matchmaking"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	Matchmaking   *matchmaking.Controller
	BattleManager *battle.Manager
	Challenges    *challenge.Service
	Storage       storage.Storage
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Storage)
	queueHandler := handler.NewQueueHandler(cfg.Matchmaking)
	matchHandler := handler.NewMatchHandler(cfg.BattleManager, cfg.Storage)
	challengeHandler := handler.NewChallengeHandler(cfg.Challenges)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me/profile", playerHandler.GetProfile).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me/history", playerHandler.GetHistory).Methods(http.MethodGet)

	// Matchmaking queue routes (all require auth)
	queue := api.PathPrefix("/queue").Subrouter()
	queue.Use(authMiddleware)
	queue.HandleFunc("", queueHandler.Join).Methods(http.MethodPost)
	queue.HandleFunc("", queueHandler.Status).Methods(http.MethodGet)
	queue.HandleFunc("", queueHandler.Leave).Methods(http.MethodDelete)

	// Match routes (all require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("/{match_id}", matchHandler.Record).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/join", matchHandler.Join).Methods(http.MethodPost)
	matches.HandleFunc("/{match_id}/state", matchHandler.State).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/complete", matchHandler.Complete).Methods(http.MethodPost)
	matches.HandleFunc("/{match_id}/leave", matchHandler.Leave).Methods(http.MethodPost)

	// Challenge catalog routes (require auth)
	challenges := api.PathPrefix("/challenges").Subrouter()
	challenges.Use(authMiddleware)
	challenges.HandleFunc("", challengeHandler.List).Methods(http.MethodGet)
	challenges.HandleFunc("/{challenge_id}", challengeHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
