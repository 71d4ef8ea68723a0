package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewRouter wires every route and middleware around handler
func NewRouter(handler *Handler, corsOrigins []string, logger *logrus.Logger) http.Handler {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))

	router.HandleFunc("/", handler.Root).Methods("GET")
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Narratives
	router.HandleFunc("/summary/match_summary", handler.MatchSummary).Methods("POST")
	router.HandleFunc("/profile/player_profile", handler.PlayerProfile).Methods("POST")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Catalog
	api.HandleFunc("/competitions", handler.GetCompetitions).Methods("GET")
	api.HandleFunc("/competitions/{competitionID}/seasons/{seasonID}/matches", handler.GetSeasonMatches).Methods("GET")
	api.HandleFunc("/competitions/{competitionID}/seasons/{seasonID}/matches/{matchID}", handler.GetMatchInfo).Methods("GET")

	// Matches
	api.HandleFunc("/matches/{matchID}/players", handler.GetMatchPlayers).Methods("GET")
	api.HandleFunc("/matches/{matchID}/players/{playerName}/passes", handler.GetPlayerPasses).Methods("GET")
	api.HandleFunc("/matches/{matchID}/events", handler.GetMatchEvents).Methods("GET")
	api.HandleFunc("/matches/{matchID}/lineups", handler.GetMatchLineups).Methods("GET")
	api.HandleFunc("/matches/{matchID}/stats", handler.GetMatchStats).Methods("GET")

	// CORS wraps the router so preflight requests never reach route matching
	return CORSMiddleware(corsOrigins)(router)
}

// NewServer creates a new REST API server
func NewServer(port string, handler *Handler, corsOrigins []string, logger *logrus.Logger) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, corsOrigins, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
