package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"showhound/internal/config"
	"showhound/internal/core"
	"showhound/internal/utils"
)

type Server struct {
	config     *config.Config
	manager    *core.Manager
	hub        *Hub
	logger     *utils.Logger
	httpServer *http.Server
	apiHandler *APIHandler
}

func NewServer(cfg *config.Config, manager *core.Manager, hub *Hub, logger *utils.Logger) *Server {
	return &Server{
		config:     cfg,
		manager:    manager,
		hub:        hub,
		logger:     logger,
		apiHandler: NewAPIHandler(manager, logger, cfg),
	}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/wishlist", s.apiHandler.GetWishlist).Methods("GET")
	api.HandleFunc("/wishlist", s.apiHandler.AddWishlist).Methods("POST")
	api.HandleFunc("/wishlist/{id}", s.apiHandler.UpdateWishlist).Methods("PUT")
	api.HandleFunc("/wishlist/{id}", s.apiHandler.DeleteWishlist).Methods("DELETE")
	api.HandleFunc("/releases", s.apiHandler.GetReleases).Methods("GET")
	api.HandleFunc("/downloads", s.apiHandler.GetDownloads).Methods("GET")
	api.HandleFunc("/matches", s.apiHandler.GetMatches).Methods("GET")
	api.HandleFunc("/scan", s.apiHandler.TriggerScan).Methods("POST")
	api.HandleFunc("/status", s.apiHandler.GetStatus).Methods("GET")
	api.HandleFunc("/notifications/test", s.apiHandler.TestNotifications).Methods("POST")

	// Live event stream
	api.HandleFunc("/events", s.hub.HandleWebSocket)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Starting server on port", s.config.App.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
