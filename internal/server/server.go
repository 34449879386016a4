package server

import (
	"net/http"
	"sync"
	"time"

	"show-of-hands/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store     *Store
	db        *gorm.DB
	hub       *wsHub
	cfg       config.Config
	timersMu  sync.Mutex
	timers    map[string]*time.Timer
	tickStops map[string]chan struct{}
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:     NewStore(),
		db:        conn,
		hub:       newWSHub(),
		cfg:       cfg,
		timers:    make(map[string]*time.Timer),
		tickStops: make(map[string]chan struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups/", s.handleGroupSubroutes)
	mux.HandleFunc("POST /api/groups/", s.handleGroupSubroutes)
	mux.HandleFunc("GET /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("POST /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}
