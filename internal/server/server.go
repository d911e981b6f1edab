// Package server implements the local status API: live server state, save
// summaries, event history and manual controls.
package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/poller"
	"github.com/hztools/hzsync/internal/rcon"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/storage"
	"github.com/hztools/hzsync/internal/tasks"
)

// New creates a Server wired to its collaborators.
func New(
	store *storage.Repository,
	pipeline *save.Pipeline,
	poll *poller.Poller,
	resolver *identity.Resolver,
	manager *rcon.Manager,
	pool *tasks.Pool,
	authToken, connectedLog string,
) *Server {
	return &Server{
		storage:      store,
		pipeline:     pipeline,
		poller:       poll,
		resolver:     resolver,
		manager:      manager,
		pool:         pool,
		authToken:    authToken,
		connectedLog: connectedLog,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/status", s.auth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/player", s.auth(http.HandlerFunc(s.handlePlayer)))
	mux.Handle("GET /api/leaderboard", s.auth(http.HandlerFunc(s.handleLeaderboard)))
	mux.Handle("GET /api/killboard", s.auth(http.HandlerFunc(s.handleKillboard)))
	mux.Handle("GET /api/state", s.auth(http.HandlerFunc(s.handleState)))
	mux.Handle("GET /api/meta", s.auth(http.HandlerFunc(s.handleMeta)))
	mux.Handle("GET /api/history", s.auth(http.HandlerFunc(s.handleHistory)))
	mux.Handle("POST /api/parse", s.auth(http.HandlerFunc(s.handleParse)))
	mux.Handle("POST /api/command", s.auth(http.HandlerFunc(s.handleCommand)))

	return s.LoggingMiddleware(mux)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return AdminAuthMiddleware(s.authToken, next)
}

// refreshIfStale dispatches a detached background parse when the stored save
// data is past its staleness cooldown. Query handlers call it on the way in;
// the response they return is still the current data, never a blocking wait.
func (s *Server) refreshIfStale() {
	if !s.pipeline.ShouldRefresh() {
		return
	}

	log.Info().Msg("Save data stale, dispatching background parse")
	s.pool.Go("stale-refresh-parse", func(ctx context.Context) {
		if err := s.pipeline.Parse(ctx); err != nil {
			log.Error().Err(err).Msg("Staleness-triggered parse failed")
		}
	})
}
