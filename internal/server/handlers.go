package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/models"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/vars"
)

const defaultLeaderboardSize = 10

// boardRow is one leaderboard entry with the resolved player name attached.
type boardRow struct {
	Name   string            `json:"name"`
	Player models.SavePlayer `json:"player"`
}

// handleStatus returns the most recent live fetch snapshot plus pipeline and
// resolver state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	last := s.poller.Last()

	var connects map[string]time.Time
	if last.Online && len(last.Players) > 0 {
		names := make([]string, 0, len(last.Players))
		for _, p := range last.Players {
			names = append(names, p.Name)
		}
		connects = identity.RecentConnects(s.connectedLog, names)
	}

	writeJSON(w, map[string]any{
		"online":          last.Online,
		"server_info":     last.ServerInfo,
		"players":         last.Players,
		"last_connects":   connects,
		"known_players":   s.resolver.Known(),
		"parse_available": s.pipeline.Available(),
		"parse_running":   s.pipeline.Parsing(),
		"build":           vars.Info(),
	})
}

// handlePlayer returns the stored save summary for one player, looked up by
// steam id or by name. Query params: ?steam_id=7656... or ?name=Alice
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	s.refreshIfStale()

	steamID := r.URL.Query().Get("steam_id")
	if steamID == "" {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Missing steam_id or name", http.StatusBadRequest)
			return
		}

		id, ok := s.resolver.SteamID(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		steamID = id
	}

	player, err := s.pipeline.GetPlayer(steamID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch player")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if player == nil {
		http.NotFound(w, r)
		return
	}

	name, _ := s.resolver.Name(steamID)
	writeJSON(w, map[string]any{"name": name, "player": player})
}

// handleLeaderboard returns the top players by survival days.
// Query params: ?limit=10
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.refreshIfStale()
	s.writeBoard(w, r, s.pipeline.GetLeaderboard)
}

// handleKillboard returns the top players by zombie kills.
// Query params: ?limit=10
func (s *Server) handleKillboard(w http.ResponseWriter, r *http.Request) {
	s.refreshIfStale()
	s.writeBoard(w, r, s.pipeline.GetKillLeaderboard)
}

// writeBoard renders one leaderboard variant with resolved player names.
func (s *Server) writeBoard(w http.ResponseWriter, r *http.Request, fetch func(int) ([]models.SavePlayer, error)) {
	limit := defaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	players, err := fetch(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch leaderboard")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	rows := make([]boardRow, 0, len(players))
	for _, p := range players {
		name, _ := s.resolver.Name(p.SteamID)
		rows = append(rows, boardRow{Name: name, Player: p})
	}

	writeJSON(w, rows)
}

// handleState returns the singleton world state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.refreshIfStale()

	state, err := s.pipeline.GetGameState()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch game state")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if state == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, state)
}

// handleMeta returns the metadata of the most recent parse cycle.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.pipeline.GetParseMeta()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch parse meta")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if meta == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, meta)
}

// handleHistory returns player count samples and the death count over a
// window. Query params: ?hours=24
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid hours", http.StatusBadRequest)
			return
		}
		window = time.Duration(n) * time.Hour
	}

	samples, err := s.storage.PlayerCountHistory(window)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch player count history")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	deaths, err := s.storage.DeathCount(window)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch death count")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"samples": samples, "deaths": deaths})
}

// handleParse triggers a save parse cycle manually. The parse itself runs
// detached; the response only acknowledges the dispatch.
func (s *Server) handleParse(w http.ResponseWriter, _ *http.Request) {
	if !s.pipeline.Available() {
		http.Error(w, "Save pipeline unavailable", http.StatusServiceUnavailable)
		return
	}

	if s.pipeline.Parsing() {
		http.Error(w, "Parse already in progress", http.StatusConflict)
		return
	}

	s.pool.Go("manual-parse", func(ctx context.Context) {
		if err := s.pipeline.Parse(ctx); err != nil && !errors.Is(err, save.ErrParseInProgress) {
			log.Error().Err(err).Msg("Manual parse failed")
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// handleCommand runs one ad-hoc RCON command and returns its raw response.
// Query params: ?cmd=info
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	cmd := r.URL.Query().Get("cmd")
	if cmd == "" {
		http.Error(w, "Missing cmd", http.StatusBadRequest)
		return
	}

	response := s.manager.Execute(r.Context(), cmd)
	writeJSON(w, map[string]string{"response": response})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
