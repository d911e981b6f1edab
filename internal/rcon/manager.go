package rcon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hztools/hzsync/internal/config"
)

// backoffSchedule is the advisory delay ladder for repeated connect failures.
var backoffSchedule = []time.Duration{5 * time.Second, 10 * time.Second, 30 * time.Second, 60 * time.Second}

// ServerInfo is the structured result of the "info" command, rebuilt fresh on
// every poll.
type ServerInfo struct {
	Name        string   `json:"name"`
	Season      string   `json:"season"`
	Weather     string   `json:"weather"`
	GameTime    string   `json:"game_time"`
	Raw         string   `json:"-"`
	PlayerNames []string `json:"player_names"`
	PlayerCount int      `json:"player_count"`
	MaxPlayers  int      `json:"max_players"`
	FPS         int      `json:"fps"`
	Zombies     int      `json:"zombies"`
	Humans      int      `json:"humans"`
	Animals     int      `json:"animals"`
}

// PlayerInfo is one row of the "Players" command output.
type PlayerInfo struct {
	Name    string `json:"name"`
	SteamID string `json:"steam_id"`
	EosID   string `json:"eos_id"`
}

// FetchResult carries one atomic scan of server state. When Online is false
// every other field must be ignored.
type FetchResult struct {
	ServerInfo *ServerInfo  `json:"server_info,omitempty"`
	Err        error        `json:"-"`
	RawChat    string       `json:"-"`
	Players    []PlayerInfo `json:"players,omitempty"`
	Online     bool         `json:"online"`
}

// Manager owns the transport lifetime and is the sole holder of the
// per-connection lock. The protocol is strictly half-duplex over one socket,
// so exactly one request/response round trip may be in flight at a time; the
// lock is held for the full round trip including any reconnect inside it.
type Manager struct {
	client  *Client
	limiter *rate.Limiter
	cfg     config.RCON

	mu         sync.Mutex
	backoffIdx int
}

// NewManager creates a connection manager. No connection is made until the
// first exchange.
func NewManager(cfg config.RCON) *Manager {
	return &Manager{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.ExecRate), cfg.ExecBurst),
	}
}

// ensureConnected validates the cached socket or performs a fresh
// connect+auth. Must be called with the lock held. Advances the backoff index
// on failure and resets it on success.
func (m *Manager) ensureConnected() bool {
	if m.client != nil && m.client.Connected() {
		return true
	}

	if m.client != nil {
		m.client.Close()
		m.client = nil
	}

	log.Info().
		Str("host", m.cfg.Host).
		Int("port", m.cfg.Port).
		Msg("Establishing RCON connection")

	client := NewClient(m.cfg.Host, m.cfg.Port, m.cfg.DialTimeout)
	if !client.Connect() || !client.Authenticate(m.cfg.Password) {
		client.Close()
		m.backoffIdx++
		log.Warn().
			Dur("retry_after", m.RetryDelay()).
			Msg("RCON connection failed")
		return false
	}

	m.client = client
	m.backoffIdx = 0
	return true
}

// RetryDelay returns the advisory delay before the next connection attempt.
// The manager never sleeps itself; the poller applies this to its cadence.
func (m *Manager) RetryDelay() time.Duration {
	idx := m.backoffIdx - 1
	if idx < 0 {
		return 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return backoffSchedule[idx]
}

// Execute runs a single ad-hoc command and returns its response body. Any
// connectivity failure degrades to an empty string, never an error. Ad-hoc
// commands are rate limited so outside callers cannot flood the socket.
func (m *Manager) Execute(ctx context.Context, command string) string {
	if err := m.limiter.Wait(ctx); err != nil {
		return ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ensureConnected() {
		return ""
	}

	body, _, err := m.client.ExecuteSimple(command, m.cfg.ReadTimeout)
	if err != nil {
		log.Warn().Err(err).Str("command", command).Msg("RCON command failed")
		m.client.Close()
		m.client = nil
		return ""
	}

	return body
}

// FetchAll issues the info, Players and fetchchat commands back to back under
// one lock acquisition so all three reflect one consistent instant. A failure
// partway through invalidates the connection and reports the whole fetch as
// offline rather than returning a partially consistent result.
func (m *Manager) FetchAll(ctx context.Context) FetchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return FetchResult{Online: false, Err: err}
	}

	if !m.ensureConnected() {
		return FetchResult{Online: false, Err: ErrNotConnected}
	}

	infoRaw, _, err := m.client.ExecuteSimple("info", m.cfg.ReadTimeout)
	if err != nil {
		return m.fetchFailed("info", err)
	}

	playersRaw, _, err := m.client.ExecuteSimple("Players", m.cfg.ReadTimeout)
	if err != nil {
		return m.fetchFailed("Players", err)
	}

	chatRaw, _, err := m.client.ExecuteSimple("fetchchat", m.cfg.ReadTimeout)
	if err != nil {
		return m.fetchFailed("fetchchat", err)
	}

	return FetchResult{
		Online:     true,
		ServerInfo: parseInfo(infoRaw),
		Players:    parsePlayers(playersRaw),
		RawChat:    chatRaw,
	}
}

// fetchFailed drops the connection and discards any partial data. Must be
// called with the lock held.
func (m *Manager) fetchFailed(command string, err error) FetchResult {
	log.Warn().Err(err).Str("command", command).Msg("Batch fetch interrupted")
	m.client.Close()
	m.client = nil
	return FetchResult{Online: false, Err: err}
}

// Close shuts down the cached connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
		m.client = nil
		log.Info().Msg("RCON connection closed")
	}
}
