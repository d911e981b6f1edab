// Package poller drives the interval loops: the server status and chat poll,
// scheduled save parses, and the periodic retention prune. Every blocking
// operation runs off the caller's goroutine via the supervised task pool so
// no loop ever stalls another.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/chat"
	"github.com/hztools/hzsync/internal/config"
	"github.com/hztools/hzsync/internal/game"
	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/models"
	"github.com/hztools/hzsync/internal/rcon"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/storage"
	"github.com/hztools/hzsync/internal/tasks"
)

// sessionEvents are the chat event types also recorded as session rows.
var sessionEvents = map[chat.EventType]struct{}{
	chat.EventJoined: {},
	chat.EventLeft:   {},
	chat.EventDied:   {},
}

// Poller owns the status loop state. It is created once and runs until the
// context is cancelled.
type Poller struct {
	cfg      *config.Config
	manager  *rcon.Manager
	differ   *chat.Differ
	resolver *identity.Resolver
	pipeline *save.Pipeline
	store    *storage.Repository
	pool     *tasks.Pool

	mu   sync.RWMutex
	last rcon.FetchResult

	nextAttempt  time.Time
	parseAccum   time.Duration
	pruneCounter int
}

// New creates a poller wired to its collaborators.
func New(
	cfg *config.Config,
	manager *rcon.Manager,
	resolver *identity.Resolver,
	pipeline *save.Pipeline,
	store *storage.Repository,
	pool *tasks.Pool,
) *Poller {
	return &Poller{
		cfg:      cfg,
		manager:  manager,
		differ:   chat.NewDiffer(),
		resolver: resolver,
		pipeline: pipeline,
		store:    store,
		pool:     pool,
	}
}

// Last returns the most recent fetch result for the status API.
func (p *Poller) Last() rcon.FetchResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run executes the status loop until the context is cancelled. An initial
// tick fires immediately so the first status is available without waiting a
// full interval.
func (p *Poller) Run(ctx context.Context) {
	interval := p.cfg.Poll.StatusInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Status poll loop started")

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Status poll loop stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick performs one poll cycle.
func (p *Poller) tick(ctx context.Context) {
	// Honor the manager's advisory backoff instead of hammering a dead host
	if !time.Now().After(p.nextAttempt) {
		p.housekeeping(ctx)
		return
	}

	result := p.manager.FetchAll(ctx)

	p.mu.Lock()
	p.last = result
	p.mu.Unlock()

	if !result.Online {
		p.nextAttempt = time.Now().Add(p.manager.RetryDelay())
		p.probeOfflineCause()
		p.recordCount(0)
		p.housekeeping(ctx)
		return
	}

	p.nextAttempt = time.Time{}

	if len(result.Players) > 0 {
		identities := make([]models.PlayerIdentity, 0, len(result.Players))
		for _, pl := range result.Players {
			identities = append(identities, models.PlayerIdentity{
				SteamID: pl.SteamID,
				Name:    pl.Name,
				EosID:   pl.EosID,
			})
		}
		p.resolver.Update(identities)
	}

	if result.ServerInfo != nil {
		p.recordCount(result.ServerInfo.PlayerCount)
	}

	for _, event := range p.differ.Update(result.RawChat) {
		p.logEvent(event)
	}

	p.housekeeping(ctx)
}

// logEvent persists one new chat event. Unknown lines are not stored.
func (p *Poller) logEvent(event chat.Event) {
	if event.Type == chat.EventUnknown {
		log.Debug().Str("line", event.Raw).Msg("Unrecognized chat line")
		return
	}

	if err := p.store.AddChatEvent(string(event.Type), event.Player, event.Message); err != nil {
		log.Error().Err(err).Msg("Failed to store chat event")
	}

	if _, ok := sessionEvents[event.Type]; ok {
		if err := p.store.AddSessionEvent(event.Player, string(event.Type)); err != nil {
			log.Error().Err(err).Msg("Failed to store session event")
		}
	}
}

func (p *Poller) recordCount(count int) {
	if err := p.store.AddPlayerCount(count); err != nil {
		log.Error().Err(err).Msg("Failed to store player count sample")
	}
}

// housekeeping advances the parse schedule and the prune counter. Both run
// as detached tracked tasks so the poll loop never blocks on them.
func (p *Poller) housekeeping(_ context.Context) {
	if interval := p.cfg.Save.ParseInterval; interval > 0 {
		p.parseAccum += p.cfg.Poll.StatusInterval
		if p.parseAccum >= interval {
			p.parseAccum = 0
			if p.pipeline.Available() && !p.pipeline.Parsing() {
				p.pool.Go("scheduled-parse", func(ctx context.Context) {
					if err := p.pipeline.Parse(ctx); err != nil {
						log.Error().Err(err).Msg("Scheduled save parse failed")
					}
				})
			}
		}
	}

	p.pruneCounter++
	if p.cfg.Poll.PruneEvery > 0 && p.pruneCounter >= p.cfg.Poll.PruneEvery {
		p.pruneCounter = 0
		retention := p.cfg.Storage.Retention
		p.pool.Go("prune", func(_ context.Context) {
			if _, err := p.store.Prune(retention); err != nil {
				log.Error().Err(err).Msg("Retention prune failed")
			}
		})
	}
}

// probeOfflineCause distinguishes a dead game server from a dead RCON
// listener using the Steam query port, when one is configured.
func (p *Poller) probeOfflineCause() {
	if p.cfg.Query.Port == 0 {
		return
	}

	host := p.cfg.RCON.Host
	query := p.cfg.Query
	p.pool.Go("a2s-probe", func(_ context.Context) {
		info, err := game.Probe(host, query)
		if err != nil {
			log.Warn().Err(err).Msg("Server unreachable on both RCON and Steam query")
			return
		}

		log.Warn().
			Str("server", info.Name).
			Uint8("players", info.Players).
			Msg("Server answers Steam query but not RCON")
	})
}
