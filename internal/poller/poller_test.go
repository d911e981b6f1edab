package poller

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hztools/hzsync/internal/chat"
	"github.com/hztools/hzsync/internal/config"
	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/rcon"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/storage"
	"github.com/hztools/hzsync/internal/tasks"
)

func testPoller(t *testing.T) (*Poller, *storage.Repository) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// A freshly closed port so connects fail immediately
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &config.Config{
		RCON: config.RCON{
			Host:        "127.0.0.1",
			Port:        port,
			Password:    "secret",
			DialTimeout: 100 * time.Millisecond,
			ReadTimeout: 50 * time.Millisecond,
			ExecRate:    100,
			ExecBurst:   10,
		},
		Poll: config.Poll{StatusInterval: 30 * time.Second, PruneEvery: 1000},
		Save: config.Save{ParseInterval: 0, StaleAfter: time.Hour, StageTimeout: time.Second,
			ConverterBin: "no-such-converter", ExtractorBin: "no-such-extractor",
			FilePath: filepath.Join(t.TempDir(), "missing.sav"), WorkDir: t.TempDir()},
		Storage: config.Storage{Retention: time.Hour},
	}

	manager := rcon.NewManager(cfg.RCON)
	t.Cleanup(manager.Close)

	resolver := identity.NewResolver(store)
	pipeline := save.NewPipeline(store, cfg.Save)
	pool := tasks.NewPool(context.Background())
	t.Cleanup(pool.Shutdown)

	return New(cfg, manager, resolver, pipeline, store, pool), store
}

func TestTickOfflineRecordsZeroCount(t *testing.T) {
	p, store := testPoller(t)

	p.tick(context.Background())

	last := p.Last()
	assert.False(t, last.Online)

	samples, err := store.PlayerCountHistory(time.Hour)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Zero(t, samples[0].Count)

	assert.True(t, p.nextAttempt.After(time.Now()), "backoff window must be armed")
}

func TestTickSkipsDuringBackoff(t *testing.T) {
	p, store := testPoller(t)

	p.tick(context.Background())
	p.tick(context.Background())

	// The second tick fell inside the backoff window and fetched nothing
	samples, err := store.PlayerCountHistory(time.Hour)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestLogEventPersistsChatAndSessions(t *testing.T) {
	p, store := testPoller(t)

	p.logEvent(chat.Event{Type: chat.EventChat, Player: "Alice", Message: "hi"})
	p.logEvent(chat.Event{Type: chat.EventDied, Player: "Bob"})
	p.logEvent(chat.Event{Type: chat.EventUnknown, Raw: "noise"})

	deaths, err := store.DeathCount(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deaths, "only the death produced a session row for it")
}
