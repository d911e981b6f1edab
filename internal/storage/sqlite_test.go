package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hztools/hzsync/internal/models"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestUpsertIdentityLastNameWins(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "76561198000000001", Name: "OldName", EosID: "abc123",
	}))
	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "76561198000000001", Name: "NewName",
	}))

	id, err := repo.GetIdentity("76561198000000001")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "NewName", id.Name)
	assert.Equal(t, "abc123", id.EosID, "empty eos id must not erase a stored one")
}

func TestGetIdentityNotFound(t *testing.T) {
	repo := testRepo(t)

	id, err := repo.GetIdentity("nope")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestFindIdentityByNameCaseInsensitive(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "76561198000000002", Name: "SurvivorBob",
	}))

	id, err := repo.FindIdentityByName("survivorbob")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "76561198000000002", id.SteamID)
}

func TestAllIdentitiesNewestFirst(t *testing.T) {
	repo := testRepo(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "1", Name: "First", UpdatedAt: base,
	}))
	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "2", Name: "Second", UpdatedAt: base.Add(time.Minute),
	}))

	all, err := repo.AllIdentities()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Second", all[0].Name)
}

func TestReplaceSavePlayerOverwritesEverything(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.ReplaceSavePlayer(models.SavePlayer{
		SteamID:       "76561198000000003",
		Health:        80,
		ZombiesKilled: 100,
		Challenges:    map[string]float64{"km_travelled": 12.5},
	}))

	// Second parse cycle: the player lost the challenge progress field
	require.NoError(t, repo.ReplaceSavePlayer(models.SavePlayer{
		SteamID: "76561198000000003",
		Health:  55,
	}))

	p, err := repo.GetSavePlayer("76561198000000003")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 55.0, p.Health)
	assert.Zero(t, p.ZombiesKilled, "replace must not keep stale counters")
	assert.Empty(t, p.Challenges)
}

func TestReplaceSavePlayerIdempotent(t *testing.T) {
	repo := testRepo(t)

	p := models.SavePlayer{
		SteamID:       "76561198000000009",
		Health:        42,
		ZombiesKilled: 7,
		Challenges:    map[string]float64{"km_travelled": 1.5},
	}
	require.NoError(t, repo.ReplaceSavePlayer(p))
	require.NoError(t, repo.ReplaceSavePlayer(p))

	rows, err := repo.SurvivalLeaderboard(100)
	require.NoError(t, err)
	require.Len(t, rows, 1, "double import must not duplicate the row")
	assert.Equal(t, 42.0, rows[0].Health)
	assert.Equal(t, 7, rows[0].ZombiesKilled)
}

func TestGetSavePlayerJoinsIdentityName(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{
		SteamID: "76561198000000004", Name: "Dana",
	}))
	require.NoError(t, repo.ReplaceSavePlayer(models.SavePlayer{
		SteamID: "76561198000000004",
		Challenges: map[string]float64{
			"fish_caught_total": 7,
		},
	}))

	p, err := repo.GetSavePlayer("76561198000000004")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Dana", p.Name)
	assert.Equal(t, 7.0, p.Challenges["fish_caught_total"])

	missing, err := repo.GetSavePlayer("unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLeaderboards(t *testing.T) {
	repo := testRepo(t)

	players := []models.SavePlayer{
		{SteamID: "1", SurvivalDays: 10, ZombiesKilled: 500},
		{SteamID: "2", SurvivalDays: 30, ZombiesKilled: 100},
		{SteamID: "3", SurvivalDays: 20, ZombiesKilled: 300},
	}
	for _, p := range players {
		require.NoError(t, repo.ReplaceSavePlayer(p))
	}

	byDays, err := repo.SurvivalLeaderboard(2)
	require.NoError(t, err)
	require.Len(t, byDays, 2)
	assert.Equal(t, "2", byDays[0].SteamID)
	assert.Equal(t, "3", byDays[1].SteamID)

	byKills, err := repo.KillLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, byKills, 3)
	assert.Equal(t, "1", byKills[0].SteamID)
}

func TestGameStateSingleton(t *testing.T) {
	repo := testRepo(t)

	state, err := repo.GetGameState()
	require.NoError(t, err)
	assert.Nil(t, state, "no row before the first parse")

	require.NoError(t, repo.SetGameState(models.GameState{DaysPassed: 42, SeasonDay: 7, RandomSeed: 1337}))
	require.NoError(t, repo.SetGameState(models.GameState{DaysPassed: 43, SeasonDay: 8, RandomSeed: 1337}))

	state, err = repo.GetGameState()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 43, state.DaysPassed)
	assert.Equal(t, int64(1337), state.RandomSeed)
}

func TestParseMetaRoundTrip(t *testing.T) {
	repo := testRepo(t)

	meta, err := repo.GetParseMeta()
	require.NoError(t, err)
	assert.Nil(t, meta)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, repo.SetParseMeta(models.ParseMeta{
		RunID:         "run-1",
		LastParseTime: now,
		Duration:      90 * time.Second,
		SaveMtime:     now.Add(-time.Minute),
		PlayerCount:   12,
	}))

	meta, err = repo.GetParseMeta()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, 90*time.Second, meta.Duration)
	assert.Equal(t, 12, meta.PlayerCount)
	assert.WithinDuration(t, now, meta.LastParseTime, time.Second)
}

func TestEventsAndPrune(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.AddPlayerCount(3))
	require.NoError(t, repo.AddChatEvent("player_chat", "Alice", "hello"))
	require.NoError(t, repo.AddSessionEvent("Alice", "player_died"))
	require.NoError(t, repo.AddSessionEvent("Bob", "player_joined"))

	samples, err := repo.PlayerCountHistory(time.Hour)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 3, samples[0].Count)

	deaths, err := repo.DeathCount(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deaths)

	// Nothing is old enough to prune yet
	deleted, err := repo.Prune(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// A zero retention window sweeps every event row
	deleted, err = repo.Prune(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	// Identities survive the sweep
	require.NoError(t, repo.UpsertIdentity(models.PlayerIdentity{SteamID: "1", Name: "Kept"}))
	_, err = repo.Prune(-time.Second)
	require.NoError(t, err)
	id, err := repo.GetIdentity("1")
	require.NoError(t, err)
	assert.NotNil(t, id)
}

func TestMigrateAddsColumnsToOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Seed a database predating the kill counter columns
	repo, err := New(path)
	require.NoError(t, err)
	_, err = repo.db.Exec(`DROP TABLE save_players`)
	require.NoError(t, err)
	_, err = repo.db.Exec(`
		CREATE TABLE save_players (
			steam_id      TEXT PRIMARY KEY,
			x             REAL NOT NULL DEFAULT 0,
			y             REAL NOT NULL DEFAULT 0,
			z             REAL NOT NULL DEFAULT 0,
			health        REAL NOT NULL DEFAULT 0,
			hunger        REAL NOT NULL DEFAULT 0,
			thirst        REAL NOT NULL DEFAULT 0,
			stamina       REAL NOT NULL DEFAULT 0,
			infection     REAL NOT NULL DEFAULT 0,
			bites         INTEGER NOT NULL DEFAULT 0,
			survival_days INTEGER NOT NULL DEFAULT 0,
			profession    TEXT NOT NULL DEFAULT '',
			is_male       INTEGER NOT NULL DEFAULT 1,
			updated_at    DATETIME NOT NULL
		)`)
	require.NoError(t, err)
	_, err = repo.db.Exec(`
		INSERT INTO save_players (steam_id, health, updated_at) VALUES ('1', 75, ?)
	`, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening runs the additive migration
	repo, err = New(path)
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	p, err := repo.GetSavePlayer("1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 75.0, p.Health)
	assert.Zero(t, p.ZombiesKilled, "new columns default to zero")
}
