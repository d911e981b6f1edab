package storage

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS player_identity (
	steam_id    TEXT PRIMARY KEY,
	player_name TEXT NOT NULL,
	eos_id      TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS save_players (
	steam_id        TEXT PRIMARY KEY,
	x               REAL NOT NULL DEFAULT 0,
	y               REAL NOT NULL DEFAULT 0,
	z               REAL NOT NULL DEFAULT 0,
	health          REAL NOT NULL DEFAULT 0,
	hunger          REAL NOT NULL DEFAULT 0,
	thirst          REAL NOT NULL DEFAULT 0,
	stamina         REAL NOT NULL DEFAULT 0,
	infection       REAL NOT NULL DEFAULT 0,
	bites           INTEGER NOT NULL DEFAULT 0,
	survival_days   INTEGER NOT NULL DEFAULT 0,
	profession      TEXT NOT NULL DEFAULT '',
	is_male         INTEGER NOT NULL DEFAULT 1,
	zombies_killed  INTEGER NOT NULL DEFAULT 0,
	headshots       INTEGER NOT NULL DEFAULT 0,
	melee_kills     INTEGER NOT NULL DEFAULT 0,
	gun_kills       INTEGER NOT NULL DEFAULT 0,
	blast_kills     INTEGER NOT NULL DEFAULT 0,
	fist_kills      INTEGER NOT NULL DEFAULT 0,
	vehicle_kills   INTEGER NOT NULL DEFAULT 0,
	takedown_kills  INTEGER NOT NULL DEFAULT 0,
	fish_caught     INTEGER NOT NULL DEFAULT 0,
	times_bitten    INTEGER NOT NULL DEFAULT 0,
	challenges_json TEXT NOT NULL DEFAULT '{}',
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS save_game_state (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	days_passed INTEGER NOT NULL DEFAULT 0,
	season_day  INTEGER NOT NULL DEFAULT 0,
	random_seed INTEGER NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS save_meta (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	run_id          TEXT NOT NULL DEFAULT '',
	last_parse_time DATETIME,
	parse_duration  REAL NOT NULL DEFAULT 0,
	save_file_mtime DATETIME,
	player_count    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS player_count (
	id        TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	count     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_log (
	id          TEXT PRIMARY KEY,
	timestamp   DATETIME NOT NULL,
	event_type  TEXT NOT NULL,
	player_name TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS player_sessions (
	id          TEXT PRIMARY KEY,
	timestamp   DATETIME NOT NULL,
	player_name TEXT NOT NULL,
	event_type  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_player_identity_name ON player_identity(player_name);
CREATE INDEX IF NOT EXISTS idx_save_players_days ON save_players(survival_days DESC);
CREATE INDEX IF NOT EXISTS idx_save_players_kills ON save_players(zombies_killed DESC);
CREATE INDEX IF NOT EXISTS idx_player_count_ts ON player_count(timestamp);
CREATE INDEX IF NOT EXISTS idx_chat_log_ts ON chat_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_player_sessions_ts ON player_sessions(timestamp);
CREATE INDEX IF NOT EXISTS idx_player_sessions_name ON player_sessions(player_name);
`

// saveColumns are the columns added to save_players after its first release.
// Databases created before a column existed get it added in place; data is
// never rewritten or dropped.
var saveColumns = [][2]string{
	{"zombies_killed", "INTEGER NOT NULL DEFAULT 0"},
	{"headshots", "INTEGER NOT NULL DEFAULT 0"},
	{"melee_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"gun_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"blast_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"fist_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"vehicle_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"takedown_kills", "INTEGER NOT NULL DEFAULT 0"},
	{"fish_caught", "INTEGER NOT NULL DEFAULT 0"},
	{"times_bitten", "INTEGER NOT NULL DEFAULT 0"},
	{"challenges_json", "TEXT NOT NULL DEFAULT '{}'"},
}

var metaColumns = [][2]string{
	{"run_id", "TEXT NOT NULL DEFAULT ''"},
}

// migrate brings the schema up to date. Migrations are additive only:
// missing tables are created, missing columns are detected by probing the
// table definition and added in place. Nothing destructive ever runs.
func migrate(db *sql.DB) error {
	// Column additions must run before the CREATE statements so the indexes
	// on new columns can be created against pre-existing tables.
	if err := addMissingColumns(db, "save_players", saveColumns); err != nil {
		return err
	}
	if err := addMissingColumns(db, "save_meta", metaColumns); err != nil {
		return err
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

// addMissingColumns probes the existing table for each wanted column and adds
// the absent ones. A table that does not exist yet is skipped entirely; the
// schema statement creates it in full.
func addMissingColumns(db *sql.DB, table string, wanted [][2]string) error {
	exists, err := tableExists(db, table)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	present, err := tableColumns(db, table)
	if err != nil {
		return err
	}

	for _, col := range wanted {
		if _, ok := present[col[0]]; ok {
			continue
		}

		if _, err := db.Exec(fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s %s", table, col[0], col[1],
		)); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, col[0], err)
		}

		log.Info().Str("table", table).Str("column", col[0]).Msg("Applied schema migration")
	}

	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func tableColumns(db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = struct{}{}
	}

	return cols, rows.Err()
}
