package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hztools/hzsync/internal/models"
)

const savePlayerColumns = `
	p.steam_id, p.x, p.y, p.z, p.health, p.hunger, p.thirst, p.stamina,
	p.infection, p.bites, p.survival_days, p.profession, p.is_male,
	p.zombies_killed, p.headshots, p.melee_kills, p.gun_kills, p.blast_kills,
	p.fist_kills, p.vehicle_kills, p.takedown_kills, p.fish_caught,
	p.times_bitten, p.challenges_json, p.updated_at,
	COALESCE(i.player_name, '')`

// ReplaceSavePlayer writes a full per-player summary row. INSERT OR REPLACE
// is deliberate: every field is overwritten and nothing from a previous parse
// cycle may linger.
func (r *Repository) ReplaceSavePlayer(p models.SavePlayer) error {
	challenges := "{}"
	if len(p.Challenges) > 0 {
		raw, err := json.Marshal(p.Challenges)
		if err != nil {
			return err
		}
		challenges = string(raw)
	}

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO save_players (
			steam_id, x, y, z, health, hunger, thirst, stamina, infection,
			bites, survival_days, profession, is_male,
			zombies_killed, headshots, melee_kills, gun_kills, blast_kills,
			fist_kills, vehicle_kills, takedown_kills, fish_caught, times_bitten,
			challenges_json, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.SteamID, p.X, p.Y, p.Z, p.Health, p.Hunger, p.Thirst, p.Stamina, p.Infection,
		p.Bites, p.SurvivalDays, p.Profession, boolToInt(p.IsMale),
		p.ZombiesKilled, p.Headshots, p.MeleeKills, p.GunKills, p.BlastKills,
		p.FistKills, p.VehicleKills, p.TakedownKills, p.FishCaught, p.TimesBitten,
		challenges, p.UpdatedAt,
	)

	return err
}

// GetSavePlayer retrieves one player summary by steam id, with the display
// name joined from the identity table when one exists. Returns nil when the
// player is unknown.
func (r *Repository) GetSavePlayer(steamID string) (*models.SavePlayer, error) {
	row := r.db.QueryRow(`
		SELECT `+savePlayerColumns+`
		FROM save_players p
		LEFT JOIN player_identity i ON i.steam_id = p.steam_id
		WHERE p.steam_id = ?
	`, steamID)

	p, err := scanSavePlayer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SurvivalLeaderboard returns the top players by survival days.
func (r *Repository) SurvivalLeaderboard(limit int) ([]models.SavePlayer, error) {
	return r.queryLeaderboard(`ORDER BY p.survival_days DESC`, limit)
}

// KillLeaderboard returns the top players by zombie kills.
func (r *Repository) KillLeaderboard(limit int) ([]models.SavePlayer, error) {
	return r.queryLeaderboard(`ORDER BY p.zombies_killed DESC`, limit)
}

func (r *Repository) queryLeaderboard(order string, limit int) ([]models.SavePlayer, error) {
	rows, err := r.db.Query(`
		SELECT `+savePlayerColumns+`
		FROM save_players p
		LEFT JOIN player_identity i ON i.steam_id = p.steam_id
		`+order+` LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var players []models.SavePlayer
	for rows.Next() {
		p, err := scanSavePlayer(rows.Scan)
		if err != nil {
			continue
		}
		players = append(players, *p)
	}

	return players, rows.Err()
}

// SetGameState writes the singleton world state row.
func (r *Repository) SetGameState(s models.GameState) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO save_game_state (id, days_passed, season_day, random_seed, updated_at)
		VALUES (1, ?, ?, ?, ?)
	`, s.DaysPassed, s.SeasonDay, s.RandomSeed, s.UpdatedAt)

	return err
}

// GetGameState retrieves the singleton world state row, or nil before the
// first successful parse.
func (r *Repository) GetGameState() (*models.GameState, error) {
	var s models.GameState
	err := r.db.QueryRow(`
		SELECT days_passed, season_day, random_seed, updated_at
		FROM save_game_state WHERE id = 1
	`).Scan(&s.DaysPassed, &s.SeasonDay, &s.RandomSeed, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// SetParseMeta writes the singleton run-metadata row.
func (r *Repository) SetParseMeta(m models.ParseMeta) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO save_meta (id, run_id, last_parse_time, parse_duration, save_file_mtime, player_count)
		VALUES (1, ?, ?, ?, ?, ?)
	`, m.RunID, m.LastParseTime, m.Duration.Seconds(), m.SaveMtime, m.PlayerCount)

	return err
}

// GetParseMeta retrieves the singleton run-metadata row, or nil before the
// first successful parse.
func (r *Repository) GetParseMeta() (*models.ParseMeta, error) {
	var m models.ParseMeta
	var durationSec float64

	err := r.db.QueryRow(`
		SELECT run_id, last_parse_time, parse_duration, save_file_mtime, player_count
		FROM save_meta WHERE id = 1
	`).Scan(&m.RunID, &m.LastParseTime, &durationSec, &m.SaveMtime, &m.PlayerCount)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	m.Duration = time.Duration(durationSec * float64(time.Second))
	return &m, nil
}

type scanFunc func(dest ...any) error

func scanSavePlayer(scan scanFunc) (*models.SavePlayer, error) {
	var p models.SavePlayer
	var isMale int
	var challenges string

	err := scan(
		&p.SteamID, &p.X, &p.Y, &p.Z, &p.Health, &p.Hunger, &p.Thirst, &p.Stamina,
		&p.Infection, &p.Bites, &p.SurvivalDays, &p.Profession, &isMale,
		&p.ZombiesKilled, &p.Headshots, &p.MeleeKills, &p.GunKills, &p.BlastKills,
		&p.FistKills, &p.VehicleKills, &p.TakedownKills, &p.FishCaught,
		&p.TimesBitten, &challenges, &p.UpdatedAt, &p.Name,
	)
	if err != nil {
		return nil, err
	}

	p.IsMale = isMale != 0
	if challenges != "" && challenges != "{}" {
		// Malformed stored JSON degrades to an empty map
		_ = json.Unmarshal([]byte(challenges), &p.Challenges)
	}

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
