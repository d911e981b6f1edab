// Package models defines the data structures persisted in the database and
// exposed through the status API.
package models

import "time"

// PlayerIdentity maps a Steam64 id to the last observed display name.
// Identities are reference data and are never pruned.
type PlayerIdentity struct {
	UpdatedAt time.Time `json:"updated_at"`
	SteamID   string    `json:"steam_id"`
	Name      string    `json:"name"`
	EosID     string    `json:"eos_id,omitempty"`
}

// SavePlayer is the compact per-player summary imported from one parse cycle.
// Every field is replaced wholesale on each successful import.
type SavePlayer struct {
	UpdatedAt     time.Time          `json:"updated_at"`
	Challenges    map[string]float64 `json:"challenges,omitempty"`
	SteamID       string             `json:"steam_id"`
	Name          string             `json:"name,omitempty"`
	Profession    string             `json:"profession"`
	X             float64            `json:"x"`
	Y             float64            `json:"y"`
	Z             float64            `json:"z"`
	Health        float64            `json:"health"`
	Hunger        float64            `json:"hunger"`
	Thirst        float64            `json:"thirst"`
	Stamina       float64            `json:"stamina"`
	Infection     float64            `json:"infection"`
	Bites         int                `json:"bites"`
	SurvivalDays  int                `json:"survival_days"`
	ZombiesKilled int                `json:"zombies_killed"`
	Headshots     int                `json:"headshots"`
	MeleeKills    int                `json:"melee_kills"`
	GunKills      int                `json:"gun_kills"`
	BlastKills    int                `json:"blast_kills"`
	FistKills     int                `json:"fist_kills"`
	VehicleKills  int                `json:"vehicle_kills"`
	TakedownKills int                `json:"takedown_kills"`
	FishCaught    int                `json:"fish_caught"`
	TimesBitten   int                `json:"times_bitten"`
	IsMale        bool               `json:"is_male"`
}

// GameState is the singleton world state row extracted from the save file.
type GameState struct {
	UpdatedAt  time.Time `json:"updated_at"`
	DaysPassed int       `json:"days_passed"`
	SeasonDay  int       `json:"season_day"`
	RandomSeed int64     `json:"random_seed"`
}

// ParseMeta is the singleton row describing the most recent parse cycle.
type ParseMeta struct {
	LastParseTime time.Time     `json:"last_parse_time"`
	SaveMtime     time.Time     `json:"save_file_mtime"`
	RunID         string        `json:"run_id"`
	Duration      time.Duration `json:"parse_duration"`
	PlayerCount   int           `json:"player_count"`
}

// PlayerCountSample is one point of the online player count history.
type PlayerCountSample struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// ChatLogEntry is one persisted chat event row.
type ChatLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Player    string    `json:"player_name"`
	Message   string    `json:"message"`
}

// SessionEvent is one persisted join/leave/death row.
type SessionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	Player    string    `json:"player_name"`
	EventType string    `json:"event_type"`
}
