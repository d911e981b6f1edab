// Package save orchestrates the save-file extraction pipeline: an external
// binary-to-JSON converter, an isolated extractor subprocess, and the import
// of its compact summary into storage. The full JSON dump is never loaded by
// this process; only the extractor subprocess holds it, and its memory is
// reclaimed when it exits.
package save

// Summary is the compact JSON document produced by the extractor subprocess.
// It is small enough to hold entirely in memory.
type Summary struct {
	GameState GameStateSummary `json:"game_state"`
	Meta      SummaryMeta      `json:"meta"`
	Players   []PlayerSummary  `json:"players"`
}

// PlayerSummary is the bounded per-player field set pulled from the save.
type PlayerSummary struct {
	Challenges    map[string]float64 `json:"challenges,omitempty"`
	SteamID       string             `json:"steam_id"`
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

// GameStateSummary is the small world-state record.
type GameStateSummary struct {
	DaysPassed int   `json:"days_passed"`
	SeasonDay  int   `json:"season_day"`
	RandomSeed int64 `json:"random_seed"`
}

// SummaryMeta describes the extraction run itself.
type SummaryMeta struct {
	PlayerCount     int     `json:"player_count"`
	ExtractTime     float64 `json:"extract_time"`
	ExtractDuration float64 `json:"extract_duration"`
}
