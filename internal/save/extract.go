package save

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoSteamID marks a raw player record without a usable steam id.
var ErrNoSteamID = errors.New("player record has no steam id")

// Save-file property key prefixes. The converter suffixes every key with a
// numeric index, so records are matched by prefix.
const (
	keySteamID    = "SteamID_67_"
	keyTransform  = "PlayerTransform_35_"
	keyHealth     = "CurrentHealth_6_"
	keyHunger     = "CurrentHunger_14_"
	keyThirst     = "CurrentThirst_10_"
	keyStamina    = "CurrentStamina_18_"
	keyInfection  = "CurrentInfection_24_"
	keyBites      = "Bites_29_"
	keyDays       = "DayzSurvived_105_"
	keyProfession = "StartingPerk_94_"
	keyMale       = "Male_59_"
	keyGameStats  = "GameStats_66_"
	keyStatistics = "Statistics_93_"
)

// BuildSummary walks the decoded full-save document and produces the compact
// summary. A malformed per-player record is skipped; the walk never fails as
// a whole. The returned slice of errors carries one entry per skipped player.
func BuildSummary(doc map[string]any) (*Summary, []error) {
	props := childMap(childMap(doc, "root"), "properties")

	var skipped []error
	summary := &Summary{Players: []PlayerSummary{}}

	if rawPlayers, ok := props["DropInSaves_0"].([]any); ok {
		for i, raw := range rawPlayers {
			record, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			player, err := extractPlayer(record)
			if err != nil {
				skipped = append(skipped, fmt.Errorf("player %d: %w", i, err))
				continue
			}
			summary.Players = append(summary.Players, player)
		}
	}

	summary.GameState = GameStateSummary{
		DaysPassed: asInt(props["Dedi_DaysPassed_0"]),
		SeasonDay:  asInt(props["CurrentSeasonDay_0"]),
		RandomSeed: int64(asInt(props["RandomSeed_0"])),
	}
	summary.Meta.PlayerCount = len(summary.Players)

	return summary, skipped
}

// extractPlayer pulls the bounded field set from one raw player record.
func extractPlayer(record map[string]any) (PlayerSummary, error) {
	rawID, _ := findValue(record, keySteamID).(string)
	if rawID == "" {
		return PlayerSummary{}, ErrNoSteamID
	}

	// The id field combines both platform ids: "76561198033176898_+_|eosid"
	steamID := rawID
	if before, _, found := strings.Cut(rawID, "_+_"); found {
		steamID = before
	}

	p := PlayerSummary{
		SteamID:   steamID,
		Health:    asFloat(findValue(record, keyHealth)),
		Hunger:    asFloat(findValue(record, keyHunger)),
		Thirst:    asFloat(findValue(record, keyThirst)),
		Stamina:   asFloat(findValue(record, keyStamina)),
		Infection: asFloat(findValue(record, keyInfection)),
		Bites:     asInt(findValue(record, keyBites)),

		SurvivalDays: asInt(findValue(record, keyDays)),
		IsMale:       asBool(findValue(record, keyMale), true),
	}

	if transform, ok := findValue(record, keyTransform).(map[string]any); ok {
		if translation, ok := transform["Translation_0"].(map[string]any); ok {
			p.X = asFloat(translation["x"])
			p.Y = asFloat(translation["y"])
			p.Z = asFloat(translation["z"])
		}
	}

	// "Enum_Professions::NewEnumerator17" -> "NewEnumerator17"
	if prof, ok := findValue(record, keyProfession).(string); ok {
		if idx := strings.LastIndex(prof, "::"); idx >= 0 {
			prof = prof[idx+2:]
		}
		p.Profession = prof
	}

	stats := extractGameStats(record)
	p.ZombiesKilled = stats["ZeeksKilled"]
	p.Headshots = stats["HeadShot"]
	p.MeleeKills = stats["MeleeKills"]
	p.GunKills = stats["GunKills"]
	p.BlastKills = stats["BlastKills"]
	p.FistKills = stats["FistKills"]
	p.VehicleKills = stats["VehicleKills"]
	p.TakedownKills = stats["TakedownKills"]
	p.FishCaught = stats["CaughtFish"]
	p.TimesBitten = stats["TimesBitten"]

	p.Challenges = extractStatistics(record)

	return p, nil
}

// extractGameStats flattens the GameStats key/value list into a counter map.
func extractGameStats(record map[string]any) map[string]int {
	stats := make(map[string]int)

	items, ok := findValue(record, keyGameStats).([]any)
	if !ok {
		return stats
	}

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if key, ok := item["key"].(string); ok {
			stats[key] = asInt(item["value"])
		}
	}

	return stats
}

// extractStatistics flattens the Statistics list into the named
// challenge-progress map, trimming the common tag prefix.
func extractStatistics(record map[string]any) map[string]float64 {
	items, ok := findValue(record, keyStatistics).([]any)
	if !ok {
		return nil
	}

	challenges := make(map[string]float64)
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		var tag string
		var value float64
		for k, v := range item {
			switch {
			case strings.HasPrefix(k, "StatisticId_"):
				if id, ok := v.(map[string]any); ok {
					tag, _ = id["TagName_0"].(string)
				}
			case strings.HasPrefix(k, "CurrentValue_"):
				value = asFloat(v)
			}
		}

		if tag != "" {
			tag = strings.TrimPrefix(tag, "statistics.stat.")
			challenges[tag] = value
		}
	}

	if len(challenges) == 0 {
		return nil
	}
	return challenges
}

// findValue returns the value of the first key in the record starting with
// the given prefix.
func findValue(record map[string]any, prefix string) any {
	for key, value := range record {
		if strings.HasPrefix(key, prefix) {
			return value
		}
	}
	return nil
}

func childMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func asBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}
