package save

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerRecord(steamID string) map[string]any {
	return map[string]any{
		"SteamID_67_ab12":        steamID,
		"CurrentHealth_6_cd34":   87.5,
		"CurrentHunger_14_ef56":  60.0,
		"CurrentThirst_10_0011":  45.5,
		"CurrentStamina_18_22":   99.0,
		"CurrentInfection_24_x": 12.5,
		"Bites_29_yy":            2.0,
		"DayzSurvived_105_zz":    34.0,
		"Male_59_mm":             false,
		"StartingPerk_94_pp":     "Enum_Professions::Doctor",
		"PlayerTransform_35_tt": map[string]any{
			"Translation_0": map[string]any{
				"x": 100.5, "y": -200.25, "z": 300.0,
			},
		},
		"GameStats_66_gg": []any{
			map[string]any{"key": "ZeeksKilled", "value": 420.0},
			map[string]any{"key": "HeadShot", "value": 99.0},
			map[string]any{"key": "CaughtFish", "value": 7.0},
			map[string]any{"key": "TimesBitten", "value": 3.0},
		},
		"Statistics_93_ss": []any{
			map[string]any{
				"StatisticId_0_aa": map[string]any{"TagName_0": "statistics.stat.km_travelled"},
				"CurrentValue_0":   123.4,
			},
			map[string]any{
				"StatisticId_1_bb": map[string]any{"TagName_0": "items_looted"},
				"CurrentValue_1":   55.0,
			},
		},
	}
}

func fullDoc(players ...map[string]any) map[string]any {
	raw := make([]any, 0, len(players))
	for _, p := range players {
		raw = append(raw, p)
	}

	return map[string]any{
		"root": map[string]any{
			"properties": map[string]any{
				"DropInSaves_0":      raw,
				"Dedi_DaysPassed_0":  128.0,
				"CurrentSeasonDay_0": 16.0,
				"RandomSeed_0":       987654.0,
			},
		},
	}
}

func TestBuildSummary(t *testing.T) {
	summary, skipped := BuildSummary(fullDoc(playerRecord("76561198000000001_+_|aabbccdd")))
	assert.Empty(t, skipped)
	require.Len(t, summary.Players, 1)

	p := summary.Players[0]
	assert.Equal(t, "76561198000000001", p.SteamID, "platform suffix is stripped")
	assert.Equal(t, 87.5, p.Health)
	assert.Equal(t, 60.0, p.Hunger)
	assert.Equal(t, 45.5, p.Thirst)
	assert.Equal(t, 99.0, p.Stamina)
	assert.Equal(t, 12.5, p.Infection)
	assert.Equal(t, 2, p.Bites)
	assert.Equal(t, 34, p.SurvivalDays)
	assert.False(t, p.IsMale)
	assert.Equal(t, "Doctor", p.Profession)
	assert.Equal(t, 100.5, p.X)
	assert.Equal(t, -200.25, p.Y)
	assert.Equal(t, 300.0, p.Z)
	assert.Equal(t, 420, p.ZombiesKilled)
	assert.Equal(t, 99, p.Headshots)
	assert.Equal(t, 7, p.FishCaught)
	assert.Equal(t, 3, p.TimesBitten)
	assert.Equal(t, 123.4, p.Challenges["km_travelled"])
	assert.Equal(t, 55.0, p.Challenges["items_looted"])

	assert.Equal(t, 128, summary.GameState.DaysPassed)
	assert.Equal(t, 16, summary.GameState.SeasonDay)
	assert.Equal(t, int64(987654), summary.GameState.RandomSeed)
	assert.Equal(t, 1, summary.Meta.PlayerCount)
}

func TestBuildSummarySkipsRecordWithoutSteamID(t *testing.T) {
	good := playerRecord("76561198000000002")
	bad := playerRecord("")

	summary, skipped := BuildSummary(fullDoc(bad, good))
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], ErrNoSteamID)

	require.Len(t, summary.Players, 1)
	assert.Equal(t, "76561198000000002", summary.Players[0].SteamID)
	assert.Equal(t, 1, summary.Meta.PlayerCount)
}

func TestBuildSummaryEmptyDocument(t *testing.T) {
	summary, skipped := BuildSummary(map[string]any{})
	assert.Empty(t, skipped)
	assert.Empty(t, summary.Players)
	assert.Zero(t, summary.GameState.DaysPassed)
}

func TestBuildSummaryMissingFieldsDegradeToZero(t *testing.T) {
	record := map[string]any{"SteamID_67_x": "76561198000000003"}

	summary, skipped := BuildSummary(fullDoc(record))
	assert.Empty(t, skipped)
	require.Len(t, summary.Players, 1)

	p := summary.Players[0]
	assert.Zero(t, p.Health)
	assert.True(t, p.IsMale, "sex flag defaults to male when absent")
	assert.Nil(t, p.Challenges)
}
