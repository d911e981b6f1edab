package rcon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInfo = `Name: My HumanitZ Server
Season: Summer
Weather: Clear
Time: 14:30
FPS: 30
AI: Zombies=135  Human=5 Animal=16
2 connected.
Players:
Alice
Bob
`

func TestParseInfo(t *testing.T) {
	info := parseInfo(sampleInfo)

	assert.Equal(t, "My HumanitZ Server", info.Name)
	assert.Equal(t, "Summer", info.Season)
	assert.Equal(t, "Clear", info.Weather)
	assert.Equal(t, "14:30", info.GameTime)
	assert.Equal(t, 30, info.FPS)
	assert.Equal(t, 135, info.Zombies)
	assert.Equal(t, 5, info.Humans)
	assert.Equal(t, 16, info.Animals)
	assert.Equal(t, 2, info.PlayerCount)
	assert.Equal(t, 50, info.MaxPlayers)
	assert.Equal(t, []string{"Alice", "Bob"}, info.PlayerNames)
	assert.Equal(t, sampleInfo, info.Raw)
}

func TestParseInfoIrregularLines(t *testing.T) {
	info := parseInfo("FPS: not-a-number\ngarbage line\n\nName: X")

	assert.Equal(t, "X", info.Name)
	assert.Zero(t, info.FPS)
	assert.Empty(t, info.PlayerNames)
}

func TestParseInfoCRLF(t *testing.T) {
	info := parseInfo("Name: Y\r\nPlayers:\r\nCarol\r\n")

	assert.Equal(t, "Y", info.Name)
	assert.Equal(t, []string{"Carol"}, info.PlayerNames)
}

func TestParsePlayers(t *testing.T) {
	raw := "Alice (76561198000000001_+_|0002a10186d94a0a9c0b843d9c23f7a1)\n" +
		"name with spaces (76561198000000002_+_|deadbeef)\n" +
		"not a player row\n"

	players := parsePlayers(raw)
	require.Len(t, players, 2)

	assert.Equal(t, "Alice", players[0].Name)
	assert.Equal(t, "76561198000000001", players[0].SteamID)
	assert.Equal(t, "0002a10186d94a0a9c0b843d9c23f7a1", players[0].EosID)

	assert.Equal(t, "name with spaces", players[1].Name)
	assert.Equal(t, "76561198000000002", players[1].SteamID)
}

func TestParsePlayersEmpty(t *testing.T) {
	assert.Empty(t, parsePlayers(""))
	assert.Empty(t, parsePlayers("\n\n"))
}

func TestRetryDelaySchedule(t *testing.T) {
	m := &Manager{}

	assert.Zero(t, m.RetryDelay(), "no failures yet")

	for i, want := range backoffSchedule {
		m.backoffIdx = i + 1
		assert.Equal(t, want, m.RetryDelay())
	}

	// Past the end of the ladder the delay stays capped
	m.backoffIdx = 42
	assert.Equal(t, backoffSchedule[len(backoffSchedule)-1], m.RetryDelay())
}
