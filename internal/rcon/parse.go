package rcon

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Player row: "name (Steam64ID_+_|EOS_ProductUserID)"
	playerRe = regexp.MustCompile(`^(.+?) \((\d+)_\+_\|([a-f0-9]+)\)$`)

	// AI counters: "AI: Zombies=135  Human=5 Animal=16"
	aiRe = regexp.MustCompile(`Zombies=(\d+)\s+Human=(\d+)\s+Animal=(\d+)`)

	connectedRe = regexp.MustCompile(`^(\d+)\s+connected\.`)
)

// parseInfo converts the line-oriented "info" response into a ServerInfo.
// The "Players:" sentinel line switches parsing into the name-list section;
// every non-empty line after it is a player name. Any irregular line degrades
// to a zeroed field instead of failing the whole fetch.
func parseInfo(raw string) *ServerInfo {
	info := &ServerInfo{Raw: raw, MaxPlayers: 50}

	inPlayerSection := false
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		if inPlayerSection {
			info.PlayerNames = append(info.PlayerNames, stripped)
			continue
		}

		switch {
		case strings.HasPrefix(stripped, "Name: "):
			info.Name = stripped[len("Name: "):]
		case stripped == "Players:":
			inPlayerSection = true
		case strings.HasPrefix(stripped, "Season: "):
			info.Season = stripped[len("Season: "):]
		case strings.HasPrefix(stripped, "Weather: "):
			info.Weather = stripped[len("Weather: "):]
		case strings.HasPrefix(stripped, "Time: "):
			info.GameTime = stripped[len("Time: "):]
		case strings.HasPrefix(stripped, "FPS: "):
			if n, err := strconv.Atoi(stripped[len("FPS: "):]); err == nil {
				info.FPS = n
			}
		case strings.HasPrefix(stripped, "AI:"):
			if m := aiRe.FindStringSubmatch(stripped); m != nil {
				info.Zombies, _ = strconv.Atoi(m[1])
				info.Humans, _ = strconv.Atoi(m[2])
				info.Animals, _ = strconv.Atoi(m[3])
			}
		case strings.Contains(stripped, "connected."):
			if m := connectedRe.FindStringSubmatch(stripped); m != nil {
				info.PlayerCount, _ = strconv.Atoi(m[1])
			}
		}
	}

	return info
}

// parsePlayers converts the "Players" response into PlayerInfo rows,
// skipping lines that do not match the expected format.
func parsePlayers(raw string) []PlayerInfo {
	var players []PlayerInfo

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		if m := playerRe.FindStringSubmatch(stripped); m != nil {
			players = append(players, PlayerInfo{
				Name:    m[1],
				SteamID: m[2],
				EosID:   m[3],
			})
		}
	}

	return players
}
