package identity

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/models"
)

var (
	// Connect log row: Player Connected NAME NetID(STEAM64_+_|EOSID) (DATE TIME)
	connectLogRe = regexp.MustCompile(
		`^Player (?:Connected|Disconnected) (.+?) NetID\((\d+)_\+_\|([a-fA-F0-9]+)\)`)

	// Connected rows with the trailing timestamp; the year carries a
	// locale thousands separator ("2,026").
	connectTimeRe = regexp.MustCompile(
		`^Player Connected (.+?) NetID\(.+?\) \((\d+/\d+/[\d,]+)\s+(\d+:\d+)\)$`)
)

// tailLines bounds how much of the connect log RecentConnects reads.
const tailLines = 200

// ImportConnectedLog parses the full PlayerConnectedLog file and imports
// every identity it mentions. Later lines override earlier ones, so each
// steam id ends up with the most recently logged name.
func (r *Resolver) ImportConnectedLog(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Player connect log not found")
			return 0, nil
		}
		return 0, err
	}
	defer func() { _ = f.Close() }()

	latest := make(map[string]models.PlayerIdentity)
	order := make([]string, 0, 64)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := connectLogRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		steamID := m[2]
		if _, seen := latest[steamID]; !seen {
			order = append(order, steamID)
		}
		latest[steamID] = models.PlayerIdentity{
			SteamID: steamID,
			Name:    m[1],
			EosID:   m[3],
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	identities := make([]models.PlayerIdentity, 0, len(latest))
	for _, steamID := range order {
		identities = append(identities, latest[steamID])
	}
	r.Update(identities)

	log.Info().
		Int("imported", len(identities)).
		Int("known", r.Known()).
		Msg("Imported identities from connect log")

	return len(identities), nil
}

// ImportMappedFile parses the server-authoritative PlayerIDMapped file.
// Row format: <steam64>_+_|<eosid>@<name>, one player per line.
func (r *Resolver) ImportMappedFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("Player id mapping file not found")
			return 0, nil
		}
		return 0, err
	}
	defer func() { _ = f.Close() }()

	var identities []models.PlayerIdentity

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		idPart, name, ok := strings.Cut(line, "@")
		if !ok || name == "" {
			continue
		}

		steamID, eosID, ok := strings.Cut(idPart, "_+_|")
		if !ok || !isDigits(steamID) {
			continue
		}

		identities = append(identities, models.PlayerIdentity{
			SteamID: steamID,
			Name:    name,
			EosID:   eosID,
		})
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	r.Update(identities)

	log.Info().
		Int("imported", len(identities)).
		Int("known", r.Known()).
		Msg("Imported identities from id mapping file")

	return len(identities), nil
}

// RecentConnects scans the tail of the connect log for the most recent
// Connected timestamp of each named player. Players without a row in the
// tail are omitted.
func RecentConnects(path string, names []string) map[string]time.Time {
	if len(names) == 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Player connect log unavailable")
		return nil
	}
	defer func() { _ = f.Close() }()

	var tail []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tail = append(tail, scanner.Text())
		if len(tail) > tailLines {
			tail = tail[1:]
		}
	}

	remaining := make(map[string]struct{}, len(names))
	for _, n := range names {
		remaining[n] = struct{}{}
	}

	result := make(map[string]time.Time)
	for i := len(tail) - 1; i >= 0 && len(remaining) > 0; i-- {
		line := strings.TrimSpace(tail[i])
		if !strings.HasPrefix(line, "Player Connected ") {
			continue
		}

		m := connectTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		name := m[1]
		if _, want := remaining[name]; !want {
			continue
		}

		// The year is written with a thousands separator: 2,026 -> 2026
		dateStr := strings.ReplaceAll(m[2], ",", "")
		ts, err := time.ParseInLocation("2/1/2006 15:04", dateStr+" "+m[3], time.Local)
		if err != nil {
			log.Warn().Str("date", m[2]).Str("time", m[3]).Msg("Unparseable connect timestamp")
			continue
		}

		result[name] = ts
		delete(remaining, name)
	}

	return result
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
