package chat

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Differ tracks successive full snapshots of the chat buffer and yields only
// the lines appended since the previous snapshot. The caller must always feed
// the most recent dump; replaying or reordering snapshots is not supported.
type Differ struct {
	last        []string
	initialized bool
}

// NewDiffer returns an empty differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Update compares a raw buffer dump against the previous snapshot and
// returns the parsed events for the newly appended lines. The first call
// stores the snapshot and returns nothing, so pre-existing history is never
// replayed.
func (d *Differ) Update(raw string) []Event {
	normalized := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")

	var current []string
	for _, line := range strings.Split(normalized, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			current = append(current, trimmed)
		}
	}

	if !d.initialized {
		d.last = current
		d.initialized = true
		log.Debug().Int("lines", len(current)).Msg("Chat differ initialized")
		return nil
	}

	if len(current) == 0 {
		return nil
	}

	newLines := diff(d.last, current)
	d.last = current

	events := make([]Event, 0, len(newLines))
	for _, line := range newLines {
		events = append(events, ParseLine(line))
	}

	return events
}

// diff finds the lines in next that were appended after old. It scans next
// from the tail for an occurrence of old's last line, then verifies the
// candidate anchor by walking backward through both snapshots comparing the
// run of immediately preceding lines; the run is bounded by the shorter
// snapshot. The first verified candidate found scanning from the tail wins.
// Without a verified anchor the whole snapshot is new (buffer rotation).
func diff(old, next []string) []string {
	if len(old) == 0 || len(next) == 0 {
		return next
	}

	lastOld := old[len(old)-1]
	for j := len(next) - 1; j >= 0; j-- {
		if next[j] != lastOld {
			continue
		}

		verified := true
		for k := 1; k < len(old); k++ {
			idx := j - k
			if idx < 0 {
				break
			}
			if old[len(old)-1-k] != next[idx] {
				verified = false
				break
			}
		}

		if verified {
			return next[j+1:]
		}
	}

	log.Debug().Int("lines", len(next)).Msg("No snapshot overlap, treating all lines as new")
	return next
}
