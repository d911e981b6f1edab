package storage

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hztools/hzsync/internal/models"
)

// AddPlayerCount records one online player count sample.
func (r *Repository) AddPlayerCount(count int) error {
	_, err := r.db.Exec(`
		INSERT INTO player_count (id, timestamp, count) VALUES (?, ?, ?)
	`, ulid.Make().String(), time.Now(), count)

	return err
}

// PlayerCountHistory returns the count samples inside the window, oldest
// first.
func (r *Repository) PlayerCountHistory(window time.Duration) ([]models.PlayerCountSample, error) {
	cutoff := time.Now().Add(-window)

	rows, err := r.db.Query(`
		SELECT timestamp, count FROM player_count
		WHERE timestamp >= ? ORDER BY timestamp
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var samples []models.PlayerCountSample
	for rows.Next() {
		var s models.PlayerCountSample
		if err := rows.Scan(&s.Timestamp, &s.Count); err != nil {
			continue
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// AddChatEvent persists one parsed chat event.
func (r *Repository) AddChatEvent(eventType, playerName, message string) error {
	_, err := r.db.Exec(`
		INSERT INTO chat_log (id, timestamp, event_type, player_name, message)
		VALUES (?, ?, ?, ?, ?)
	`, ulid.Make().String(), time.Now(), eventType, playerName, message)

	return err
}

// AddSessionEvent persists one join/leave/death row.
func (r *Repository) AddSessionEvent(playerName, eventType string) error {
	_, err := r.db.Exec(`
		INSERT INTO player_sessions (id, timestamp, player_name, event_type)
		VALUES (?, ?, ?, ?)
	`, ulid.Make().String(), time.Now(), playerName, eventType)

	return err
}

// DeathCount returns the number of player deaths recorded inside the window.
func (r *Repository) DeathCount(window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)

	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM player_sessions
		WHERE event_type = 'player_died' AND timestamp >= ?
	`, cutoff).Scan(&count)

	return count, err
}
