package storage

import (
	"database/sql"
	"time"

	"github.com/hztools/hzsync/internal/models"
)

// UpsertIdentity stores the last observed name for a steam id. The newest
// observation always wins regardless of which source produced it.
func (r *Repository) UpsertIdentity(id models.PlayerIdentity) error {
	if id.UpdatedAt.IsZero() {
		id.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO player_identity (steam_id, player_name, eos_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			player_name = excluded.player_name,
			eos_id      = CASE WHEN excluded.eos_id != '' THEN excluded.eos_id ELSE player_identity.eos_id END,
			updated_at  = excluded.updated_at
	`, id.SteamID, id.Name, id.EosID, id.UpdatedAt)

	return err
}

// GetIdentity retrieves one identity by steam id, or nil when unknown.
func (r *Repository) GetIdentity(steamID string) (*models.PlayerIdentity, error) {
	row := r.db.QueryRow(`
		SELECT steam_id, player_name, eos_id, updated_at
		FROM player_identity WHERE steam_id = ?
	`, steamID)

	return scanIdentity(row)
}

// FindIdentityByName retrieves one identity by display name. The match is
// case insensitive to mirror the in-memory cache behavior.
func (r *Repository) FindIdentityByName(name string) (*models.PlayerIdentity, error) {
	row := r.db.QueryRow(`
		SELECT steam_id, player_name, eos_id, updated_at
		FROM player_identity WHERE player_name = ? COLLATE NOCASE
	`, name)

	return scanIdentity(row)
}

// AllIdentities returns every known identity, newest first.
func (r *Repository) AllIdentities() ([]models.PlayerIdentity, error) {
	rows, err := r.db.Query(`
		SELECT steam_id, player_name, eos_id, updated_at
		FROM player_identity ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var identities []models.PlayerIdentity
	for rows.Next() {
		var id models.PlayerIdentity
		if err := rows.Scan(&id.SteamID, &id.Name, &id.EosID, &id.UpdatedAt); err != nil {
			continue
		}
		identities = append(identities, id)
	}

	return identities, rows.Err()
}

func scanIdentity(row *sql.Row) (*models.PlayerIdentity, error) {
	var id models.PlayerIdentity
	err := row.Scan(&id.SteamID, &id.Name, &id.EosID, &id.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &id, nil
}
