package save

import (
	"github.com/hztools/hzsync/internal/models"
)

// Read API used by the presentation layer. All methods are read-only; a
// missing row is reported as nil, never as an error, so callers can render a
// distinct "no data" state. Triggering a parse is a separate explicit call.

// GetPlayer returns the stored summary for one steam id, or nil.
func (p *Pipeline) GetPlayer(steamID string) (*models.SavePlayer, error) {
	return p.store.GetSavePlayer(steamID)
}

// GetLeaderboard returns the top players by survival days.
func (p *Pipeline) GetLeaderboard(limit int) ([]models.SavePlayer, error) {
	return p.store.SurvivalLeaderboard(limit)
}

// GetKillLeaderboard returns the top players by zombie kills.
func (p *Pipeline) GetKillLeaderboard(limit int) ([]models.SavePlayer, error) {
	return p.store.KillLeaderboard(limit)
}

// GetGameState returns the singleton world state, or nil before the first
// successful parse.
func (p *Pipeline) GetGameState() (*models.GameState, error) {
	return p.store.GetGameState()
}

// GetParseMeta returns the metadata of the most recent parse cycle, or nil.
func (p *Pipeline) GetParseMeta() (*models.ParseMeta, error) {
	return p.store.GetParseMeta()
}
