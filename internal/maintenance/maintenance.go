// Package maintenance provides run-and-exit database tasks.
package maintenance

import (
	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/config"
	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	if cfg.Maintenance.Prune {
		log.Info().Dur("retention", cfg.Storage.Retention).Msg("Pruning old rows...")

		count, err := store.Prune(cfg.Storage.Retention)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune rows")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	if cfg.Maintenance.ImportIdentities {
		resolver := identity.NewResolver(store)

		logPath := cfg.Identity.ConnectedLog
		mappedPath := cfg.Identity.MappedFilePath()

		fromLog, err := resolver.ImportConnectedLog(logPath)
		if err != nil {
			log.Error().Err(err).Str("path", logPath).Msg("Failed to import connected log")
		}

		fromMapped, err := resolver.ImportMappedFile(mappedPath)
		if err != nil {
			log.Error().Err(err).Str("path", mappedPath).Msg("Failed to import mapped file")
		}

		log.Info().
			Int("connected_log", fromLog).
			Int("mapped_file", fromMapped).
			Int("known", resolver.Known()).
			Msg("Identity import finished")

		return true
	}

	return false
}
