// Package identity reconciles player identity across three asynchronous
// sources of differing freshness: live online-player results, the server's
// historical connect log, and its bulk id-mapping file. The last observed
// name always wins for a steam id, regardless of which source produced it.
package identity

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/models"
	"github.com/hztools/hzsync/internal/storage"
)

// Resolver maintains the steam-id to display-name bidirectional mapping.
// All writes go through the in-memory cache and durable storage together.
type Resolver struct {
	store *storage.Repository

	mu          sync.RWMutex
	steamToName map[string]string
	// nameToSteam is keyed by the xxhash of the lowercased name, so lookups
	// stay case insensitive without holding a second copy of every string.
	nameToSteam map[uint64]string
}

// NewResolver creates a resolver and warms the cache from storage.
func NewResolver(store *storage.Repository) *Resolver {
	r := &Resolver{
		store:       store,
		steamToName: make(map[string]string),
		nameToSteam: make(map[uint64]string),
	}

	identities, err := store.AllIdentities()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load player identities")
		return r
	}

	// AllIdentities is ordered newest first; only the first (newest) name
	// observed per steam id may claim the reverse mapping.
	for _, id := range identities {
		if _, seen := r.steamToName[id.SteamID]; seen {
			continue
		}
		r.steamToName[id.SteamID] = id.Name
		r.nameToSteam[nameKey(id.Name)] = id.SteamID
	}

	log.Info().Int("count", len(r.steamToName)).Msg("Loaded player identities")
	return r
}

// Update records a batch of identities observed from one source. Changing a
// steam id's name invalidates the old name's reverse lookup.
func (r *Resolver) Update(identities []models.PlayerIdentity) {
	for _, id := range identities {
		if id.SteamID == "" || id.Name == "" {
			continue
		}

		r.remember(id)

		if err := r.store.UpsertIdentity(id); err != nil {
			log.Error().Err(err).Str("name", id.Name).Msg("Failed to upsert player identity")
		}
	}

	if len(identities) > 0 {
		log.Debug().Int("count", len(identities)).Msg("Updated player identities")
	}
}

// SteamID resolves a display name to a steam id, case insensitively. Misses
// in the cache fall through to storage and warm the cache on a hit.
func (r *Resolver) SteamID(name string) (string, bool) {
	r.mu.RLock()
	steamID, ok := r.nameToSteam[nameKey(name)]
	r.mu.RUnlock()
	if ok {
		return steamID, true
	}

	id, err := r.store.FindIdentityByName(name)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Identity lookup failed")
		return "", false
	}
	if id == nil {
		return "", false
	}

	r.remember(*id)
	return id.SteamID, true
}

// Name resolves a steam id to the last observed display name.
func (r *Resolver) Name(steamID string) (string, bool) {
	r.mu.RLock()
	name, ok := r.steamToName[steamID]
	r.mu.RUnlock()
	if ok {
		return name, true
	}

	id, err := r.store.GetIdentity(steamID)
	if err != nil {
		log.Error().Err(err).Str("steam_id", steamID).Msg("Identity lookup failed")
		return "", false
	}
	if id == nil {
		return "", false
	}

	r.remember(*id)
	return id.Name, true
}

// Known returns the number of cached identities.
func (r *Resolver) Known() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steamToName)
}

// remember updates the bidirectional cache, dropping the reverse mapping of
// a replaced name.
func (r *Resolver) remember(id models.PlayerIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.steamToName[id.SteamID]; ok && old != id.Name {
		delete(r.nameToSteam, nameKey(old))
	}

	r.steamToName[id.SteamID] = id.Name
	r.nameToSteam[nameKey(id.Name)] = id.SteamID
}

func nameKey(name string) uint64 {
	return xxhash.Sum64String(strings.ToLower(name))
}
