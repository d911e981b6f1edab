// Package fake provides utilities for generating random player data for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/models"
	"github.com/hztools/hzsync/internal/storage"
)

// GenerateData populates the storage with a specified number of randomized
// players: identities, save summaries and a sprinkle of chat history.
func GenerateData(store *storage.Repository, count int) {
	names := []string{"Hunter", "Nomad", "Doc", "Ranger", "Crow", "Maverick", "Ash", "Scout", "Bolt", "Fox"}
	professions := []string{"Doctor", "Mechanic", "Soldier", "Farmer", "Chef", "Carpenter"}
	messages := []string{"anyone near the gas station?", "need a ride", "base is done", "watch the horde east", "gg"}

	for i := 0; i < count; i++ {
		steamID := fmt.Sprintf("7656119%010d", rand.Intn(1_000_000_000))
		name := fmt.Sprintf("%s_%d", names[rand.Intn(len(names))], rand.Intn(1000))

		identity := models.PlayerIdentity{
			SteamID: steamID,
			Name:    name,
			EosID:   fmt.Sprintf("%032x", rand.Uint64()),
		}
		if err := store.UpsertIdentity(identity); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake identity")
			continue
		}

		zombies := rand.Intn(2000)
		headshots := rand.Intn(zombies + 1)

		player := models.SavePlayer{
			SteamID:       steamID,
			X:             rand.Float64()*400000 - 200000,
			Y:             rand.Float64()*400000 - 200000,
			Z:             rand.Float64() * 5000,
			Health:        rand.Float64() * 100,
			Hunger:        rand.Float64() * 100,
			Thirst:        rand.Float64() * 100,
			Stamina:       rand.Float64() * 100,
			Infection:     rand.Float64() * 30,
			Bites:         rand.Intn(5),
			SurvivalDays:  rand.Intn(200),
			Profession:    professions[rand.Intn(len(professions))],
			IsMale:        rand.Float32() < 0.7,
			ZombiesKilled: zombies,
			Headshots:     headshots,
			MeleeKills:    rand.Intn(zombies + 1),
			GunKills:      rand.Intn(zombies + 1),
			FistKills:     rand.Intn(50),
			BlastKills:    rand.Intn(20),
			VehicleKills:  rand.Intn(30),
			TakedownKills: rand.Intn(40),
			FishCaught:    rand.Intn(100),
			TimesBitten:   rand.Intn(10),
			Challenges: map[string]float64{
				"km_travelled": rand.Float64() * 500,
				"items_looted": float64(rand.Intn(5000)),
			},
		}
		if err := store.ReplaceSavePlayer(player); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake player")
			continue
		}

		if rand.Float32() < 0.5 {
			msg := messages[rand.Intn(len(messages))]
			_ = store.AddChatEvent("player_chat", name, msg)
		}
		if rand.Float32() < 0.3 {
			_ = store.AddSessionEvent(name, "player_joined")
		}
	}

	// A day of player count samples so the history endpoint has a curve
	for i := 0; i < 48; i++ {
		_ = store.AddPlayerCount(rand.Intn(20))
	}

	if err := store.SetGameState(models.GameState{
		DaysPassed: rand.Intn(365),
		SeasonDay:  rand.Intn(28),
		RandomSeed: rand.Int63(),
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to generate fake game state")
	}

	log.Info().Int("count", count).Msg("Fake data generated")
}
