// hzextract is the isolated extraction subprocess of the save pipeline. It
// loads the full converter JSON dump (hundreds of megabytes), pulls the
// bounded per-player field set plus the game-state record, and writes a
// compact summary JSON. Running this in its own process is deliberate: the
// memory needed for the full document is reclaimed by the OS the moment the
// process exits.
//
// Usage: hzextract <input_json> <output_json>
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/save"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input_json> <output_json>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2]); err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		os.Exit(2)
	}
}

func run(inputPath, outputPath string) error {
	start := time.Now()

	log.Info().Str("path", inputPath).Msg("Loading full save JSON")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	raw = nil // release the raw buffer before building the summary

	log.Info().Dur("elapsed", time.Since(start)).Msg("Full JSON loaded")

	summary, skipped := save.BuildSummary(doc)
	for _, err := range skipped {
		log.Warn().Err(err).Msg("Skipped malformed player record")
	}

	summary.Meta.ExtractTime = float64(time.Now().Unix())
	summary.Meta.ExtractDuration = time.Since(start).Seconds()

	out, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	if err := os.WriteFile(outputPath, out, 0600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info().
		Int("players", len(summary.Players)).
		Int("skipped", len(skipped)).
		Int("bytes", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("Extraction complete")

	return nil
}
