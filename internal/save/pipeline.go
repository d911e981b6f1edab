package save

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/config"
	"github.com/hztools/hzsync/internal/models"
	"github.com/hztools/hzsync/internal/storage"
)

// Standard LGSM install layout, searched when no save path is configured.
const lgsmSaveGlob = "/home/*/serverfiles/HumanitZServer/Saved/SaveGames/SaveList/Default/Save_DedicatedSaveMP.sav"

var (
	// ErrUnavailable means the converter binary or the save file cannot be
	// found. It is a persistent state, checked before every attempt, and is
	// not retried as a failure.
	ErrUnavailable = errors.New("save pipeline unavailable: converter or save file missing")

	// ErrParseInProgress rejects overlapping parse cycles.
	ErrParseInProgress = errors.New("save parse already in progress")
)

// Pipeline runs the three-stage save extraction and owns its scheduling
// state. Stages are strictly sequential; a later stage never starts if an
// earlier one failed, and a failed cycle leaves storage untouched.
type Pipeline struct {
	store *storage.Repository

	savePath      string
	converterPath string
	extractorPath string
	fullJSONPath  string
	compactPath   string
	stageTimeout  time.Duration
	staleAfter    time.Duration

	mu        sync.Mutex
	parsing   bool
	lastParse time.Time
}

// NewPipeline resolves the converter, extractor and save file locations and
// returns a pipeline. Missing pieces leave it in the unavailable state
// rather than failing construction.
func NewPipeline(store *storage.Repository, cfg config.Save) *Pipeline {
	p := &Pipeline{
		store:        store,
		savePath:     resolveSavePath(cfg.FilePath),
		fullJSONPath: filepath.Join(cfg.WorkDir, "hzsync_save.json"),
		compactPath:  filepath.Join(cfg.WorkDir, "hzsync_save_extract.json"),
		stageTimeout: cfg.StageTimeout,
		staleAfter:   cfg.StaleAfter,
	}

	if path, err := exec.LookPath(cfg.ConverterBin); err == nil {
		p.converterPath = path
		log.Info().Str("path", path).Msg("Save converter found")
	} else {
		log.Warn().Str("bin", cfg.ConverterBin).Msg("Save converter not found on PATH")
	}

	p.extractorPath = resolveExtractor(cfg.ExtractorBin)

	return p
}

// resolveSavePath picks the configured save file if it exists, otherwise
// falls back to the conventional install-layout glob.
func resolveSavePath(userPath string) string {
	if userPath != "" {
		if _, err := os.Stat(userPath); err == nil {
			log.Info().Str("path", userPath).Msg("Using configured save file")
			return userPath
		}
		log.Warn().Str("path", userPath).Msg("Configured save file not found")
		return ""
	}

	matches, err := filepath.Glob(lgsmSaveGlob)
	if err != nil || len(matches) == 0 {
		log.Warn().Msg("Save file not found; set the save file path explicitly")
		return ""
	}

	sort.Strings(matches)
	log.Info().Str("path", matches[0]).Msg("Auto-detected save file")
	return matches[0]
}

// resolveExtractor looks for the extractor binary on PATH, then next to the
// running executable.
func resolveExtractor(bin string) string {
	if path, err := exec.LookPath(bin); err == nil {
		return path
	}

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), bin)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	log.Warn().Str("bin", bin).Msg("Extractor binary not found")
	return ""
}

// Available reports whether a parse can be attempted at all.
func (p *Pipeline) Available() bool {
	return p.converterPath != "" && p.extractorPath != "" && p.savePath != ""
}

// Parsing reports whether a cycle is currently running.
func (p *Pipeline) Parsing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parsing
}

// Stale reports whether the last successful parse is older than maxAge.
// Before the first in-process parse the persisted metadata is consulted, so
// freshness survives restarts.
func (p *Pipeline) Stale(maxAge time.Duration) bool {
	p.mu.Lock()
	last := p.lastParse
	p.mu.Unlock()

	if last.IsZero() {
		meta, err := p.store.GetParseMeta()
		if err != nil || meta == nil || meta.LastParseTime.IsZero() {
			return true
		}
		last = meta.LastParseTime

		p.mu.Lock()
		p.lastParse = last
		p.mu.Unlock()
	}

	return time.Since(last) >= maxAge
}

// ShouldRefresh reports whether a query path should dispatch a background
// parse: the pipeline is usable, idle, and its data is past the staleness
// cooldown.
func (p *Pipeline) ShouldRefresh() bool {
	return p.Available() && !p.Parsing() && p.Stale(p.staleAfter)
}

// Parse runs one full extraction cycle: convert, extract, import. Overlap
// is rejected, unavailability is reported without attempting, and any stage
// failure aborts the cycle without mutating stored data.
func (p *Pipeline) Parse(ctx context.Context) error {
	p.mu.Lock()
	if p.parsing {
		p.mu.Unlock()
		log.Warn().Msg("Parse already in progress, skipping")
		return ErrParseInProgress
	}
	p.parsing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.parsing = false
		p.mu.Unlock()
	}()

	if !p.Available() {
		return ErrUnavailable
	}

	runID := uuid.NewString()
	start := time.Now()

	logCtx := log.With().Str("run_id", runID).Logger()
	logCtx.Info().Str("save", p.savePath).Msg("Starting save parse cycle")

	if err := p.runStage(ctx, "convert", p.converterPath,
		"to-json", "--input", p.savePath, "--output", p.fullJSONPath); err != nil {
		return err
	}

	if err := p.runStage(ctx, "extract", p.extractorPath,
		p.fullJSONPath, p.compactPath); err != nil {
		return err
	}

	imported, total, err := p.importSummary()
	if err != nil {
		return fmt.Errorf("import summary: %w", err)
	}

	elapsed := time.Since(start)

	var mtime time.Time
	if fi, err := os.Stat(p.savePath); err == nil {
		mtime = fi.ModTime()
	}

	if err := p.store.SetParseMeta(models.ParseMeta{
		RunID:         runID,
		LastParseTime: time.Now(),
		Duration:      elapsed,
		SaveMtime:     mtime,
		PlayerCount:   imported,
	}); err != nil {
		return fmt.Errorf("store parse meta: %w", err)
	}

	p.mu.Lock()
	p.lastParse = time.Now()
	p.mu.Unlock()

	logCtx.Info().
		Int("imported", imported).
		Int("total", total).
		Dur("elapsed", elapsed).
		Msg("Save parse completed")

	return nil
}

// runStage executes one subprocess under the wall-clock stage timeout. On
// expiry the subprocess is killed and the cycle fails. Output on the
// diagnostic stream is logged, never treated as failure.
func (p *Pipeline) runStage(ctx context.Context, name, bin string, args ...string) error {
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(stageCtx, bin, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stageCtx.Err() == context.DeadlineExceeded {
		log.Error().
			Str("stage", name).
			Dur("timeout", p.stageTimeout).
			Msg("Pipeline stage timed out, subprocess killed")
		return fmt.Errorf("stage %s: timed out after %s", name, p.stageTimeout)
	}

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		log.Error().Err(err).Str("stage", name).Str("stderr", truncate(msg, 500)).Msg("Pipeline stage failed")
		return fmt.Errorf("stage %s: %w", name, err)
	}

	// Converter warnings land on stderr and are expected
	if stderr.Len() > 0 {
		log.Debug().Str("stage", name).Str("stderr", truncate(stderr.String(), 500)).Msg("Stage diagnostics")
	}

	return nil
}

// importSummary loads the compact summary and writes it through storage.
// Each player row is a full replace; a record without a steam id is logged
// and skipped, and the batch continues. Returns (imported, total).
func (p *Pipeline) importSummary() (int, int, error) {
	raw, err := os.ReadFile(p.compactPath)
	if err != nil {
		return 0, 0, err
	}

	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return 0, 0, fmt.Errorf("decode compact summary: %w", err)
	}

	imported := 0
	for _, player := range summary.Players {
		if player.SteamID == "" {
			log.Warn().Msg("Skipping player record without steam id")
			continue
		}

		if err := p.store.ReplaceSavePlayer(toModel(player)); err != nil {
			log.Warn().Err(err).Str("steam_id", player.SteamID).Msg("Failed to import player, skipping")
			continue
		}
		imported++
	}

	if err := p.store.SetGameState(models.GameState{
		DaysPassed: summary.GameState.DaysPassed,
		SeasonDay:  summary.GameState.SeasonDay,
		RandomSeed: summary.GameState.RandomSeed,
	}); err != nil {
		return imported, len(summary.Players), err
	}

	log.Info().
		Int("imported", imported).
		Int("total", len(summary.Players)).
		Msg("Imported players and game state")

	return imported, len(summary.Players), nil
}

func toModel(p PlayerSummary) models.SavePlayer {
	return models.SavePlayer{
		SteamID:       p.SteamID,
		X:             p.X,
		Y:             p.Y,
		Z:             p.Z,
		Health:        p.Health,
		Hunger:        p.Hunger,
		Thirst:        p.Thirst,
		Stamina:       p.Stamina,
		Infection:     p.Infection,
		Bites:         p.Bites,
		SurvivalDays:  p.SurvivalDays,
		Profession:    p.Profession,
		IsMale:        p.IsMale,
		ZombiesKilled: p.ZombiesKilled,
		Headshots:     p.Headshots,
		MeleeKills:    p.MeleeKills,
		GunKills:      p.GunKills,
		BlastKills:    p.BlastKills,
		FistKills:     p.FistKills,
		VehicleKills:  p.VehicleKills,
		TakedownKills: p.TakedownKills,
		FishCaught:    p.FishCaught,
		TimesBitten:   p.TimesBitten,
		Challenges:    p.Challenges,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
