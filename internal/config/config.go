// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hztools/hzsync/internal/logger"
	"github.com/hztools/hzsync/internal/vars"
	"github.com/jessevdk/go-flags"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	RCON     RCON          `group:"RCON Options" namespace:"rcon" env-namespace:"HZSYNC_RCON"`
	Save     Save          `group:"Save Parsing Options" namespace:"save" env-namespace:"HZSYNC_SAVE"`
	Storage  Storage       `group:"Storage Options" namespace:"db" env-namespace:"HZSYNC_DB"`
	Identity Identity      `group:"Player Identity Options" namespace:"identity" env-namespace:"HZSYNC_IDENTITY"`
	Poll     Poll          `group:"Polling Options" namespace:"poll" env-namespace:"HZSYNC_POLL"`
	Query    SteamQuery    `group:"Steam Query Options" namespace:"a2s" env-namespace:"HZSYNC_A2S"`
	API      API           `group:"Status API Options" namespace:"api" env-namespace:"HZSYNC_API"`
	Logger   logger.Config `group:"Logger Options" namespace:"log" env-namespace:"HZSYNC_LOG"`

	Maintenance Maintenance `group:"Maintenance Options"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// RCON holds game server remote console connection configuration.
type RCON struct {
	// betteralign:ignore

	Host        string        `short:"H" long:"host" env:"HOST" description:"RCON server host" default:"127.0.0.1"`
	Port        int           `short:"P" long:"port" env:"PORT" description:"RCON server port" default:"8888"`
	Password    string        `short:"p" long:"password" env:"PASSWORD" description:"RCON password"`
	DialTimeout time.Duration `long:"dial-timeout" env:"DIAL_TIMEOUT" description:"TCP connect and auth timeout" default:"10s"`
	ReadTimeout time.Duration `long:"read-timeout" env:"READ_TIMEOUT" description:"Response collection timeout per command" default:"3500ms"`
	ExecRate    float64       `long:"exec-rate" env:"EXEC_RATE" description:"Ad-hoc command rate limit per second" default:"1"`
	ExecBurst   int           `long:"exec-burst" env:"EXEC_BURST" description:"Ad-hoc command burst size" default:"3"`
}

// Save holds save-file extraction pipeline configuration.
type Save struct {
	// betteralign:ignore

	FilePath      string        `short:"s" long:"file" env:"FILE_PATH" description:"Path to the dedicated save file (auto-detected if empty)"`
	ConverterBin  string        `long:"converter" env:"CONVERTER" description:"Save to JSON converter binary" default:"uesave"`
	ExtractorBin  string        `long:"extractor" env:"EXTRACTOR" description:"Compact summary extractor binary" default:"hzextract"`
	WorkDir       string        `long:"work-dir" env:"WORK_DIR" description:"Directory for intermediate JSON dumps" default:"/tmp"`
	StageTimeout  time.Duration `long:"stage-timeout" env:"STAGE_TIMEOUT" description:"Wall-clock limit per pipeline stage" default:"120s"`
	ParseInterval time.Duration `long:"interval" env:"INTERVAL" description:"Scheduled parse interval (0 disables)" default:"30m"`
	StaleAfter    time.Duration `long:"stale-after" env:"STALE_AFTER" description:"Age after which query paths re-trigger a parse" default:"1h"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"hzsync.db"`
	Retention     time.Duration `long:"retention" env:"RETENTION" description:"Retention window for counters and event logs" default:"720h"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// Identity holds player identity source file configuration.
type Identity struct {
	// betteralign:ignore

	ConnectedLog string `long:"connected-log" env:"CONNECTED_LOG" description:"Path to PlayerConnectedLog.txt" default:"/home/hzserver/serverfiles/HumanitZServer/PlayerConnectedLog.txt"`
	MappedFile   string `long:"mapped-file" env:"MAPPED_FILE" description:"Path to PlayerIDMapped.txt (defaults to the connected log directory)"`
}

// Poll holds the interval-driven poller configuration.
type Poll struct {
	// betteralign:ignore

	StatusInterval time.Duration `long:"status-interval" env:"STATUS_INTERVAL" description:"Server status and chat poll interval" default:"30s"`
	PruneEvery     int           `long:"prune-every" env:"PRUNE_EVERY" description:"Run retention prune every N status polls" default:"120"`
}

// SteamQuery holds the optional A2S liveness probe configuration.
type SteamQuery struct {
	// betteralign:ignore

	Port       int           `long:"port" env:"PORT" description:"Steam query port for the offline-cause probe (0 disables)" default:"0"`
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
}

// API holds the local status API configuration.
type API struct {
	// betteralign:ignore

	Address   string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Status API listen address (empty disables)" default:"127.0.0.1:8787"`
	AuthToken string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Bearer token for the status API"`
}

// Maintenance holds run-and-exit maintenance flags.
type Maintenance struct {
	// betteralign:ignore

	Prune            bool `long:"prune" description:"Run the retention sweep and exit"`
	ImportIdentities bool `long:"import-identities" description:"Bulk import identities from the log files and exit"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.RCON.Password == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `--rcon-password' or environment variable `HZSYNC_RCON_PASSWORD` was not specified!")
		os.Exit(1)
	}

	return &cfg
}

// MappedFilePath returns the configured PlayerIDMapped.txt path, falling back
// to the directory of the connected log.
func (i Identity) MappedFilePath() string {
	if i.MappedFile != "" {
		return i.MappedFile
	}

	return filepath.Join(filepath.Dir(i.ConnectedLog), "PlayerIDMapped.txt")
}
