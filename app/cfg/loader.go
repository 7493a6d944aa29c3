package cfg

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// firstNonEmpty mirrors cmp.Or for strings; cmp.Or needs Go 1.22 and the
// build toolchain is pinned to 1.21.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return firstNonEmpty(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the database, fingerprint cache and EPG output"`
	DBPath  string `long:"db-path" env:"DB_PATH" description:"SQLite database path (defaults to <data-dir>/teamarr.db)"`

	// Application configuration
	TeamsDir          string `long:"teams-dir" env:"TEAMS_DIR" default:"./teams" description:"Directory containing team configuration files"`
	OutputPath        string `long:"output-path" env:"OUTPUT_PATH" description:"XMLTV output path (defaults to <data-dir>/teamarr.xml)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://epg.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of concurrent workers for team processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Automatic EPG generation interval in seconds"`
	LookaheadDays     int    `long:"lookahead-days" env:"LOOKAHEAD_DAYS" default:"7" description:"Default schedule lookahead window in days"`
	MaxLookaheadDays  int    `long:"max-lookahead-days" env:"MAX_LOOKAHEAD_DAYS" default:"14" description:"Upper bound for per-team lookahead overrides"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Upstream data source
	SportsAPIUrl string `long:"sports-api-url" env:"SPORTS_API_URL" default:"https://site.api.espn.com/apis/site/v2/sports" description:"Base URL of the upstream schedule/statistics API"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-request upstream fetch timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Teamarr/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Display timezone for rendered schedule times (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:           raw.DataDir,
		DBPath:            firstNonEmpty(raw.DBPath, filepath.Join(raw.DataDir, "teamarr.db")),
		TeamsDir:          raw.TeamsDir,
		OutputPath:        firstNonEmpty(raw.OutputPath, filepath.Join(raw.DataDir, "teamarr.xml")),
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		LookaheadDays:     raw.LookaheadDays,
		MaxLookaheadDays:  raw.MaxLookaheadDays,
		APIAccessKey:      raw.APIAccessKey,
		SportsAPIUrl:      raw.SportsAPIUrl,
		FetchTimeout:      raw.FetchTimeout,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if cfg.LookaheadDays > cfg.MaxLookaheadDays {
		cfg.LookaheadDays = cfg.MaxLookaheadDays
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// applyTimezone sets the process display timezone. Storage timestamps stay UTC.
func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
