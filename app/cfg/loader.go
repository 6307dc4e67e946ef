package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// ErrHelp is returned when help output was requested and printed.
var ErrHelp = errors.New("help requested")

type rawCfg struct {
	// Source configuration
	ListingURL string `long:"listing-url" env:"LISTING_URL" default:"https://infomemo.theocc.com/infomemo/search" description:"OCC information memo search page"`
	BaseURL    string `long:"base-url" env:"BASE_URL" default:"https://infomemo.theocc.com" description:"Base URL used to resolve relative memo links"`

	// Run configuration
	OutputDir            string   `long:"out" env:"OUT_DIR" default:"./out" description:"Directory for xlsx and csv exports"`
	StatePath            string   `long:"state" env:"STATE_FILE" default:"./occ_last_number.txt" description:"Watermark file holding the highest memo number seen"`
	SincePostedDays      int      `long:"since-posted-days" env:"SINCE_POSTED_DAYS" default:"0" description:"Select memos posted within this many days instead of using the watermark"`
	Include              []string `long:"include" env:"INCLUDE" env-delim:"," default:"reverse" default:"split" default:"name" default:"symbol" default:"merger" description:"Keep memos whose title or subject contains one of these keywords (repeatable)"`
	NoInclude            bool     `long:"no-include" env:"NO_INCLUDE" description:"Disable the include keyword filter"`
	ExcludePastEffective bool     `long:"exclude-past-effective" env:"EXCLUDE_PAST_EFFECTIVE" description:"Drop memos whose effective date is before today"`
	TaxonomyFile         string   `long:"taxonomy-file" env:"TAXONOMY_FILE" description:"YAML file replacing the built-in event taxonomy"`

	// Notification configuration
	SlackWebhook     string `long:"slack-webhook" env:"SLACK_WEBHOOK" description:"Incoming webhook URL for the summary"`
	SlackToken       string `long:"slack-token" env:"SLACK_TOKEN" description:"Slack bot token for Web API posting"`
	SlackChannel     string `long:"slack-channel" env:"SLACK_CHANNEL" description:"Slack channel for Web API posting"`
	SlackUploadFiles bool   `long:"slack-upload-files" env:"SLACK_UPLOAD_FILES" description:"Upload the xlsx and csv exports with the Web API message"`

	// HTTP client configuration
	UserAgent string  `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; memo-comb/1.0)" description:"User agent string for HTTP requests"`
	Timeout   int     `long:"timeout" env:"TIMEOUT" default:"30" description:"Per-request timeout in seconds"`
	Retries   int     `long:"retries" env:"RETRIES" default:"2" description:"Retries for failed requests"`
	Rate      float64 `long:"rate" env:"RATE" default:"2" description:"Maximum requests per second, 0 for unlimited"`

	// Archive and metrics
	DBPath      string `long:"db-path" env:"DB_PATH" description:"SQLite archive of memos and runs (optional in run mode)"`
	MetricsFile string `long:"metrics-file" env:"METRICS_FILE" description:"Write Prometheus metrics to this textfile after each run"`

	// Serve mode
	Serve        bool   `long:"serve" env:"SERVE" description:"Run the HTTP API and the scan scheduler instead of a single scan"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	ScanInterval int    `long:"scan-interval" env:"SCAN_INTERVAL" default:"3600" description:"Seconds between scheduled scans in serve mode, 0 for on demand only"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" description:"Timezone that decides today's date (e.g., UTC, America/Chicago)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the process arguments and environment.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, ErrHelp
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ListingURL:           raw.ListingURL,
		BaseURL:              raw.BaseURL,
		OutputDir:            raw.OutputDir,
		StatePath:            raw.StatePath,
		SincePostedDays:      raw.SincePostedDays,
		Include:              normalizeKeywords(raw.Include),
		ExcludePastEffective: raw.ExcludePastEffective,
		TaxonomyFile:         raw.TaxonomyFile,
		SlackWebhook:         raw.SlackWebhook,
		SlackToken:           raw.SlackToken,
		SlackChannel:         raw.SlackChannel,
		SlackUploadFiles:     raw.SlackUploadFiles,
		UserAgent:            raw.UserAgent,
		Timeout:              time.Duration(raw.Timeout) * time.Second,
		Retries:              raw.Retries,
		Rate:                 raw.Rate,
		DBPath:               raw.DBPath,
		MetricsFile:          raw.MetricsFile,
		Serve:                raw.Serve,
		Port:                 raw.Port,
		ScanInterval:         raw.ScanInterval,
		APIAccessKey:         raw.APIAccessKey,
		Timezone:             raw.Timezone,
		Location:             time.Local,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if raw.NoInclude {
		cfg.Include = nil
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if loc, err := loadTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	} else if loc != nil {
		cfg.Location = loc
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

func validate(cfg *Cfg) error {
	if cfg.SincePostedDays < 0 {
		return fmt.Errorf("--since-posted-days must not be negative, got %d", cfg.SincePostedDays)
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("--retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if cfg.Rate < 0 {
		return fmt.Errorf("--rate must not be negative")
	}
	if cfg.ScanInterval < 0 {
		return fmt.Errorf("--scan-interval must not be negative")
	}
	if cfg.SlackUploadFiles && !cfg.SlackAPIEnabled() {
		return fmt.Errorf("--slack-upload-files requires --slack-token and --slack-channel")
	}
	return nil
}

func normalizeKeywords(keywords []string) []string {
	var result []string
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			result = append(result, k)
		}
	}
	return result
}

func loadTimezone(timezone string) (*time.Location, error) {
	if timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	time.Local = loc
	return loc, nil
}
