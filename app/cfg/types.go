package cfg

import "time"

type Cfg struct {
	// Source configuration
	ListingURL string
	BaseURL    string

	// Run configuration
	OutputDir            string
	StatePath            string
	SincePostedDays      int
	Include              []string
	ExcludePastEffective bool
	TaxonomyFile         string

	// Notification configuration
	SlackWebhook     string
	SlackToken       string
	SlackChannel     string
	SlackUploadFiles bool

	// HTTP client configuration
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Rate      float64

	// Archive and metrics
	DBPath      string
	MetricsFile string

	// Serve mode
	Serve        bool
	Port         string
	ScanInterval int
	APIAccessKey string

	// Application metadata
	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}

// LookbackMode reports whether candidates are selected by post date
// instead of by watermark.
func (c *Cfg) LookbackMode() bool {
	return c.SincePostedDays > 0
}

// SlackAPIEnabled reports whether the Web API notifier has what it needs.
func (c *Cfg) SlackAPIEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}
