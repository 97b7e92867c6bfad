// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Tenant    Tenant    `yaml:"tenant"`
	Render    Render    `yaml:"render"`
	Detail    Detail    `yaml:"detail"`
	Fallback  Fallback  `yaml:"fallback"`
	Output    Output    `yaml:"output"`
	Feed      Feed      `yaml:"feed"`
	Retention Retention `yaml:"retention"`
	Telegram  Telegram  `yaml:"telegram"`
	//Paths
	LogDir string `yaml:"log_dir"`
}

// Tenant is the single Pulse tenancy a run targets.
type Tenant struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ListingURL string `yaml:"listing_url"`
}

type Render struct {
	MinCardThreshold  int           `yaml:"min_card_threshold"`
	HydrationTimeout  time.Duration `yaml:"hydration_timeout"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	ScrollPasses      int           `yaml:"scroll_passes"`
	ScrollDelay       time.Duration `yaml:"scroll_delay"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	Headless          *bool         `yaml:"headless"`
	UserAgent         string        `yaml:"user_agent"`
	CookiesFile       string        `yaml:"cookies_file"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
	CardSelector      string        `yaml:"card_selector"`
	DataContainer     string        `yaml:"data_container"`
}

type Detail struct {
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// MaxJobs caps the candidates sent to the detail stage; 0 means no cap.
	MaxJobs           int           `yaml:"max_jobs"`
}

type Fallback struct {
	// FixturePath is used automatically when the live render fails.
	FixturePath string `yaml:"fixture_path"`
	Disabled    bool   `yaml:"disabled"`
	// ForceFixture skips the live render entirely.
	ForceFixture string `yaml:"force_fixture"`
}

type Output struct {
	Dir      string `yaml:"dir"`
	JSONFile string `yaml:"json_file"`
	CSVFile  string `yaml:"csv_file"`
	XMLFile  string `yaml:"xml_file"`
	FeedFile string `yaml:"feed_file"`
	MetaFile string `yaml:"meta_file"`
}

type Feed struct {
	Window      time.Duration `yaml:"window"`
	Title       string        `yaml:"title"`
	Link        string        `yaml:"link"`
	Description string        `yaml:"description"`
}

type Retention struct {
	// PruneAfter drops records not seen for this long. Zero keeps them forever.
	PruneAfter time.Duration `yaml:"prune_after"`
}

type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether run summaries should be sent.
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Load fills defaults, then reads .env, the YAML file at path and environment overrides.
// A missing .env or YAML file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	// defaults first, so a value the file sets explicitly (even 0) wins
	cfg := &Config{}
	cfg.ApplyDefaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PULSE_LISTING_URL"); v != "" {
		c.Tenant.ListingURL = v
	}
	if v := os.Getenv("PULSE_TENANT_ID"); v != "" {
		c.Tenant.ID = v
	}
	if v := os.Getenv("PULSE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("PULSE_FIXTURE_PATH"); v != "" {
		c.Fallback.FixturePath = v
	}
	if v := os.Getenv("PULSE_DISABLE_FALLBACK"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PULSE_DISABLE_FALLBACK: %w", err)
		}
		c.Fallback.Disabled = disabled
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// ApplyDefaults fills every unset field with the tuning the Ballarat tenancy needs.
func (c *Config) ApplyDefaults() {
	setString(&c.Tenant.ID, "ballarat")
	setString(&c.Tenant.Name, "City of Ballarat")
	setString(&c.Tenant.ListingURL, "https://ballarat.pulsesoftware.com/Pulse/jobs")

	r := &c.Render
	setInt(&r.MinCardThreshold, 15)
	setDuration(&r.HydrationTimeout, 60*time.Second)
	setDuration(&r.PollInterval, 500*time.Millisecond)
	setInt(&r.ScrollPasses, 20)
	setDuration(&r.ScrollDelay, time.Second)
	setDuration(&r.NavigationTimeout, 90*time.Second)
	if r.Headless == nil {
		headless := true
		r.Headless = &headless
	}
	setString(&r.UserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	setString(&r.ScreenshotDir, "logs/screenshots")
	setString(&r.CardSelector, ".row.card-row")
	setString(&r.DataContainer, "#ctl00_ctl00_BodyContainer_BodyContainer_ctl00_JobsList")

	setDuration(&c.Detail.Timeout, 30*time.Second)
	if c.Detail.RequestsPerSecond <= 0 {
		c.Detail.RequestsPerSecond = 1
	}
	setInt(&c.Detail.MaxJobs, 20)

	setString(&c.Fallback.FixturePath, "docs/pulse_fixture.json")

	o := &c.Output
	setString(&o.Dir, "docs")
	setString(&o.JSONFile, "jobs.json")
	setString(&o.CSVFile, "jobs.csv")
	setString(&o.XMLFile, "jobs.xml")
	setString(&o.FeedFile, "rss.xml")
	setString(&o.MetaFile, "dataset.meta.json")

	setDuration(&c.Feed.Window, 30*24*time.Hour)
	setString(&c.Feed.Title, "Victorian Councils Job Feed")
	setString(&c.Feed.Link, "https://bandsight.github.io/vic/")
	setString(&c.Feed.Description, "Latest jobs from Victorian councils.")

	setString(&c.LogDir, "logs")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []string
	if c.Tenant.ListingURL == "" {
		errs = append(errs, "tenant.listing_url is required")
	}
	if c.Render.MinCardThreshold < 0 {
		errs = append(errs, "render.min_card_threshold must be >= 0")
	}
	if c.Render.ScrollPasses < 0 {
		errs = append(errs, "render.scroll_passes must be >= 0")
	}
	if c.Render.PollInterval > c.Render.HydrationTimeout {
		errs = append(errs, "render.poll_interval must not exceed render.hydration_timeout")
	}
	if c.Render.PollInterval <= 0 {
		errs = append(errs, "render.poll_interval must be > 0")
	}
	if c.Detail.RequestsPerSecond <= 0 {
		errs = append(errs, "detail.requests_per_second must be > 0")
	}
	if c.Detail.MaxJobs < 0 {
		errs = append(errs, "detail.max_jobs must be >= 0")
	}
	if c.Retention.PruneAfter < 0 {
		errs = append(errs, "retention.prune_after must be >= 0")
	}
	if c.Feed.Window <= 0 {
		errs = append(errs, "feed.window must be > 0")
	}
	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
