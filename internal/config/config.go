package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the daemon
type Config struct {
	// HTTP intake/status surface.
	BindAddress string `yaml:"bind_address" env:"NOMADACHI_BIND_ADDRESS"`
	Port        int    `yaml:"port" env:"NOMADACHI_PORT"`

	// Progression state persistence.
	DataPath       string `yaml:"data_path" env:"NOMADACHI_DATA_PATH"`
	LegacyPath     string `yaml:"legacy_path" env:"NOMADACHI_LEGACY_PATH"`
	MigrateFromAge bool   `yaml:"migrate_from_age" env:"NOMADACHI_MIGRATE_FROM_AGE"`
	// SaveDebounceMS coalesces bursts of awards into one write. Zero
	// saves synchronously after every award.
	SaveDebounceMS int `yaml:"save_debounce_ms" env:"NOMADACHI_SAVE_DEBOUNCE_MS"`

	// Discovery journal.
	JournalPath          string `yaml:"journal_path" env:"NOMADACHI_JOURNAL_PATH"`
	JournalRetentionDays int    `yaml:"journal_retention_days" env:"NOMADACHI_JOURNAL_RETENTION_DAYS"`

	// Place resolution.
	TravelGrid        float64  `yaml:"travel_grid" env:"NOMADACHI_TRAVEL_GRID"`
	StrictNoGPSPlaces bool     `yaml:"strict_nogps_places" env:"NOMADACHI_STRICT_NOGPS_PLACES"`
	GPSPaths          []string `yaml:"gps_paths" env:"NOMADACHI_GPS_PATHS" envSeparator:","`
	// GPSMaxAgeSec rejects fix files older than this. Zero trusts any
	// present file.
	GPSMaxAgeSec int `yaml:"gps_max_age_sec" env:"NOMADACHI_GPS_MAX_AGE_SEC"`

	// XP tuning.
	XP XPConfig `yaml:"xp" envPrefix:"NOMADACHI_XP_"`

	// Display.
	Format string         `yaml:"format" env:"NOMADACHI_FORMAT"`
	Titles map[int]string `yaml:"titles"`
	UI     UIConfig       `yaml:"ui" envPrefix:"NOMADACHI_UI_"`

	// Maintenance cadence, standard 5-field cron expressions.
	FlushSchedule   string `yaml:"flush_schedule" env:"NOMADACHI_FLUSH_SCHEDULE"`
	CleanupSchedule string `yaml:"cleanup_schedule" env:"NOMADACHI_CLEANUP_SCHEDULE"`
}

// XPConfig is the award granted per first-time encounter in each category
type XPConfig struct {
	ESSID int `yaml:"essid" env:"ESSID"`
	BSSID int `yaml:"bssid" env:"BSSID"`
	OUI   int `yaml:"oui" env:"OUI"`
	Band  int `yaml:"band" env:"BAND"`
	Place int `yaml:"place" env:"PLACE"`
}

// UIConfig places the status line and progress bar on the host display.
// ProgressX and ProgressY default to one row above the status line.
type UIConfig struct {
	X             int    `yaml:"x" env:"X"`
	Y             int    `yaml:"y" env:"Y"`
	ShowProgress  bool   `yaml:"show_progress" env:"SHOW_PROGRESS"`
	ProgressX     *int   `yaml:"progress_x" env:"PROGRESS_X"`
	ProgressY     *int   `yaml:"progress_y" env:"PROGRESS_Y"`
	ProgressCells int    `yaml:"progress_cells" env:"PROGRESS_CELLS"`
	ProgressFill  string `yaml:"progress_fill" env:"PROGRESS_FILL"`
}

// Default returns the compiled-in configuration
func Default() *Config {
	return &Config{
		BindAddress:    "127.0.0.1",
		Port:           8675,
		DataPath:       "/root/pwn_traveler.json",
		LegacyPath:     "/root/age_strength.json",
		MigrateFromAge: true,
		SaveDebounceMS: 0,

		JournalPath:          "/root/nomadachi_journal.db",
		JournalRetentionDays: 90,

		TravelGrid:        0.01,
		StrictNoGPSPlaces: true,
		GPSPaths: []string{
			"/tmp/pwnagotchi-gps.json",
			"/tmp/gps.json",
			"/root/.pwnagotchi-gps.json",
			"/var/run/pwnagotchi/gps.json",
		},
		GPSMaxAgeSec: 0,

		XP: XPConfig{ESSID: 2, BSSID: 1, OUI: 1, Band: 2, Place: 10},

		Format: "{title} ({places}pl)",
		UI: UIConfig{
			X:             10,
			Y:             118,
			ShowProgress:  true,
			ProgressCells: 5,
			ProgressFill:  "▥",
		},

		FlushSchedule:   "*/5 * * * *",
		CleanupSchedule: "0 3 * * *",
	}
}

// Load builds the effective configuration: compiled defaults, overlaid
// with the YAML file at path when one exists, then NOMADACHI_* environment
// variables on top. A missing file is not an error; a file that does not
// parse is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes derived fields and rejects values the rest of the
// daemon cannot work with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return errors.New("data_path must not be empty")
	}
	if c.TravelGrid <= 0 {
		return fmt.Errorf("travel_grid must be positive, got %v", c.TravelGrid)
	}
	if c.XP.ESSID < 0 || c.XP.BSSID < 0 || c.XP.OUI < 0 || c.XP.Band < 0 || c.XP.Place < 0 {
		return errors.New("xp weights must not be negative")
	}
	if strings.TrimSpace(c.Format) == "" {
		return errors.New("format must not be empty")
	}
	for threshold := range c.Titles {
		if threshold < 0 {
			return fmt.Errorf("title threshold %d must not be negative", threshold)
		}
	}
	if c.SaveDebounceMS < 0 {
		return errors.New("save_debounce_ms must not be negative")
	}
	if c.JournalRetentionDays < 0 {
		return errors.New("journal_retention_days must not be negative")
	}
	if c.GPSMaxAgeSec < 0 {
		return errors.New("gps_max_age_sec must not be negative")
	}
	if c.UI.ProgressCells < 1 {
		return fmt.Errorf("ui.progress_cells must be at least 1, got %d", c.UI.ProgressCells)
	}

	if c.UI.ProgressX == nil {
		x := c.UI.X
		c.UI.ProgressX = &x
	}
	if c.UI.ProgressY == nil {
		y := c.UI.Y - 10
		if y < 0 {
			y = 0
		}
		c.UI.ProgressY = &y
	}
	if c.UI.ProgressFill == "" {
		c.UI.ProgressFill = "▥"
	}
	return nil
}

// FillRune returns the progress bar fill character. Longer configured
// strings contribute their first rune only.
func (c *Config) FillRune() rune {
	for _, r := range c.UI.ProgressFill {
		return r
	}
	return '▥'
}

// Addr returns the listen address for the HTTP surface
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}
