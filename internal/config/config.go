package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port     int    `yaml:"port"`
		DataPath string `yaml:"data_path"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"app"`

	Feed struct {
		URL          string `yaml:"url"`
		PollSchedule string `yaml:"poll_schedule"` // cron spec, e.g. "@every 30m"
		FetchTimeout string `yaml:"fetch_timeout"`
	} `yaml:"feed"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Matching struct {
		RecencyWindowDays int `yaml:"recency_window_days"`
		RetentionDays     int `yaml:"retention_days"`
	} `yaml:"matching"`

	Downloads struct {
		SaveDir       string `yaml:"save_dir"`
		QueueSize     int    `yaml:"queue_size"`
		FetchTimeout  string `yaml:"fetch_timeout"`
		MagnetTimeout string `yaml:"magnet_timeout"`
	} `yaml:"downloads"`

	Notifications struct {
		Pushbullet struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"pushbullet"`
	} `yaml:"notifications"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 8085
	cfg.App.DataPath = "./data"
	cfg.App.Debug = false

	cfg.Feed.PollSchedule = "@every 30m"
	cfg.Feed.FetchTimeout = "30s"

	cfg.Database.Path = "./data/showhound.db"

	cfg.Matching.RecencyWindowDays = 3
	cfg.Matching.RetentionDays = 180

	cfg.Downloads.SaveDir = "./downloads"
	cfg.Downloads.QueueSize = 100
	cfg.Downloads.FetchTimeout = "2m"
	cfg.Downloads.MagnetTimeout = "90s"
}

func loadFromEnv(cfg *Config) {
	if port := os.Getenv("SHOWHOUND_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.App.Port = p
		}
	}
	if path := os.Getenv("SHOWHOUND_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if url := os.Getenv("SHOWHOUND_FEED_URL"); url != "" {
		cfg.Feed.URL = url
	}
	if key := os.Getenv("SHOWHOUND_PUSHBULLET_KEY"); key != "" {
		cfg.Notifications.Pushbullet.APIKey = key
	}
}

// RecencyWindow is the trailing span a release's publish time must fall in
// to be eligible for matching.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Matching.RecencyWindowDays) * 24 * time.Hour
}

// Retention is the age past which releases are swept into cold storage.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Matching.RetentionDays) * 24 * time.Hour
}

func (c *Config) FeedFetchTimeout() time.Duration {
	return parseDurationOr(c.Feed.FetchTimeout, 30*time.Second)
}

func (c *Config) DownloadFetchTimeout() time.Duration {
	return parseDurationOr(c.Downloads.FetchTimeout, 2*time.Minute)
}

func (c *Config) MagnetTimeout() time.Duration {
	return parseDurationOr(c.Downloads.MagnetTimeout, 90*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
