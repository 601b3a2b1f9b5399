package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken   string  `yaml:"bot_token"`
		AdminIDs   []int64 `yaml:"admin_ids"`
		Proxy      string  `yaml:"proxy"`
		MaxRetries int     `yaml:"max_retries"`
	} `yaml:"telegram"`
	Database struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Sheets struct {
		URL             string `yaml:"url"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"sheets"`
	CatalogPath string `yaml:"catalog_path"`
	Schedule    struct {
		SnapshotCron string `yaml:"snapshot_cron"`
		SnapshotFile string `yaml:"snapshot_file"`
		ResyncCron   string `yaml:"resync_cron"`
	} `yaml:"schedule"`
	Broadcast struct {
		Concurrency   int     `yaml:"concurrency"`
		RatePerSecond float64 `yaml:"rate_per_second"`
	} `yaml:"broadcast"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	JoinCode struct {
		Template string `yaml:"template"`
		OffsetX  int    `yaml:"offset_x"`
		OffsetY  int    `yaml:"offset_y"`
		Size     int    `yaml:"size"`
	} `yaml:"join_code"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := ParseAdminIDs(v)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS: %w", err)
		}
		cfg.Telegram.AdminIDs = ids
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Telegram.Proxy = v
	}
	if v := os.Getenv("SHEET_URL"); v != "" {
		cfg.Sheets.URL = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS"); v != "" {
		cfg.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresURL = v
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/database.db"
	}
	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = "creds.json"
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 */5 * * * *"
	}
	if cfg.Schedule.SnapshotFile == "" {
		cfg.Schedule.SnapshotFile = "data/snapshot.json"
	}
	if cfg.Broadcast.Concurrency == 0 {
		cfg.Broadcast.Concurrency = 8
	}
	if cfg.Broadcast.RatePerSecond == 0 {
		cfg.Broadcast.RatePerSecond = 25
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.JoinCode.Size == 0 {
		cfg.JoinCode.Size = 750
	}
	if cfg.JoinCode.OffsetX == 0 && cfg.JoinCode.OffsetY == 0 {
		cfg.JoinCode.OffsetX, cfg.JoinCode.OffsetY = 150, 650
	}

	return cfg, nil
}

// ParseAdminIDs parses a semicolon separated list of chat ids.
func ParseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		return fmt.Errorf("telegram.admin_ids is required")
	}
	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("telegram.max_retries must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("database.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Broadcast.Concurrency < 1 {
		return fmt.Errorf("broadcast.concurrency must be positive")
	}
	if c.Broadcast.RatePerSecond < 0 {
		return fmt.Errorf("broadcast.rate_per_second must not be negative")
	}
	return nil
}
