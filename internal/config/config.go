// Package config holds ircost runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/logging"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/util"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogPath is the workbook read when nothing else is configured.
const DefaultCatalogPath = "equipment_costs.xlsx"

// Config holds all configuration for ircost
type Config struct {
	Catalog CatalogConfig  `yaml:"catalog"`
	Tables  TablesConfig   `yaml:"tables"`
	Report  ReportConfig   `yaml:"report"`
	Server  ServerConfig   `yaml:"server"`
	Wizard  WizardConfig   `yaml:"wizard"`
	Log     logging.Config `yaml:"log"`
}

// CatalogConfig locates the equipment workbook and its columns.
type CatalogConfig struct {
	Path            string `yaml:"path"`
	catalog.Columns `yaml:",inline"`
}

// TablesConfig points to a reference tables file. Empty uses the built-in tables.
type TablesConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Format             string            `yaml:"format"`
	ThousandsSeparator bool              `yaml:"thousands_separator"`
	Currency           string            `yaml:"currency"`
	FontPath           string            `yaml:"font_path"`
	Tags               map[string]string `yaml:"tags"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int           `yaml:"port"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	// SessionIdleTimeout drops sessions left untouched this long. Zero keeps them.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// WizardConfig holds session validation settings
type WizardConfig struct {
	RequireFields bool `yaml:"require_fields"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path:    DefaultCatalogPath,
			Columns: catalog.DefaultColumns(),
		},
		Report: ReportConfig{
			Format: "pdf",
		},
		Server: ServerConfig{
			Port:               8080,
			AllowedOrigins:     []string{"*"},
			SessionIdleTimeout: 30 * time.Minute,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. Environment variables in the
// file are expanded, then IRCOST_* variables override the result. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored; variables already set are kept.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from IRCOST_* environment variables.
func (c *Config) ApplyEnv() {
	c.Catalog.Path = getEnv("IRCOST_CATALOG", c.Catalog.Path)
	c.Catalog.Sheet = getEnv("IRCOST_CATALOG_SHEET", c.Catalog.Sheet)
	c.Tables.Path = getEnv("IRCOST_TABLES", c.Tables.Path)
	c.Report.Format = getEnv("IRCOST_REPORT_FORMAT", c.Report.Format)
	c.Report.FontPath = getEnv("IRCOST_FONT", c.Report.FontPath)
	c.Server.Port = getEnvInt("IRCOST_PORT", c.Server.Port)
	c.Server.SessionIdleTimeout = getEnvDuration("IRCOST_SESSION_IDLE_TIMEOUT", c.Server.SessionIdleTimeout)
	c.Wizard.RequireFields = getEnvBool("IRCOST_REQUIRE_FIELDS", c.Wizard.RequireFields)
	c.Log.Level = getEnv("IRCOST_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("IRCOST_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("IRCOST_LOG_FILE", c.Log.File)

	if origins := os.Getenv("IRCOST_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
}

// Validate checks values that would only fail later at use.
func (c *Config) Validate() error {
	var errs []error

	if c.Catalog.Key == "" {
		errs = append(errs, errors.New("catalog.key_column is required"))
	}
	if c.Catalog.Cost == "" {
		errs = append(errs, errors.New("catalog.cost_column is required"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.SessionIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.session_idle_timeout %s is negative", c.Server.SessionIdleTimeout))
	}
	if _, err := report.Lookup(c.Report.Format, report.Options{}); err != nil {
		errs = append(errs, fmt.Errorf("report.format: %w", err))
	}
	if _, err := util.ParseTagMap(c.Report.Tags); err != nil {
		errs = append(errs, fmt.Errorf("report.tags: %w", err))
	}

	return errors.Join(errs...)
}

// Layout returns the amount formatting of reports.
func (c *Config) Layout() report.Format {
	return report.Format{
		ThousandsSeparator: c.Report.ThousandsSeparator,
		Currency:           c.Report.Currency,
	}
}

// ReportOptions returns the back-end options of reports.
func (c *Config) ReportOptions() (report.Options, error) {
	tags, err := util.ParseTagMap(c.Report.Tags)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{FontPath: c.Report.FontPath, Tags: tags}, nil
}

// SessionOptions returns the validation options of new sessions.
func (c *Config) SessionOptions() session.Options {
	return session.Options{RequireFields: c.Wizard.RequireFields}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
