// Package config loads meetme's settings from a file, the environment and
// command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beekhof/meetme/internal/datetime"
)

// Providers.
const (
	ProviderGoogle = "google"
	ProviderCalDAV = "caldav"
)

// Defaults applied when no source sets a value.
const (
	DefaultDayStart          = "8am"
	DefaultDayEnd            = "5pm"
	DefaultRequestsPerSecond = 5.0
	DefaultSessionTTL        = "24h"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
)

// Config holds the configuration for the agenda tool.
type Config struct {
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=google caldav"`

	// Google Calendar
	GoogleCredentialsPath string `json:"google_credentials_path,omitempty" yaml:"google_credentials_path,omitempty" validate:"required_if=Provider google"`
	TokenPath             string `json:"token_path,omitempty" yaml:"token_path,omitempty" validate:"required_if=Provider google"`

	// CalDAV
	CalDAVURL      string `json:"caldav_url,omitempty" yaml:"caldav_url,omitempty" validate:"required_if=Provider caldav,omitempty,url"`
	CalDAVUsername string `json:"caldav_username,omitempty" yaml:"caldav_username,omitempty" validate:"required_if=Provider caldav"`
	CalDAVPassword string `json:"caldav_password,omitempty" yaml:"caldav_password,omitempty" validate:"required_if=Provider caldav"`
	CalDAVBasePath string `json:"caldav_base_path,omitempty" yaml:"caldav_base_path,omitempty"`

	// Calendars selected when none are given on the command line.
	Calendars []string `json:"calendars,omitempty" yaml:"calendars,omitempty"`

	Timezone          string  `json:"timezone,omitempty" yaml:"timezone,omitempty" validate:"omitempty,timezone"`
	DayStart          string  `json:"day_start,omitempty" yaml:"day_start,omitempty" validate:"timeofday"`
	DayEnd            string  `json:"day_end,omitempty" yaml:"day_end,omitempty" validate:"timeofday"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"gte=0"`
	SessionTTL        string  `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty" validate:"duration"`

	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
}

// Flags carries command-line values. Empty fields leave lower layers alone.
type Flags struct {
	Provider              string
	GoogleCredentialsPath string
	TokenPath             string
	Timezone              string
	DayStart              string
	DayEnd                string
	LogLevel              string
	Calendars             []string
}

// LoadConfigFromFile loads configuration from a JSON or YAML file. The
// format follows the extension; anything but .yaml and .yml is JSON.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadConfig loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file
// 4. Defaults
// The result is validated; every problem found is reported in one error.
func LoadConfig(configFile string, flags Flags) (*Config, error) {
	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	// Step 3: Override with command-line flags (highest priority)
	config.applyFlags(flags)

	// Step 4: Apply defaults and validate
	config.applyDefaults()
	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"MEETME_PROVIDER":         &c.Provider,
		"GOOGLE_CREDENTIALS_PATH": &c.GoogleCredentialsPath,
		"MEETME_TOKEN_PATH":       &c.TokenPath,
		"CALDAV_URL":              &c.CalDAVURL,
		"CALDAV_USERNAME":         &c.CalDAVUsername,
		"CALDAV_PASSWORD":         &c.CalDAVPassword,
		"CALDAV_BASE_PATH":        &c.CalDAVBasePath,
		"MEETME_TIMEZONE":         &c.Timezone,
		"MEETME_DAY_START":        &c.DayStart,
		"MEETME_DAY_END":          &c.DayEnd,
		"MEETME_SESSION_TTL":      &c.SessionTTL,
		"LOG_LEVEL":               &c.LogLevel,
		"LOG_FORMAT":              &c.LogFormat,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("MEETME_CALENDARS"); v != "" {
		c.Calendars = splitList(v)
	}
	if v := os.Getenv("MEETME_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MEETME_REQUESTS_PER_SECOND value: %w", err)
		}
		c.RequestsPerSecond = rps
	}
	return nil
}

func (c *Config) applyFlags(f Flags) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Provider, f.Provider)
	set(&c.GoogleCredentialsPath, f.GoogleCredentialsPath)
	set(&c.TokenPath, f.TokenPath)
	set(&c.Timezone, f.Timezone)
	set(&c.DayStart, f.DayStart)
	set(&c.DayEnd, f.DayEnd)
	set(&c.LogLevel, f.LogLevel)
	if len(f.Calendars) > 0 {
		c.Calendars = f.Calendars
	}
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderGoogle
	}
	if c.TokenPath == "" && c.Provider == ProviderGoogle {
		if dir, err := os.UserConfigDir(); err == nil {
			c.TokenPath = filepath.Join(dir, "meetme", "token.json")
		}
	}
	if c.DayStart == "" {
		c.DayStart = DefaultDayStart
	}
	if c.DayEnd == "" {
		c.DayEnd = DefaultDayEnd
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.SessionTTL == "" {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Location is the configured zone, or time.Local when none is set.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window is the default daily time window in loc.
func (c *Config) Window(loc *time.Location) (datetime.TimeWindow, error) {
	begin, err := datetime.InterpretTime(c.DayStart, loc)
	if err != nil {
		return datetime.TimeWindow{}, err
	}
	end, err := datetime.InterpretTime(c.DayEnd, loc)
	if err != nil {
		return datetime.TimeWindow{}, err
	}
	return datetime.TimeWindow{Begin: begin, End: end}, nil
}

// TTL is the parsed session lifetime.
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
