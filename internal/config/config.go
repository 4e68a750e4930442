package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Monitor       MonitorConfig      `toml:"monitor"`
	Productivity  ProductivityConfig `toml:"productivity"`
	Notifications NotifyConfig       `toml:"notifications"`
	Calendar      CalendarConfig     `toml:"calendar"`
}

// MonitorConfig holds the thresholds driving the pause state machine.
// Loaded once per monitor run and immutable thereafter.
type MonitorConfig struct {
	BreaksEnabled            bool `toml:"breaks_enabled"`
	PauseThresholdSeconds    int  `toml:"pause_threshold_seconds"`
	PollIntervalMs           int  `toml:"poll_interval_ms"`
	ActivityThresholdSeconds int  `toml:"activity_threshold_seconds"`
	MinPauseDurationMinutes  int  `toml:"min_pause_duration_minutes"`
}

func (m MonitorConfig) PauseThreshold() time.Duration {
	return time.Duration(m.PauseThresholdSeconds) * time.Second
}

func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMs) * time.Millisecond
}

func (m MonitorConfig) ActivityThreshold() time.Duration {
	return time.Duration(m.ActivityThresholdSeconds) * time.Second
}

// MinPauseDuration is the boundary between short and long pauses
// for productivity accounting.
func (m MonitorConfig) MinPauseDuration() time.Duration {
	return time.Duration(m.MinPauseDurationMinutes) * time.Minute
}

type ProductivityConfig struct {
	MinProductivityThreshold        float64 `toml:"min_productivity_threshold"`
	WorkdayHours                    float64 `toml:"workday_hours"`
	MinBreakDurationMinutes         int     `toml:"min_break_duration_minutes"`
	MaxBreakDurationMinutes         int     `toml:"max_break_duration_minutes"`
	MinWorkdayFractionBeforeSuggest float64 `toml:"min_workday_fraction_before_suggest"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

type CalendarConfig struct {
	Source string `toml:"source"` // ICS URL or file path
}

func DefaultConfig() Config {
	return Config{
		Monitor: MonitorConfig{
			BreaksEnabled:            true,
			PauseThresholdSeconds:    300,
			PollIntervalMs:           1000,
			ActivityThresholdSeconds: 60,
			MinPauseDurationMinutes:  10,
		},
		Productivity: ProductivityConfig{
			MinProductivityThreshold:        70.0,
			WorkdayHours:                    8.0,
			MinBreakDurationMinutes:         10,
			MaxBreakDurationMinutes:         120,
			MinWorkdayFractionBeforeSuggest: 0.5,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

func ConfigDir() (string, error) {
	if dir := os.Getenv("TEMPUS_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tempus"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPUS_CALENDAR_SOURCE"); v != "" {
		cfg.Calendar.Source = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
