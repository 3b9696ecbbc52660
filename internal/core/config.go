package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

// Config carries the workspace-level settings read from .boardconfig.
type Config struct {
	// DefaultPriority is applied to tasks created without an explicit priority.
	DefaultPriority models.Priority
	// NotifyTruncate caps comment text embedded in notifications, in runes.
	NotifyTruncate int
	// RoleStatus maps agent roles to the status they pull unassigned work from.
	RoleStatus map[string]models.Status
	// StandupSkipPatterns filters routine activity lines out of standup reports.
	StandupSkipPatterns []string
}

// DefaultConfig returns the settings used when no .boardconfig exists.
func DefaultConfig() *Config {
	return &Config{
		DefaultPriority:     models.P2,
		NotifyTruncate:      100,
		RoleStatus:          DefaultRoleStatus(),
		StandupSkipPatterns: []string{"heartbeat", "checking for work", "polling"},
	}
}

// LoadConfig reads the .boardconfig file from the workspace using Viper.
// Missing file or missing keys fall back to defaults; role overrides merge
// into the default role table rather than replacing it.
func LoadConfig(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".boardconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(workspace)

	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("notify.truncate", cfg.NotifyTruncate)
	v.SetDefault("standup.skip_patterns", cfg.StandupSkipPatterns)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .boardconfig: %w", err)
	}

	cfg.DefaultPriority = models.Priority(v.GetString("defaults.priority"))
	cfg.NotifyTruncate = v.GetInt("notify.truncate")
	cfg.StandupSkipPatterns = v.GetStringSlice("standup.skip_patterns")

	for role, status := range v.GetStringMapString("roles") {
		cfg.RoleStatus[role] = models.Status(status)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the loaded configuration and reports every invalid value.
func (c *Config) validate() error {
	var errs []string

	if !models.ValidPriority(c.DefaultPriority) {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: P0, P1, P2, P3",
			c.DefaultPriority,
		))
	}

	if c.NotifyTruncate <= 0 {
		errs = append(errs, fmt.Sprintf(
			"notify.truncate %d is invalid, must be positive", c.NotifyTruncate,
		))
	}

	for role, status := range c.RoleStatus {
		if !models.ValidStatus(status) {
			errs = append(errs, fmt.Sprintf(
				"roles.%s status %q is not a pipeline status", role, status,
			))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("board config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
