package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/signupbot/core/config"
	coredatabase "github.com/m3rciful/signupbot/core/database"
	"github.com/m3rciful/signupbot/core/telegram/state"
	"github.com/m3rciful/signupbot/internal/notify"
	"github.com/m3rciful/signupbot/internal/onboarding"
)

// Config is the full bot configuration: the reusable core sections plus the signup specific ones.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database   coredatabase.Config `yaml:"database"`
	State      state.Config        `yaml:"state"`
	Onboarding onboarding.Config   `yaml:"onboarding"`
	Notify     notify.Config       `yaml:"notify"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates every section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates all sections and fills their defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if err := c.State.Normalize(); err != nil {
		return err
	}
	if err := c.Onboarding.Normalize(); err != nil {
		return err
	}
	if err := c.Notify.Normalize(); err != nil {
		return err
	}
	if c.Notify.Admin && c.Telegram.AdminID == 0 {
		return fmt.Errorf("notify.admin requires telegram.admin_id")
	}
	return nil
}
