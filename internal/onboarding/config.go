package onboarding

import (
	"fmt"
	"strings"
)

const (
	DefaultMinSecretLen = 8
	DefaultMinAge       = 18
)

// Config holds the deployment knobs of the signup flow.
type Config struct {
	MinSecretLen        int    `yaml:"min_secret_len" envconfig:"ONBOARDING_MIN_SECRET_LEN"`
	SecretRequireAlnum  bool   `yaml:"secret_require_alnum" envconfig:"ONBOARDING_SECRET_REQUIRE_ALNUM"`
	ExtendedProfile     bool   `yaml:"extended_profile" envconfig:"ONBOARDING_EXTENDED_PROFILE"`
	MinAge              int    `yaml:"min_age" envconfig:"ONBOARDING_MIN_AGE"`
	PaymentInstructions string `yaml:"payment_instructions" envconfig:"ONBOARDING_PAYMENT_INSTRUCTIONS"`
	// HashSecret stores an argon2id hash instead of the secret itself.
	HashSecret bool `yaml:"hash_secret" envconfig:"ONBOARDING_HASH_SECRET"`
}

// Normalize fills defaults and rejects impossible thresholds.
func (c *Config) Normalize() error {
	if c.MinSecretLen < 0 {
		return fmt.Errorf("onboarding.min_secret_len must be >= 0")
	}
	if c.MinSecretLen == 0 {
		c.MinSecretLen = DefaultMinSecretLen
	}
	if c.MinAge < 0 {
		return fmt.Errorf("onboarding.min_age must be >= 0")
	}
	if c.MinAge == 0 {
		c.MinAge = DefaultMinAge
	}
	c.PaymentInstructions = strings.TrimSpace(c.PaymentInstructions)
	return nil
}

// Policy projects the validation related settings.
func (c Config) Policy() Policy {
	return Policy{
		MinSecretLen:       c.MinSecretLen,
		SecretRequireAlnum: c.SecretRequireAlnum,
		ExtendedProfile:    c.ExtendedProfile,
		MinAge:             c.MinAge,
	}
}

// Policy controls which steps run and how answers are validated.
type Policy struct {
	MinSecretLen       int
	SecretRequireAlnum bool
	ExtendedProfile    bool
	MinAge             int
}

func (p Policy) withDefaults() Policy {
	if p.MinSecretLen <= 0 {
		p.MinSecretLen = DefaultMinSecretLen
	}
	if p.MinAge <= 0 {
		p.MinAge = DefaultMinAge
	}
	return p
}
