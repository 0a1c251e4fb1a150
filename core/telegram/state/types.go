package state

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and the values collected so far.
type Session struct {
	State     State             `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns a fresh session positioned at st.
func NewSession(st State, now time.Time) *Session {
	return &Session{
		State:     st,
		Data:      make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers can mutate it without touching stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return &out
}

// Expired reports whether the session has been idle for longer than ttl. A zero ttl never expires.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// Store persists sessions by user id.
// Get returns ok=false for unknown or expired sessions.
type Store interface {
	Get(ctx context.Context, userID int64) (sess *Session, ok bool, err error)
	Put(ctx context.Context, userID int64, sess *Session) error
	Delete(ctx context.Context, userID int64) error
	Close() error
}

// Sweeper is implemented by stores that keep expired sessions until they are read.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
)

// Config selects and configures the session backend.
type Config struct {
	Backend     string        `yaml:"backend" envconfig:"STATE_BACKEND"`
	TTL         time.Duration `yaml:"ttl" envconfig:"STATE_TTL"`
	BoltPath    string        `yaml:"bolt_path" envconfig:"STATE_BOLT_PATH"`
	RedisURL    string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" envconfig:"STATE_REDIS_PREFIX"`
}

// Normalize applies defaults and validates backend specific settings.
func (c *Config) Normalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.TTL < 0 {
		return fmt.Errorf("state.ttl must be >= 0")
	}
	switch c.Backend {
	case BackendMemory:
	case BackendBolt:
		if c.BoltPath == "" {
			c.BoltPath = "sessions.db"
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("state.redis_url is required for the redis backend")
		}
		if c.RedisPrefix == "" {
			c.RedisPrefix = "signupbot:session:"
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, bolt, redis", c.Backend)
	}
	return nil
}
