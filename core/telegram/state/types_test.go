package state

import (
	"testing"
	"time"
)

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Backend: " Bolt "}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Backend != BackendBolt || cfg.BoltPath != "sessions.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	empty := Config{}
	if err := empty.Normalize(); err != nil || empty.Backend != BackendMemory {
		t.Fatalf("empty config: backend=%q err=%v", empty.Backend, err)
	}

	bad := []Config{
		{Backend: "etcd"},
		{Backend: BackendRedis},
		{TTL: -time.Second},
	}
	for _, c := range bad {
		c := c
		if err := c.Normalize(); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := NewSession("await_email", now.Add(-2*time.Hour))
	if s.Expired(0, now) {
		t.Fatal("zero ttl must never expire")
	}
	if !s.Expired(time.Hour, now) {
		t.Fatal("expected expiry after ttl")
	}
	if s.Expired(3*time.Hour, now) {
		t.Fatal("unexpected expiry before ttl")
	}
}

func TestRedisKeyUsesPrefix(t *testing.T) {
	s := &redisStore{prefix: "signupbot:session:"}
	if got := s.key(123); got != "signupbot:session:123" {
		t.Fatalf("key = %q", got)
	}
}
