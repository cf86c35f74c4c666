package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.PresenceTTL != 30*time.Second {
		t.Errorf("presence ttl = %v", cfg.PresenceTTL)
	}
	if cfg.TypingTTL != 5*time.Second {
		t.Errorf("typing ttl = %v", cfg.TypingTTL)
	}
	if cfg.PingInterval != 25*time.Second {
		t.Errorf("ping interval = %v", cfg.PingInterval)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("idle timeout = %v", cfg.IdleTimeout)
	}
	if cfg.MaxMessageLen != 4000 {
		t.Errorf("max message len = %d", cfg.MaxMessageLen)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Addr:      ":9090",
		RedisAddr: "redis:6379",
		TypingTTL: 10 * time.Second,
	})

	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.RedisAddr)
	}
	if cfg.TypingTTL != 10*time.Second {
		t.Errorf("typing ttl = %v", cfg.TypingTTL)
	}
	// Zero values leave the existing settings alone.
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("nats url = %q", cfg.NATSURL)
	}
	if cfg.PresenceTTL != 30*time.Second {
		t.Errorf("presence ttl = %v", cfg.PresenceTTL)
	}
}
