package config

import (
	"os"
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server",
		"-a", ":7070",
		"-d", "postgres://flag/db",
		"-s", "flag-secret",
		"-t", "10",
		"-r", "120",
		"-w", "8",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	if cfg.EndpointAddrHTTP != ":7070" {
		t.Errorf("unexpected address: %s", cfg.EndpointAddrHTTP)
	}
	if cfg.DatabaseDSN != "postgres://flag/db" {
		t.Errorf("unexpected dsn: %s", cfg.DatabaseDSN)
	}
	if cfg.SecretKey != "flag-secret" {
		t.Errorf("unexpected secret: %s", cfg.SecretKey)
	}
	if cfg.AccessTokenValidityDuration != 10*time.Minute {
		t.Errorf("unexpected access ttl: %s", cfg.AccessTokenValidityDuration)
	}
	if cfg.RefreshTokenValidityDuration != 120*time.Minute {
		t.Errorf("unexpected refresh ttl: %s", cfg.RefreshTokenValidityDuration)
	}
	if cfg.BcryptCost != 8 {
		t.Errorf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
}

func TestParseFlags_UnknownFlagsFiltered(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	// flags belonging to other components must not break parsing
	os.Args = []string{"server", "-x", "whatever", "-a", ":6060"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	if cfg.EndpointAddrHTTP != ":6060" {
		t.Errorf("unexpected address: %s", cfg.EndpointAddrHTTP)
	}
}
