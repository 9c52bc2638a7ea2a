package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func TestRegisterFlags_Defaults(t *testing.T) {
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cfg.Bind != "0.0.0.0" {
		t.Errorf("Bind = %q, want %q", cfg.Bind, "0.0.0.0")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.LobbyTTL != 30*time.Minute {
		t.Errorf("LobbyTTL = %v, want 30m", cfg.LobbyTTL)
	}
	if cfg.EndedGrace != 5*time.Minute {
		t.Errorf("EndedGrace = %v, want 5m", cfg.EndedGrace)
	}
	if cfg.TabooPenalty != 1.0 {
		t.Errorf("TabooPenalty = %v, want 1.0", cfg.TabooPenalty)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestRegisterFlags_Overrides(t *testing.T) {
	cfg, err := load(t,
		"--port", "3000",
		"--database-url", "postgres://localhost/wordrush",
		"--lobby-ttl", "10m",
		"--taboo-penalty", "0.5",
	)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/wordrush" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LobbyTTL != 10*time.Minute {
		t.Errorf("LobbyTTL = %v, want 10m", cfg.LobbyTTL)
	}
	if cfg.TabooPenalty != 0.5 {
		t.Errorf("TabooPenalty = %v, want 0.5", cfg.TabooPenalty)
	}
}

func TestRegisterFlags_Env(t *testing.T) {
	t.Setenv("WORDRUSH_PORT", "9090")
	t.Setenv("WORDRUSH_TABOO_PENALTY", "2")

	cfg, err := load(t)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from env", cfg.Port)
	}
	if cfg.TabooPenalty != 2 {
		t.Errorf("TabooPenalty = %v, want 2 from env", cfg.TabooPenalty)
	}
}

func TestRegisterFlags_FlagBeatsEnv(t *testing.T) {
	t.Setenv("WORDRUSH_PORT", "9090")

	cfg, err := load(t, "--port", "3000")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want flag value 3000 over env", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"negative penalty", func(c *Config) { c.TabooPenalty = -1 }, true},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := load(t)
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Bind: "127.0.0.1", Port: 8080}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
}
