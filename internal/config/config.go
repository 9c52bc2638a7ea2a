package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds everything the server reads at startup. Values come from flags
// with WORDRUSH_-prefixed environment variables as fallback.
type Config struct {
	Bind        string
	Port        int
	DatabaseURL string

	LobbyTTL      time.Duration
	EndedGrace    time.Duration
	SweepInterval time.Duration
	TabooPenalty  float64

	Verbose bool
}

// RegisterFlags declares the flag set and wires viper env binding so that each
// flag falls back to WORDRUSH_<NAME> when unset on the command line.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("WORDRUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDRUSH_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: WORDRUSH_PORT)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL DSN for game history; empty disables persistence (env: WORDRUSH_DATABASE_URL)")
	fs.DurationVar(&c.LobbyTTL, "lobby-ttl", 30*time.Minute, "time before idle lobby rooms are closed (env: WORDRUSH_LOBBY_TTL)")
	fs.DurationVar(&c.EndedGrace, "ended-grace", 5*time.Minute, "time finished rooms linger before their code recycles (env: WORDRUSH_ENDED_GRACE)")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", time.Minute, "how often stale rooms are swept (env: WORDRUSH_SWEEP_INTERVAL)")
	fs.Float64Var(&c.TabooPenalty, "taboo-penalty", 1.0, "default points deducted per taboo violation (env: WORDRUSH_TABOO_PENALTY)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "enable debug logging (env: WORDRUSH_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.TabooPenalty < 0 {
		return fmt.Errorf("taboo penalty must not be negative: %v", c.TabooPenalty)
	}
	if c.LobbyTTL <= 0 || c.EndedGrace <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("lobby-ttl, ended-grace and sweep-interval must be positive")
	}
	return nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
