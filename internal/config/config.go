// Package config loads server settings. Sources are layered, each
// overriding the last: built-in defaults, an optional YAML file, a .env
// file plus RALLYPOINT_* environment variables, then command-line flags
package config

import (
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the loader reads
const EnvPrefix = "RALLYPOINT_"

// Config is the complete server configuration
type Config struct {
	Listen         string        `yaml:"listen"`
	ServerPeriod   time.Duration `yaml:"server_period"`
	WorldPeriod    time.Duration `yaml:"world_period"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	PollWait       time.Duration `yaml:"poll_wait"`
	AgentSpeed     float64       `yaml:"agent_speed"`

	Beacon   BeaconConfig   `yaml:"beacon"`
	Spectate SpectateConfig `yaml:"spectate"`
	Demo     DemoConfig     `yaml:"demo"`
	Log      LogConfig      `yaml:"log"`
}

type BeaconConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"`
}

// SpectateConfig controls the read-only spectator feed. An empty Addr
// disables it
type SpectateConfig struct {
	Addr string `yaml:"addr"`
}

type DemoConfig struct {
	Wanderer bool `yaml:"wanderer"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Listen:         ":3700",
		ServerPeriod:   100 * time.Millisecond,
		WorldPeriod:    100 * time.Millisecond,
		SessionTimeout: 500 * time.Millisecond,
		PollWait:       500 * time.Microsecond,
		AgentSpeed:     20,
		Beacon: BeaconConfig{
			Enabled:  true,
			Port:     3699,
			Interval: time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// loader-only flags, not layered from file or environment
var controlFlags = map[string]bool{
	"config":   true,
	"env-file": true,
	"help":     true,
}

// Load builds the configuration from args (without the program name).
// It returns pflag.ErrHelp when help was requested
func Load(name string, args []string) (*Config, error) {
	cfg := new(Config)
	*cfg = Default()

	var configPath, envFile string
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "path to a .env file (ignored if missing)")
	bindFlags(flagSet, cfg)

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, errors.Errorf("unexpected argument: %s", rest[0])
	}

	// Remember what was given on the command line, then rebuild from the
	// lower layers and replay it on top.
	explicit := make(map[string]string)
	flagSet.Visit(func(f *pflag.Flag) {
		if !controlFlags[f.Name] {
			explicit[f.Name] = f.Value.String()
		}
	})
	*cfg = Default()

	if configPath != "" {
		if err := loadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load env file %s", envFile)
		}
	}
	if err := applyEnv(flagSet); err != nil {
		return nil, err
	}

	for flagName, value := range explicit {
		if err := flagSet.Set(flagName, value); err != nil {
			return nil, errors.Wrapf(err, "flag --%s", flagName)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindFlags(flagSet *pflag.FlagSet, cfg *Config) {
	flagSet.StringVar(&cfg.Listen, "listen", cfg.Listen, "UDP address the game server binds")
	flagSet.DurationVar(&cfg.ServerPeriod, "server-period", cfg.ServerPeriod, "server tick period")
	flagSet.DurationVar(&cfg.WorldPeriod, "world-period", cfg.WorldPeriod, "demo wanderer tick period")
	flagSet.DurationVar(&cfg.SessionTimeout, "session-timeout", cfg.SessionTimeout, "drop sessions silent for this long")
	flagSet.DurationVar(&cfg.PollWait, "poll-wait", cfg.PollWait, "how long each drain waits for a datagram")
	flagSet.Float64Var(&cfg.AgentSpeed, "agent-speed", cfg.AgentSpeed, "agent speed in units per second")
	flagSet.BoolVar(&cfg.Beacon.Enabled, "beacon-enabled", cfg.Beacon.Enabled, "broadcast the server address on the LAN")
	flagSet.IntVar(&cfg.Beacon.Port, "beacon-port", cfg.Beacon.Port, "beacon broadcast port")
	flagSet.DurationVar(&cfg.Beacon.Interval, "beacon-interval", cfg.Beacon.Interval, "beacon broadcast interval")
	flagSet.StringVar(&cfg.Spectate.Addr, "spectate-addr", cfg.Spectate.Addr, "HTTP address of the spectator feed (empty disables)")
	flagSet.BoolVar(&cfg.Demo.Wanderer, "demo-wanderer", cfg.Demo.Wanderer, "run the random-walk demo agent")
	flagSet.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level: debug, info, warn or error")
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// EnvName returns the environment variable that sets the given flag
func EnvName(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func applyEnv(flagSet *pflag.FlagSet) error {
	var err error
	flagSet.VisitAll(func(f *pflag.Flag) {
		if err != nil || controlFlags[f.Name] {
			return
		}
		value, ok := os.LookupEnv(EnvName(f.Name))
		if !ok {
			return
		}
		if setErr := f.Value.Set(value); setErr != nil {
			err = errors.Wrapf(setErr, "environment %s", EnvName(f.Name))
		}
	})
	return err
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.ServerPeriod <= 0 {
		return errors.Errorf("server_period must be positive, got %s", c.ServerPeriod)
	}
	if c.WorldPeriod <= 0 {
		return errors.Errorf("world_period must be positive, got %s", c.WorldPeriod)
	}
	if c.SessionTimeout <= 0 {
		return errors.Errorf("session_timeout must be positive, got %s", c.SessionTimeout)
	}
	if c.PollWait <= 0 {
		return errors.Errorf("poll_wait must be positive, got %s", c.PollWait)
	}
	if c.AgentSpeed <= 0 {
		return errors.Errorf("agent_speed must be positive, got %g", c.AgentSpeed)
	}
	if c.Beacon.Enabled {
		if c.Beacon.Port <= 0 || c.Beacon.Port > 65535 {
			return errors.Errorf("beacon port %d out of range", c.Beacon.Port)
		}
		if c.Beacon.Interval <= 0 {
			return errors.Errorf("beacon interval must be positive, got %s", c.Beacon.Interval)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Log.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	return level, nil
}
