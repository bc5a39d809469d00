package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("rallypoint", []string{"--env-file", ""})
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, ":3700", cfg.Listen)
	assert.Equal(t, 100*time.Millisecond, cfg.ServerPeriod)
	assert.Equal(t, 500*time.Millisecond, cfg.SessionTimeout)
	assert.Equal(t, 500*time.Microsecond, cfg.PollWait)
	assert.Equal(t, 20.0, cfg.AgentSpeed)
	assert.Equal(t, 3699, cfg.Beacon.Port)
	assert.Empty(t, cfg.Spectate.Addr)
}

func TestYAMLFile(t *testing.T) {
	path := writeFile(t, "rallypoint.yaml", `
listen: ":4000"
server_period: 50ms
agent_speed: 12.5
beacon:
  enabled: false
spectate:
  addr: "127.0.0.1:8080"
demo:
  wanderer: true
log:
  level: debug
`)
	cfg, err := Load("rallypoint", []string{"--env-file", "", "--config", path})
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Listen)
	assert.Equal(t, 50*time.Millisecond, cfg.ServerPeriod)
	assert.Equal(t, 100*time.Millisecond, cfg.WorldPeriod)
	assert.Equal(t, 12.5, cfg.AgentSpeed)
	assert.False(t, cfg.Beacon.Enabled)
	assert.Equal(t, 3699, cfg.Beacon.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Spectate.Addr)
	assert.True(t, cfg.Demo.Wanderer)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLayering(t *testing.T) {
	path := writeFile(t, "rallypoint.yaml", "listen: \":4000\"\nagent_speed: 5\nsession_timeout: 2s\n")
	t.Setenv(EnvName("agent-speed"), "7")
	t.Setenv(EnvName("session-timeout"), "1s")

	cfg, err := Load("rallypoint", []string{
		"--env-file", "",
		"--config", path,
		"--session-timeout", "750ms",
	})
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Listen, "file over default")
	assert.Equal(t, 7.0, cfg.AgentSpeed, "env over file")
	assert.Equal(t, 750*time.Millisecond, cfg.SessionTimeout, "flag over env")
}

func TestFlagEqualToDefaultStillOverrides(t *testing.T) {
	path := writeFile(t, "rallypoint.yaml", "listen: \":4000\"\n")
	cfg, err := Load("rallypoint", []string{"--env-file", "", "--config", path, "--listen", ":3700"})
	require.NoError(t, err)
	assert.Equal(t, ":3700", cfg.Listen)
}

func TestEnvFile(t *testing.T) {
	key := EnvName("spectate-addr")
	t.Setenv(key, "")
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=127.0.0.1:9000\n")
	cfg, err := Load("rallypoint", []string{"--env-file", path})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Spectate.Addr)
}

func TestMissingEnvFileIgnored(t *testing.T) {
	_, err := Load("rallypoint", []string{"--env-file", filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		file string
	}{
		{name: "missing config file", args: []string{"--config", "/nonexistent/rallypoint.yaml"}},
		{name: "bad yaml", file: "listen: [\n"},
		{name: "bad yaml duration", file: "server_period: soon\n"},
		{name: "bad env value", env: map[string]string{EnvName("server-period"): "fast"}},
		{name: "unknown flag", args: []string{"--warp-speed"}},
		{name: "positional argument", args: []string{"extra"}},
		{name: "zero period", args: []string{"--server-period", "0s"}},
		{name: "negative speed", args: []string{"--agent-speed", "-1"}},
		{name: "empty listen", args: []string{"--listen", ""}},
		{name: "beacon port", args: []string{"--beacon-port", "70000"}},
		{name: "log level", args: []string{"--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"--env-file", ""}, tt.args...)
			if tt.file != "" {
				args = append(args, "--config", writeFile(t, "bad.yaml", tt.file))
			}
			_, err := Load("rallypoint", args)
			assert.Error(t, err)
		})
	}
}

func TestDisabledBeaconSkipsPortCheck(t *testing.T) {
	_, err := Load("rallypoint", []string{"--env-file", "", "--beacon-enabled=false", "--beacon-port", "0"})
	assert.NoError(t, err)
}

func TestHelp(t *testing.T) {
	_, err := Load("rallypoint", []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "RALLYPOINT_BEACON_INTERVAL", EnvName("beacon-interval"))
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	cfg.Log.Level = "loud"
	_, err = cfg.SlogLevel()
	assert.Error(t, err)
}
