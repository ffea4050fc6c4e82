package utils

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	data := `
[Attack]
Bits1 = 20
Bits2 = 18
HashBits = 24
TableDir = "/var/tables"

[Metrics]
Enabled = false
`
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	cfg := DefaultConfig()
	require.NoError(t, LoadConfig(file, &cfg))
	assert.Equal(t, uint(20), cfg.Attack.Bits1)
	assert.Equal(t, uint(18), cfg.Attack.Bits2)
	assert.Equal(t, uint(24), cfg.Attack.HashBits)
	assert.Equal(t, "/var/tables", cfg.Attack.TableDir)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Attack.Timing.Enabled, "engine timings must follow the metrics section")
	// untouched fields keep their defaults
	assert.Equal(t, DefaultConfig().Attack.DatabaseCache, cfg.Attack.DatabaseCache)
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Attack]\nBits3 = 1\n"), 0644))

	cfg := DefaultConfig()
	err := LoadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bits3")
}

func TestDumpConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Attack.TablePath = "/tmp/table"
	cfg.Attack.ForceRebuild = true

	var buf bytes.Buffer
	require.NoError(t, DumpConfig(&buf, &cfg))
	assert.NotContains(t, buf.String(), "CachePath")

	file := filepath.Join(t.TempDir(), "dump.toml")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0644))
	var have Config
	require.NoError(t, LoadConfig(file, &have))
	assert.Equal(t, cfg, have)
}

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(AttackFlags, LoggingFlags...) {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestSetAttackConfig(t *testing.T) {
	cfg := DefaultConfig()
	SetAttackConfig(newContext(t, "--messagebits", "34", "--hashbits", "20", "--rebuild", "--tabledir", "/data"), &cfg.Attack)
	assert.Equal(t, uint(17), cfg.Attack.Bits1)
	assert.Equal(t, uint(17), cfg.Attack.Bits2)
	assert.Equal(t, uint(20), cfg.Attack.HashBits)
	assert.True(t, cfg.Attack.ForceRebuild)
	assert.Equal(t, "/data", cfg.Attack.TableDir)

	// unset flags leave the config alone
	cfg = DefaultConfig()
	cfg.Attack.Bits1 = 9
	SetAttackConfig(newContext(t, "--bits2", "11"), &cfg.Attack)
	assert.Equal(t, uint(9), cfg.Attack.Bits1)
	assert.Equal(t, uint(11), cfg.Attack.Bits2)
}

func TestMakeConfigTiming(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{ConfigFileFlag, MetricsEnabledFlag, MetricsCPUFlag} {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--metrics.cpu=false"}))
	cfg := MakeConfig(cli.NewContext(nil, set, nil))
	assert.True(t, cfg.Attack.Timing.Enabled)
	assert.False(t, cfg.Attack.Timing.CPUTime)
	assert.Equal(t, cfg.Metrics, cfg.Attack.Timing)
}
