package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/metrics"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Config is the configuration file layout of the gmim tools.
type Config struct {
	Attack  attack.Config
	Metrics metrics.Config
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Attack:  attack.DefaultConfig,
		Metrics: metrics.DefaultConfig,
	}
}

// LoadConfig decodes a TOML configuration file over cfg.
func LoadConfig(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	cfg.Attack.Timing = cfg.Metrics
	return err
}

// MakeConfig assembles the configuration from the defaults, the optional
// config file and the command line flags, in increasing precedence.
func MakeConfig(ctx *cli.Context) Config {
	cfg := DefaultConfig()
	if file := ctx.String(ConfigFileFlag.Name); file != "" {
		if err := LoadConfig(file, &cfg); err != nil {
			Fatalf("%v", err)
		}
	}
	SetAttackConfig(ctx, &cfg.Attack)
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Metrics.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsCPUFlag.Name) {
		cfg.Metrics.CPUTime = ctx.Bool(MetricsCPUFlag.Name)
	}
	cfg.Attack.Timing = cfg.Metrics
	return cfg
}

// DumpConfig writes cfg as TOML.
func DumpConfig(w io.Writer, cfg *Config) error {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
