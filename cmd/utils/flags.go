// Package utils contains internal helper functions for gmim commands.
package utils

import (
	"io"
	mrand "math/rand"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/internal/flags"
	"github.com/tos-network/gmim/log"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	SeedFlag = &cli.Int64Flag{
		Name:     "seed",
		Usage:    "Seed a deterministic random source instead of the system entropy (testing only)",
		Category: flags.MiscCategory,
	}

	// Attack settings
	AttackFlag = &cli.StringFlag{
		Name:     "attack",
		Usage:    "Attack variant to run (see the attacks command)",
		Value:    "hashmim3",
		Category: flags.AttackCategory,
	}
	MessageBitsFlag = &cli.UintFlag{
		Name:     "messagebits",
		Usage:    "Message size in bits, split evenly between both halves",
		Category: flags.AttackCategory,
	}
	Bits1Flag = &cli.UintFlag{
		Name:     "bits1",
		Usage:    "Table half size in bits",
		Value:    attack.DefaultConfig.Bits1,
		Category: flags.AttackCategory,
	}
	Bits2Flag = &cli.UintFlag{
		Name:     "bits2",
		Usage:    "Searched half size in bits",
		Value:    attack.DefaultConfig.Bits2,
		Category: flags.AttackCategory,
	}
	MaxResultsFlag = &cli.IntFlag{
		Name:     "maxresults",
		Usage:    "Maximum number of candidates per ciphertext (0 = all)",
		Value:    attack.DefaultConfig.MaxResults,
		Category: flags.AttackCategory,
	}
	HashBitsFlag = &cli.UintFlag{
		Name:     "hashbits",
		Usage:    "Width of the truncated hash keying the hash tables",
		Value:    attack.DefaultConfig.HashBits,
		Category: flags.AttackCategory,
	}
	VerifyCacheFlag = &cli.IntFlag{
		Name:     "verifycache",
		Usage:    "Number of exponentiations memoized for candidate verification",
		Value:    attack.DefaultConfig.VerifyCacheSize,
		Category: flags.AttackCategory,
	}

	// Table storage
	TableDirFlag = &cli.PathFlag{
		Name:     "tabledir",
		Usage:    "Directory for exponentiation caches and persisted tables",
		Category: flags.TableCategory,
	}
	CachePathFlag = &cli.PathFlag{
		Name:     "cachefile",
		Usage:    "Exponentiation cache file (default = inside the table directory)",
		Category: flags.TableCategory,
	}
	TablePathFlag = &cli.PathFlag{
		Name:     "tablefile",
		Usage:    "Persisted table database (default = inside the table directory)",
		Category: flags.TableCategory,
	}
	ForceRebuildFlag = &cli.BoolFlag{
		Name:     "rebuild",
		Usage:    "Rebuild persisted tables even if a matching one exists",
		Category: flags.TableCategory,
	}
	DatabaseCacheFlag = &cli.IntFlag{
		Name:     "db.cache",
		Usage:    "Megabytes of memory allocated to the table database",
		Value:    attack.DefaultConfig.DatabaseCache,
		Category: flags.TableCategory,
	}
	DatabaseHandlesFlag = &cli.IntFlag{
		Name:     "db.handles",
		Usage:    "Number of open files the table database may use",
		Value:    attack.DefaultConfig.DatabaseHandles,
		Category: flags.TableCategory,
	}

	// Logging and metrics
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.logfmt",
		Usage:    "Format logs with logfmt instead of the terminal layout",
		Category: flags.LoggingCategory,
	}
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Time table builds and cracks",
		Value:    true,
		Category: flags.MetricsCategory,
	}
	MetricsCPUFlag = &cli.BoolFlag{
		Name:     "metrics.cpu",
		Usage:    "Include process CPU time in timings",
		Value:    true,
		Category: flags.MetricsCategory,
	}
)

var (
	// AttackFlags configure the attack engine.
	AttackFlags = []cli.Flag{
		AttackFlag,
		MessageBitsFlag,
		Bits1Flag,
		Bits2Flag,
		MaxResultsFlag,
		HashBitsFlag,
		VerifyCacheFlag,
		TableDirFlag,
		CachePathFlag,
		TablePathFlag,
		ForceRebuildFlag,
		DatabaseCacheFlag,
		DatabaseHandlesFlag,
	}
	// LoggingFlags configure logging and timing output.
	LoggingFlags = []cli.Flag{
		VerbosityFlag,
		LogJSONFlag,
		MetricsEnabledFlag,
		MetricsCPUFlag,
	}
)

// SetupLogging installs the root log handler according to the logging
// flags. Colour is used only when stderr is a terminal.
func SetupLogging(ctx *cli.Context) {
	var (
		output = io.Writer(os.Stderr)
		format log.Format
	)
	if ctx.Bool(LogJSONFlag.Name) {
		format = log.LogfmtFormat()
	} else {
		usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		if usecolor {
			output = colorable.NewColorableStderr()
		}
		format = log.TerminalFormat(usecolor)
	}
	handler := log.StreamHandler(output, format)
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(ctx.Int(VerbosityFlag.Name)), handler))
}

// MakeRandom returns the random source selected by the seed flag, nil for
// the system entropy source.
func MakeRandom(ctx *cli.Context) io.Reader {
	if !ctx.IsSet(SeedFlag.Name) {
		return nil
	}
	log.Warn("Using a deterministic random source", "seed", ctx.Int64(SeedFlag.Name))
	return mrand.New(mrand.NewSource(ctx.Int64(SeedFlag.Name)))
}

// SetAttackConfig applies attack related command line flags to the config.
func SetAttackConfig(ctx *cli.Context, cfg *attack.Config) {
	if ctx.IsSet(Bits1Flag.Name) {
		cfg.Bits1 = ctx.Uint(Bits1Flag.Name)
	}
	if ctx.IsSet(Bits2Flag.Name) {
		cfg.Bits2 = ctx.Uint(Bits2Flag.Name)
	}
	if ctx.IsSet(MessageBitsFlag.Name) {
		CheckExclusive(ctx, MessageBitsFlag, Bits1Flag)
		CheckExclusive(ctx, MessageBitsFlag, Bits2Flag)
		cfg.SetMessageBits(ctx.Uint(MessageBitsFlag.Name))
	}
	if ctx.IsSet(MaxResultsFlag.Name) {
		cfg.MaxResults = ctx.Int(MaxResultsFlag.Name)
	}
	if ctx.IsSet(HashBitsFlag.Name) {
		cfg.HashBits = ctx.Uint(HashBitsFlag.Name)
	}
	if ctx.IsSet(VerifyCacheFlag.Name) {
		cfg.VerifyCacheSize = ctx.Int(VerifyCacheFlag.Name)
	}
	if ctx.IsSet(TableDirFlag.Name) {
		cfg.TableDir = ctx.Path(TableDirFlag.Name)
	}
	if ctx.IsSet(CachePathFlag.Name) {
		cfg.CachePath = ctx.Path(CachePathFlag.Name)
	}
	if ctx.IsSet(TablePathFlag.Name) {
		cfg.TablePath = ctx.Path(TablePathFlag.Name)
	}
	if ctx.IsSet(ForceRebuildFlag.Name) {
		cfg.ForceRebuild = ctx.Bool(ForceRebuildFlag.Name)
	}
	if ctx.IsSet(DatabaseCacheFlag.Name) {
		cfg.DatabaseCache = ctx.Int(DatabaseCacheFlag.Name)
	}
	if ctx.IsSet(DatabaseHandlesFlag.Name) {
		cfg.DatabaseHandles = ctx.Int(DatabaseHandlesFlag.Name)
	}
}

// CheckExclusive verifies that only a single instance of the provided flags
// was set by the user.
func CheckExclusive(ctx *cli.Context, args ...cli.Flag) {
	set := make([]string, 0, 1)
	for _, flag := range args {
		name := flag.Names()[0]
		if ctx.IsSet(name) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		Fatalf("Flags %v can't be used at the same time", set)
	}
}
