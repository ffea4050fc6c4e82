package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/metrics"
)

var commandBuild = &cli.Command{
	Name:      "build",
	Usage:     "build the attack table for a cryptosystem",
	ArgsUsage: "<cryptosystem>",
	Description: `
Builds the table of the selected attack. Persisted tables (diskmim) and
exponentiation caches (hashmim2, hashmim3, hashmim4) are written below
--tabledir and reused by later crack runs.`,
	Flags: utils.AttackFlags,
	Action: func(ctx *cli.Context) error {
		cfg := utils.MakeConfig(ctx)
		cs := loadCryptosystem(ctx)
		a := makeAttack(ctx, cs, &cfg)
		defer a.Close()

		if _, err := buildTable(a, &cfg, utils.MakeRandom(ctx)); err != nil {
			utils.Fatalf("Failed to build table: %v", err)
		}
		if disk, ok := a.(*attack.DiskMim); ok {
			meta := disk.Meta()
			fmt.Printf("INFO: table %s, build %s, %d entries\n", disk.Path(), meta.BuildID, meta.Entries)
			stats, err := disk.Inspect()
			if err != nil {
				utils.Fatalf("Failed to inspect table: %v", err)
			}
			fmt.Printf("INFO: %d distinct hashes, at most %d entries per hash\n", stats.Hashes, stats.MaxBucket)
		}
		return nil
	},
}

// buildTable builds the table of a, printing its build time unless an
// existing table was reused.
func buildTable(a attack.Attack, cfg *utils.Config, rng io.Reader) (attack.BuildStatus, error) {
	fmt.Println("INFO: Building table...")
	sw := metrics.NewStopwatch(cfg.Metrics)
	status, err := a.BuildTable(rng)
	if err != nil {
		return status, err
	}
	elapsed := sw.Stop()
	switch status {
	case attack.BuildSuccess:
		fmt.Printf("TIME[table,bits1=%d]: %s\n", cfg.Attack.Bits1, elapsed)
		if elapsed.CPU > 0 {
			fmt.Printf("CPUTIME[table,bits1=%d]: %v\n", cfg.Attack.Bits1, elapsed.CPU)
		}
	case attack.BuildReused:
		fmt.Println("INFO: reusing existing table")
	}
	return status, nil
}
