package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/cmd/utils"
)

var descriptions = map[string]string{
	"mim":      "sorted table of exact exponentiations",
	"hashmim":  "sorted table of truncated hashes",
	"hashmim2": "sorted hash table with exponentiation cache",
	"hashmim3": "chained hash table with exponentiation cache",
	"hashmim4": "chained hash table without stored hashes",
	"diskmim":  "persisted leveldb table with duplicate hashes",
	"2table":   "discrete-log tables merged modulo the smooth cofactor",
}

var commandAttacks = &cli.Command{
	Name:  "attacks",
	Usage: "list the available attacks",
	Action: func(ctx *cli.Context) error {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Attack", "Description"})
		for _, name := range attack.Names() {
			table.Append([]string{name, descriptions[name]})
		}
		table.Render()
		return nil
	},
}

var commandDumpConfig = &cli.Command{
	Name:      "dumpconfig",
	Usage:     "show configuration values",
	ArgsUsage: "",
	Flags:     utils.AttackFlags,
	Description: `
The dumpconfig command shows configuration values merged from the defaults,
the --config file and the command line flags.`,
	Action: func(ctx *cli.Context) error {
		cfg := utils.MakeConfig(ctx)
		if err := utils.DumpConfig(os.Stdout, &cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	},
}
