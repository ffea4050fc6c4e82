// mimattack recovers short ElGamal messages with meet-in-the-middle attacks.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/internal/flags"
	"github.com/tos-network/gmim/log"
)

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app = flags.NewApp(gitCommit, gitDate, "meet-in-the-middle attack on textbook ElGamal")

func init() {
	app.Commands = []*cli.Command{
		commandBuild,
		commandCrack,
		commandAttacks,
		commandDumpConfig,
	}
	app.Flags = append([]cli.Flag{utils.ConfigFileFlag, utils.SeedFlag}, utils.LoggingFlags...)
	app.Before = func(ctx *cli.Context) error {
		utils.SetupLogging(ctx)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadCryptosystem reads the cryptosystem named by the first argument.
func loadCryptosystem(ctx *cli.Context) *elgamal.Cryptosystem {
	path := ctx.Args().First()
	if path == "" {
		utils.Fatalf("No cryptosystem file given")
	}
	cs, err := elgamal.LoadFile(path)
	if err != nil {
		utils.Fatalf("Failed to load cryptosystem %s: %v", path, err)
	}
	log.Info("Loaded cryptosystem", "file", path, "prime", cs.Prime.BitLen(), "order", cs.BaseOrder.BitLen(), "smooth", cs.S.Bits())
	return cs
}

// makeAttack creates the attack selected on the command line.
func makeAttack(ctx *cli.Context, cs *elgamal.Cryptosystem, cfg *utils.Config) attack.Attack {
	name := ctx.String(utils.AttackFlag.Name)
	a, err := attack.New(name, cs, cfg.Attack)
	if err != nil {
		utils.Fatalf("Failed to create attack %q: %v", name, err)
	}
	fmt.Printf("INFO: using attack '%s'\n", a.Name())
	fmt.Printf("INFO: bits1 = %d, bits2 = %d\n", cfg.Attack.Bits1, cfg.Attack.Bits2)
	return a
}
