package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/internal/flags"
)

var (
	primeBitsFlag = &cli.UintFlag{
		Name:     "primebits",
		Usage:    "Size of the prime modulus in bits",
		Value:    elgamal.DefaultGenerateParams.PrimeBits,
		Category: flags.CryptoCategory,
	}
	baseBitsFlag = &cli.UintFlag{
		Name:     "basebits",
		Usage:    "Size of the base order in bits (equal to --primebits for a full-order base)",
		Value:    elgamal.DefaultGenerateParams.BaseOrderBits,
		Category: flags.CryptoCategory,
	}
	smoothBitsFlag = &cli.UintFlag{
		Name:     "smoothbits",
		Usage:    "Size of the smooth cofactor of p-1 in bits, required by the 2table attack (0 = none)",
		Category: flags.CryptoCategory,
	}
	smoothLimitFlag = &cli.UintFlag{
		Name:     "smoothlimit",
		Usage:    "Maximum size in bits of each prime factor of the smooth cofactor",
		Value:    elgamal.DefaultGenerateParams.SmoothLimit,
		Category: flags.CryptoCategory,
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite an existing output file",
	}
)

var commandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate a new cryptosystem",
	ArgsUsage: "<cryptosystem>",
	Description: `
Generate a cryptosystem p = q*r*s + 1 with a prime base order q and an
optional smooth cofactor s, and write it to the given file.`,
	Flags: []cli.Flag{
		primeBitsFlag,
		baseBitsFlag,
		smoothBitsFlag,
		smoothLimitFlag,
		forceFlag,
	},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			utils.Fatalf("No output file given")
		}
		if _, err := os.Stat(path); err == nil && !ctx.Bool(forceFlag.Name) {
			utils.Fatalf("File %s already exists, use --force to overwrite", path)
		}
		params := elgamal.GenerateParams{
			PrimeBits:     ctx.Uint(primeBitsFlag.Name),
			BaseOrderBits: ctx.Uint(baseBitsFlag.Name),
			SmoothBits:    ctx.Uint(smoothBitsFlag.Name),
			SmoothLimit:   ctx.Uint(smoothLimitFlag.Name),
		}
		cs, err := elgamal.Generate(utils.MakeRandom(ctx), params)
		if err != nil {
			utils.Fatalf("Failed to generate cryptosystem: %v", err)
		}
		if err := cs.SaveFile(path); err != nil {
			utils.Fatalf("Failed to write cryptosystem: %v", err)
		}
		fmt.Printf("Cryptosystem written to %s\n", path)
		utils.PrintCryptosystem(os.Stdout, cs, false)
		return nil
	},
}
