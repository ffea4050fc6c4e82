package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/crypto/elgamal"
)

var (
	messageBitsFlag = &cli.UintFlag{
		Name:  "messagebits",
		Usage: "Size of a random splittable message m = d1*d2",
		Value: 40,
	}
	messageFlag = &cli.StringFlag{
		Name:  "message",
		Usage: "Encrypt this decimal message instead of a random one",
	}
)

var commandEncrypt = &cli.Command{
	Name:      "encrypt",
	Usage:     "create an encrypted message file",
	ArgsUsage: "<cryptosystem> <message>",
	Description: `
Encrypt a message under the cryptosystem and store the plaintext and the
ciphertext in the message file. Without --message a random message that
splits into two factors of messagebits/2 bits is drawn.`,
	Flags: []cli.Flag{
		messageBitsFlag,
		messageFlag,
		forceFlag,
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 2 {
			utils.Fatalf("This command requires a cryptosystem and an output file.")
		}
		csPath, path := ctx.Args().Get(0), ctx.Args().Get(1)
		if _, err := os.Stat(path); err == nil && !ctx.Bool(forceFlag.Name) {
			utils.Fatalf("File %s already exists, use --force to overwrite", path)
		}
		cs, err := elgamal.LoadFile(csPath)
		if err != nil {
			utils.Fatalf("Failed to load cryptosystem %s: %v", csPath, err)
		}
		rng := utils.MakeRandom(ctx)

		var msg *elgamal.Message
		if text := ctx.String(messageFlag.Name); text != "" {
			m, ok := new(big.Int).SetString(text, 10)
			if !ok {
				utils.Fatalf("Invalid message %q", text)
			}
			ct, err := cs.Encrypt(rng, m)
			if err != nil {
				utils.Fatalf("Failed to encrypt: %v", err)
			}
			msg = &elgamal.Message{M: m, Ciphertext: *ct}
		} else {
			var d1, d2 *big.Int
			msg, d1, d2, err = cs.NewSplitMessage(rng, ctx.Uint(messageBitsFlag.Name))
			if err != nil {
				utils.Fatalf("Failed to create message: %v", err)
			}
			fmt.Printf("message factors = %v; %v\n", d1, d2)
		}
		if err := msg.SaveFile(path); err != nil {
			utils.Fatalf("Failed to write message: %v", err)
		}
		utils.PrintMessage(os.Stdout, msg)
		return nil
	},
}
