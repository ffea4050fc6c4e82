package main

import (
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/crypto/elgamal"
)

type outputCryptosystem struct {
	Prime      string
	Base       string
	BaseOrder  string
	R          string
	S          string
	SGenerator string `json:",omitempty"`
	PublicKey  string
	PrivateKey string `json:",omitempty"`
}

type outputMessage struct {
	Message string
	GK      string
	MYK     string
}

var privateFlag = &cli.BoolFlag{
	Name:  "private",
	Usage: "include the secret key in the output",
}

var commandInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "inspect a cryptosystem or message file",
	ArgsUsage: "<file>",
	Description: `
Print the parameters of a cryptosystem, or the contents of a message file
if the name ends in .msg.

The secret key can be printed by using the --private flag.`,
	Flags: []cli.Flag{
		jsonFlag,
		privateFlag,
	},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			utils.Fatalf("No file given")
		}
		if strings.HasSuffix(path, ".msg") {
			msg, err := elgamal.LoadMessageFile(path)
			if err != nil {
				utils.Fatalf("Failed to read message %s: %v", path, err)
			}
			if ctx.Bool(jsonFlag.Name) {
				mustPrintJSON(outputMessage{Message: msg.M.String(), GK: msg.GK.String(), MYK: msg.MYK.String()})
			} else {
				utils.PrintMessage(os.Stdout, msg)
			}
			return nil
		}

		cs, err := elgamal.LoadFile(path)
		if err != nil {
			utils.Fatalf("Failed to read cryptosystem %s: %v", path, err)
		}
		if err := cs.Validate(); err != nil {
			utils.Fatalf("Inconsistent cryptosystem %s: %v", path, err)
		}
		showPrivate := ctx.Bool(privateFlag.Name)
		if !ctx.Bool(jsonFlag.Name) {
			utils.PrintCryptosystem(os.Stdout, cs, showPrivate)
			return nil
		}
		out := outputCryptosystem{
			Prime:     cs.Prime.String(),
			Base:      cs.Base.String(),
			BaseOrder: cs.BaseOrder.String(),
			R:         cs.R.String(),
			S:         cs.S.String(),
			PublicKey: cs.Enc.String(),
		}
		if cs.Smooth() {
			out.SGenerator = cs.SGenerator.String()
		}
		if showPrivate {
			out.PrivateKey = cs.Dec.String()
		}
		mustPrintJSON(out)
		return nil
	},
}
