package utils

import (
	"fmt"
	"io"
	"math/big"

	"github.com/olekukonko/tablewriter"

	"github.com/tos-network/gmim/crypto/elgamal"
)

func bitsRow(name string, x *big.Int) []string {
	return []string{name, x.String(), fmt.Sprint(x.BitLen())}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// PrintCryptosystem renders the parameters of cs. The secret key is only
// included if private is set.
func PrintCryptosystem(w io.Writer, cs *elgamal.Cryptosystem, private bool) {
	table := newTable(w, "Parameter", "Value", "Bits")
	table.Append(bitsRow("prime p", cs.Prime))
	table.Append(bitsRow("base g", cs.Base))
	table.Append(bitsRow("base order q", cs.BaseOrder))
	table.Append(bitsRow("cofactor r", cs.R))
	table.Append([]string{"smooth s", cs.S.String(), fmt.Sprint(cs.S.Bits())})
	if cs.Smooth() {
		table.Append(bitsRow("s generator", cs.SGenerator))
	}
	table.Append(bitsRow("public key y", cs.Enc))
	if private {
		table.Append(bitsRow("secret key x", cs.Dec))
	}
	table.Render()
}

// PrintMessage renders a message file.
func PrintMessage(w io.Writer, msg *elgamal.Message) {
	table := newTable(w, "Field", "Value", "Bits")
	table.Append(bitsRow("m", msg.M))
	table.Append(bitsRow("g^k", msg.GK))
	table.Append(bitsRow("m*y^k", msg.MYK))
	table.Render()
}
