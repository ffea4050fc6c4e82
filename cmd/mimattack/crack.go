package main

import (
	"context"
	"fmt"
	"io"
	mrand "math/rand"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/cmd/utils"
	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/internal/flags"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
)

var parallelFlag = &cli.IntFlag{
	Name:     "parallel",
	Usage:    "Number of messages cracked concurrently against the shared table",
	Value:    1,
	Category: flags.AttackCategory,
}

var commandCrack = &cli.Command{
	Name:      "crack",
	Usage:     "recover the plaintext of message files",
	ArgsUsage: "<cryptosystem> <message> [<message>...]",
	Description: `
Builds (or reuses) the attack table and cracks every message file. For each
file the crack time, the number of candidates and the unique candidates are
reported. Every candidate is verified against the ciphertext and the one
equal to the stored plaintext is marked.`,
	Flags: append([]cli.Flag{parallelFlag}, utils.AttackFlags...),
	Action: crack,
}

// crackReport is the outcome of cracking one message file.
type crackReport struct {
	file    string
	msg     *elgamal.Message
	results *attack.ResultList
	elapsed metrics.Measurement
	err     error
}

func crack(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		utils.Fatalf("This command requires a cryptosystem and at least one message file.")
	}
	var (
		cfg = utils.MakeConfig(ctx)
		cs  = loadCryptosystem(ctx)
		a   = makeAttack(ctx, cs, &cfg)
	)
	defer a.Close()

	fmt.Println("INFO: using the following cryptosystem")
	utils.PrintCryptosystem(os.Stdout, cs, false)
	if _, err := buildTable(a, &cfg, utils.MakeRandom(ctx)); err != nil {
		utils.Fatalf("Failed to build table: %v", err)
	}

	files := ctx.Args().Slice()[1:]
	reports := make([]*crackReport, len(files))
	parallel := ctx.Int(parallelFlag.Name)
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	if parallel == 1 {
		for i, file := range files {
			reports[i] = crackFile(a, cs, &cfg, file, taskRandom(ctx, i))
			printReport(os.Stdout, cs, reports[i])
		}
	} else {
		var (
			sem  = semaphore.NewWeighted(int64(parallel))
			g, c = errgroup.WithContext(context.Background())
		)
		for i, file := range files {
			if err := sem.Acquire(c, 1); err != nil {
				break
			}
			i, file := i, file
			g.Go(func() error {
				defer sem.Release(1)
				reports[i] = crackFile(a, cs, &cfg, file, taskRandom(ctx, i))
				return nil
			})
		}
		g.Wait()
		for _, report := range reports {
			printReport(os.Stdout, cs, report)
		}
	}

	stats := a.Stats()
	log.Info("Attack finished", "files", len(files), "hashHits", stats.HashHits, "verified", stats.Verified)

	var missed int
	for _, report := range reports {
		if report.err != nil {
			missed++
		} else if _, found := report.results.Find(report.msg.M); !found {
			missed++
		}
	}
	if missed > 0 {
		return fmt.Errorf("%d of %d messages not recovered", missed, len(files))
	}
	return nil
}

// taskRandom derives an independent deterministic source per message when
// a seed is given. Seeded sources must not be shared between goroutines.
func taskRandom(ctx *cli.Context, i int) io.Reader {
	if !ctx.IsSet(utils.SeedFlag.Name) {
		return nil
	}
	return mrand.New(mrand.NewSource(ctx.Int64(utils.SeedFlag.Name) + int64(i) + 1))
}

func crackFile(a attack.Attack, cs *elgamal.Cryptosystem, cfg *utils.Config, file string, rng io.Reader) *crackReport {
	report := &crackReport{file: file, results: attack.NewResultList(20)}
	msg, err := elgamal.LoadMessageFile(file)
	if err != nil {
		report.err = err
		return report
	}
	report.msg = msg

	sw := metrics.NewStopwatch(cfg.Metrics)
	_, report.err = a.CrackMessage(report.results, &msg.Ciphertext, rng, cfg.Attack.MaxResults)
	report.elapsed = sw.Stop()
	log.Debug("Cracked message", "file", file, "results", report.results.Len(), "elapsed", report.elapsed.Wall, "err", report.err)
	return report
}

func printReport(w io.Writer, cs *elgamal.Cryptosystem, r *crackReport) {
	if r.msg == nil {
		fmt.Fprintf(w, "ERR: failed to read message %s: %v\n", r.file, r.err)
		return
	}
	fmt.Fprintln(w, "message:")
	utils.PrintMessage(w, r.msg)
	fmt.Fprintf(w, "TIME[crack,file=%s]: %s\n", r.file, r.elapsed)
	if r.err != nil {
		fmt.Fprintf(w, "ERR: crack failed: %v\n", r.err)
	}
	fmt.Fprintf(w, "RESULTS[file=%s]: %d\n", r.file, r.results.Len())
	fmt.Fprintf(w, "actual message: %v\n", r.msg.M)

	var (
		unique  = attack.NewResultList(r.results.Len())
		table   = tablewriter.NewWriter(w)
		found   bool
		correct = color.New(color.FgGreen, color.Bold).SprintFunc()
		invalid = color.New(color.FgRed, color.Bold).SprintFunc()
	)
	table.SetHeader([]string{"#", "Result", "Status"})
	table.SetAutoWrapText(false)
	for j := 0; j < r.results.Len(); j++ {
		result := r.results.At(j)
		if _, dup := unique.Find(result); dup {
			continue
		}
		unique.Append(result)

		status := "verified"
		switch {
		case !cs.Verify(&r.msg.Ciphertext, result):
			status = invalid("INVALID")
		case result.Cmp(r.msg.M) == 0:
			status = correct("correct")
			found = true
		}
		table.Append([]string{fmt.Sprint(j), result.String(), status})
	}
	if unique.Len() > 0 {
		table.Render()
	}
	fmt.Fprintf(w, "URESULTS[file=%s]: %d\n", r.file, unique.Len())
	if !found {
		fmt.Fprintln(w, invalid("ERR: message not found"))
	}
}
