package flags

import (
	"github.com/urfave/cli/v2"

	"github.com/tos-network/gmim/internal/version"
)

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = version.WithCommit(gitCommit, gitDate)
	app.Usage = usage
	app.Copyright = "Copyright 2026 The gmim Authors"
	return app
}
