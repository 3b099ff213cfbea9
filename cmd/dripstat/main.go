package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/dripstat/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "dripstat",
		Usage: "drips stream balances, estimates and statements",
		Before: func(c *cli.Context) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			slog.SetDefault(config.Load().NewLogger())
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			flattenCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
