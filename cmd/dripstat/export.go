package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/dripstat/internal/config"
	"github.com/mtlprog/dripstat/internal/estimate"
	"github.com/mtlprog/dripstat/internal/export"
	"github.com/mtlprog/dripstat/internal/portfolio"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "fetch stream histories and write a daily statement to an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "workbook path", Value: "statement.xlsx"},
			&cli.TimestampFlag{Name: "date", Usage: "statement day (default: today)", Layout: time.DateOnly, Timezone: time.UTC},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			descriptors, err := cfg.StreamDescriptors()
			if err != nil {
				return fmt.Errorf("parsing STREAMS: %w", err)
			}

			date := time.Now().UTC()
			if ts := c.Timestamp("date"); ts != nil {
				date = *ts
			}

			source, closeSource, err := eventSource(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeSource()

			holdings := portfolio.New(cfg.OwnerAddress)
			defer holdings.Close()

			if err := portfolio.NewService(source, holdings, descriptors).Load(c.Context); err != nil {
				return fmt.Errorf("fetching stream histories: %w", err)
			}

			statement := estimate.New(holdings, estimate.WithCycleSecs(cfg.CycleSecs)).Statement(date)

			out := c.String("out")
			if err := export.NewService(export.NewXLSXWriter(out)).Export(c.Context, statement); err != nil {
				return err
			}
			slog.Info("Export: statement written", "path", out, "date", statement.Date.Format(time.DateOnly), "lines", len(statement.Lines))
			return nil
		},
	}
}
