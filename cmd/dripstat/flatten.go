package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

func flattenCommand() *cli.Command {
	return &cli.Command{
		Name:  "flatten",
		Usage: "compute streamed and remaining amounts for a rate-change history file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON array of rate-change events", Required: true},
			&cli.Int64Flag{Name: "from", Usage: "window start, unix seconds", Value: 0},
			&cli.Int64Flag{Name: "to", Usage: "window end, unix seconds (default: now)"},
		},
		Action: func(c *cli.Context) error {
			history, err := loadHistory(c.String("file"))
			if err != nil {
				return err
			}

			var result drip.Result
			if c.IsSet("from") || c.IsSet("to") {
				window := domain.WindowUntil(time.Now())
				window.From = domain.UnixTime(c.Int64("from"))
				if c.IsSet("to") {
					window.To = domain.UnixTime(c.Int64("to"))
				}
				result = drip.Flatten(history, window)
			} else {
				result = drip.FlattenNow(history)
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

// loadHistory reads and validates a rate-change history file.
func loadHistory(path string) ([]domain.DripHistoryEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var history []domain.DripHistoryEvent
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := drip.Validate(history); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return history, nil
}
