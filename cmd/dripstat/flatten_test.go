package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

func writeHistory(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadHistory(t *testing.T) {
	path := writeHistory(t, `[
		{"balance": {"currency": "dai", "wei": "1000000000000000000"}, "amtPerSec": {"currency": "dai", "wei": "100000000000000000"}, "timestamp": "1970-01-01T00:00:00Z"}
	]`)

	history, err := loadHistory(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := drip.Flatten(history, domain.TimeWindow{From: domain.UnixTime(0), To: domain.UnixTime(4)})
	if result.Streamed.String() != "400000000000000000" {
		t.Errorf("Streamed = %s, want 400000000000000000", result.Streamed)
	}
	if result.Remaining.String() != "600000000000000000" {
		t.Errorf("Remaining = %s, want 600000000000000000", result.Remaining)
	}
}

func TestLoadHistoryUnsorted(t *testing.T) {
	path := writeHistory(t, `[
		{"balance": {"wei": "10"}, "amtPerSec": {"wei": "1"}, "timestamp": "1970-01-01T00:00:05Z"},
		{"balance": {"wei": "10"}, "amtPerSec": {"wei": "1"}, "timestamp": "1970-01-01T00:00:01Z"}
	]`)

	_, err := loadHistory(path)
	if !errors.Is(err, drip.ErrUnsorted) {
		t.Errorf("error = %v, want ErrUnsorted", err)
	}
}

func TestLoadHistoryMissing(t *testing.T) {
	if _, err := loadHistory(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadHistoryMalformed(t *testing.T) {
	path := writeHistory(t, `{"not": "an array"}`)
	if _, err := loadHistory(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func runFlatten(t *testing.T, args ...string) drip.Result {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{Writer: &out, Commands: []*cli.Command{flattenCommand()}}
	if err := app.Run(append([]string{"dripstat", "flatten"}, args...)); err != nil {
		t.Fatalf("flatten: %v", err)
	}
	var result drip.Result
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding output %q: %v", out.String(), err)
	}
	return result
}

func TestFlattenCommand(t *testing.T) {
	path := writeHistory(t, `[
		{"balance": {"wei": "1000000000000000000"}, "amtPerSec": {"wei": "100000000000000000"}, "timestamp": "1970-01-01T00:00:00Z"}
	]`)

	tests := []struct {
		name          string
		args          []string
		wantStreamed  string
		wantRemaining string
	}{
		{"up to now", nil, "1000000000000000000", "0"},
		{"explicit window", []string{"--from", "0", "--to", "9"}, "900000000000000000", "100000000000000000"},
		{"from only", []string{"--from", "8"}, "200000000000000000", "800000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runFlatten(t, append([]string{"--file", path}, tt.args...)...)
			if result.Streamed.String() != tt.wantStreamed {
				t.Errorf("Streamed = %s, want %s", result.Streamed, tt.wantStreamed)
			}
			if result.Remaining.String() != tt.wantRemaining {
				t.Errorf("Remaining = %s, want %s", result.Remaining, tt.wantRemaining)
			}
		})
	}
}
