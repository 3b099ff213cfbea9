package domain

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxUnix is the last second of year 9999. Instants past it are clamped so they
// still format and compare sensibly.
const maxUnix int64 = 253402300799

// AddSeconds adds b to a, saturating at maxUnix instead of overflowing.
func AddSeconds(a, b int64) int64 {
	if b > 0 && a > maxUnix-b {
		return maxUnix
	}
	if a+b > maxUnix {
		return maxUnix
	}
	return a + b
}

// toInt64 converts an integral decimal to int64, saturating at math.MaxInt64.
func toInt64(d decimal.Decimal) int64 {
	bi := d.BigInt()
	if !bi.IsInt64() {
		if bi.Sign() < 0 {
			return 0
		}
		return math.MaxInt64
	}
	return bi.Int64()
}

// UnixTime converts seconds to a UTC instant.
func UnixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// formatUnits rounds to the given number of places and strips trailing zeros.
func formatUnits(d decimal.Decimal, places int32) string {
	s := d.Round(places).StringFixed(places)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
