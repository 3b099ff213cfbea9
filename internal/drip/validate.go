package drip

import (
	"errors"
	"fmt"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
)

var (
	// ErrUnsorted indicates timestamps that are not strictly ascending.
	ErrUnsorted = errors.New("drip history not strictly ascending")
	// ErrCurrencyMismatch indicates events mixing currencies.
	ErrCurrencyMismatch = errors.New("drip history mixes currencies")
)

// Validate checks the ordering Flatten relies on. Event sources call it before
// handing a history to the rest of the system.
func Validate(history []domain.DripHistoryEvent) error {
	for i, e := range history {
		if e.Balance.Currency() != e.AmtPerSec.Currency() {
			return fmt.Errorf("event %d: %w", i, ErrCurrencyMismatch)
		}
		if i == 0 {
			continue
		}
		prev := history[i-1]
		if prev.Balance.Currency() != e.Balance.Currency() {
			return fmt.Errorf("event %d: %w", i, ErrCurrencyMismatch)
		}
		if !e.Timestamp.After(prev.Timestamp) {
			return fmt.Errorf("event %d at %s after %s: %w", i, e.Timestamp.Format(time.RFC3339), prev.Timestamp.Format(time.RFC3339), ErrUnsorted)
		}
	}
	return nil
}
