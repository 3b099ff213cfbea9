package drip

import (
	"errors"
	"testing"

	"github.com/mtlprog/dripstat/internal/domain"
)

func TestValidateSorted(t *testing.T) {
	history := []domain.DripHistoryEvent{
		event(t, "1", "0.1", 0),
		event(t, "1", "0", 5),
	}
	if err := Validate(history); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Validate(nil); err != nil {
		t.Errorf("unexpected error for empty history: %v", err)
	}
}

func TestValidateRejectsUnsorted(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.DripHistoryEvent
	}{
		{"descending", []domain.DripHistoryEvent{event(t, "1", "0.1", 10), event(t, "1", "0.1", 5)}},
		{"duplicate timestamp", []domain.DripHistoryEvent{event(t, "1", "0.1", 10), event(t, "2", "0.1", 10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.history); !errors.Is(err, ErrUnsorted) {
				t.Errorf("Validate() error = %v, want ErrUnsorted", err)
			}
		})
	}
}

func TestValidateRejectsMixedCurrency(t *testing.T) {
	other, _ := domain.ParseMoney("usdc", "5")
	history := []domain.DripHistoryEvent{
		{Balance: other, AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(1)},
	}
	if err := Validate(history); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Validate() error = %v, want ErrCurrencyMismatch", err)
	}
}
