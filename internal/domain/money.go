package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency identifies the token an amount is denominated in.
type Currency string

const CurrencyDAI Currency = "dai"

// daiDecimals is the number of decimal places between wei and one DAI.
const daiDecimals = 18

// ErrInvalidAmount indicates a negative, fractional or unparseable amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is a non-negative integral amount in the smallest unit of its currency (wei).
// The zero value is zero DAI.
type Money struct {
	currency Currency
	wei      decimal.Decimal
}

// ZeroDAI returns zero DAI.
func ZeroDAI() Money {
	return Money{currency: CurrencyDAI, wei: decimal.Zero}
}

// DAI returns a DAI amount of the given wei. Negative input yields zero.
func DAI(wei int64) Money {
	if wei < 0 {
		return ZeroDAI()
	}
	return Money{currency: CurrencyDAI, wei: decimal.NewFromInt(wei)}
}

// NewMoney validates d as a wei amount and wraps it.
func NewMoney(currency Currency, d decimal.Decimal) (Money, error) {
	if d.IsNegative() || !d.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, d.String())
	}
	return Money{currency: currency, wei: d.Truncate(0)}, nil
}

// ParseMoney parses a decimal-string wei amount such as "1000000000000000000".
func ParseMoney(currency Currency, s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewMoney(currency, d)
}

// ParseDAI parses a human DAI amount such as "1.5" into wei.
func ParseDAI(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewMoney(CurrencyDAI, d.Shift(daiDecimals))
}

// Currency returns the currency code, defaulting to DAI.
func (m Money) Currency() Currency {
	if m.currency == "" {
		return CurrencyDAI
	}
	return m.currency
}

// Wei returns the raw integral amount.
func (m Money) Wei() decimal.Decimal {
	return m.wei
}

func (m Money) IsZero() bool {
	return m.wei.IsZero()
}

// Cmp compares amounts, ignoring currency.
func (m Money) Cmp(o Money) int {
	return m.wei.Cmp(o.wei)
}

// Equal reports whether both currency and amount match.
func (m Money) Equal(o Money) bool {
	return m.Currency() == o.Currency() && m.wei.Equal(o.wei)
}

func (m Money) Add(o Money) Money {
	return Money{currency: m.Currency(), wei: m.wei.Add(o.wei)}
}

// Sub subtracts o, clamping at zero.
func (m Money) Sub(o Money) Money {
	d := m.wei.Sub(o.wei)
	if d.IsNegative() {
		d = decimal.Zero
	}
	return Money{currency: m.Currency(), wei: d}
}

// Mul multiplies by a whole number of seconds. Non-positive n yields zero.
func (m Money) Mul(n int64) Money {
	if n <= 0 {
		return Money{currency: m.Currency(), wei: decimal.Zero}
	}
	return Money{currency: m.Currency(), wei: m.wei.Mul(decimal.NewFromInt(n))}
}

// DivFloor returns floor(m / rate) as whole seconds, saturating at math.MaxInt64.
// A zero rate returns 0; callers guard that case before asking.
func (m Money) DivFloor(rate Money) int64 {
	if rate.wei.Sign() <= 0 {
		return 0
	}
	q, _ := m.wei.QuoRem(rate.wei, 0)
	return toInt64(q)
}

// String returns the wei amount as a decimal integer string.
func (m Money) String() string {
	return m.wei.String()
}

// Units returns the amount in whole currency units.
func (m Money) Units() decimal.Decimal {
	return m.wei.Shift(-daiDecimals)
}

// Format renders the amount in whole currency units with at most places decimals.
func (m Money) Format(places int32) string {
	return formatUnits(m.Units(), places)
}

type moneyJSON struct {
	Currency Currency `json:"currency"`
	Wei      string   `json:"wei"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Currency: m.Currency(), Wei: m.wei.String()})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding money: %w", err)
	}
	if raw.Currency == "" {
		raw.Currency = CurrencyDAI
	}
	if raw.Wei == "" {
		raw.Wei = "0"
	}
	parsed, err := ParseMoney(raw.Currency, raw.Wei)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
