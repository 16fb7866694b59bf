// internal/domain/models/money.go
package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in centavos. JSON carries it as a decimal peso value
// (150.25); BSON stores the raw int64 so $inc stays exact.
type Money int64

// ErrAmountOutOfRange is returned for amounts whose centavo value does not fit in an int64.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Pesos converts a decimal peso amount to Money, rounding to the nearest centavo.
func Pesos(v float64) Money {
	return Money(math.Round(v * 100))
}

// Float returns the amount in pesos.
func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*m = 0
		return nil
	}
	// Accept quoted numbers from form-style clients.
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", string(b))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid amount %q", string(b))
	}
	// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
	if c := math.Round(v * 100); c >= math.MaxInt64 || c < math.MinInt64 {
		return fmt.Errorf("%w: %q", ErrAmountOutOfRange, string(b))
	}
	*m = Pesos(v)
	return nil
}
