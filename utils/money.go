package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrencySymbol is printed in front of every amount unless the
// deployment overrides it
const DefaultCurrencySymbol = "R"

// MaxAmount bounds printable amounts; the cent value of anything larger does not fit an int64
const MaxAmount = 1e13

const maxCents = int64(MaxAmount * 100)

// ErrAmountOutOfRange is returned for amounts that are not finite or not below MaxAmount
var ErrAmountOutOfRange = errors.New("amount out of range")

// ValidAmount reports whether amount is finite and smaller than MaxAmount in magnitude
func ValidAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && math.Abs(amount) < MaxAmount
}

// ToCents converts an amount to whole cents using half-up rounding
// (half away from zero for negatives).
// The amount is rounded on its shortest decimal representation, so 42.005
// becomes 4201 cents even though the float64 is slightly below 42.005.
func ToCents(amount float64) (int64, error) {
	if !ValidAmount(amount) {
		return 0, fmt.Errorf("%w: %v", ErrAmountOutOfRange, amount)
	}
	neg := amount < 0
	s := strconv.FormatFloat(math.Abs(amount), 'f', -1, 64)

	whole, frac, _ := strings.Cut(s, ".")
	frac += "000"

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAmountOutOfRange, err)
	}
	hundredths, err := strconv.ParseInt(frac[:2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := units*100 + hundredths
	if frac[2] >= '5' {
		cents++
	}

	if neg {
		return -cents, nil
	}
	return cents, nil
}

// RoundCents is ToCents for amounts already checked with ValidAmount.
// Out-of-range amounts saturate at MaxAmount with their sign kept; NaN is zero.
func RoundCents(amount float64) int64 {
	cents, err := ToCents(amount)
	if err == nil {
		return cents
	}
	switch {
	case math.IsNaN(amount):
		return 0
	case amount < 0:
		return -maxCents
	default:
		return maxCents
	}
}

// FormatCents formats a cent amount as "R42.00".
// Always two decimals, dot separator, no thousands grouping.
func FormatCents(cents int64, symbol string) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	var b strings.Builder
	b.Grow(len(symbol) + 24)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	b.WriteString(strconv.FormatInt(cents/100, 10))
	b.WriteByte('.')
	rem := cents % 100
	if rem < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(rem, 10))
	return b.String()
}

// FormatMoney rounds half-up to two decimals and formats with the symbol
func FormatMoney(amount float64, symbol string) string {
	return FormatCents(RoundCents(amount), symbol)
}
