package domain

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

// maxFractionDigits caps amount precision at parse time. Token decimals are
// not known until the contract is queried, so parsing accepts anything up to
// the widest common precision and the exact check against the live decimals
// happens during preflight scaling.
const maxFractionDigits = 18

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	amountPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ValidAddress reports whether s is a well-formed hex account address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ValidAmount reports whether s is an unsigned decimal amount with at most
// maxFractionDigits fractional digits.
func ValidAmount(s string) bool {
	if !amountPattern.MatchString(s) {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return int(-d.Exponent()) <= maxFractionDigits
}

// ScaleToBaseUnits converts a human-unit amount to the token's base unit,
// amount * 10^decimals, exactly. Amounts with more fractional digits than the
// token allows are an error; precision is never rounded away.
func ScaleToBaseUnits(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount.String(), decimals)
	}
	return scaled.BigInt(), nil
}
