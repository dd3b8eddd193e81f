package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ErrBadAmount is returned by ParseUnits for malformed input.
var ErrBadAmount = errors.New("invalid amount")

// FormatUnits renders base units as a decimal with trailing zeros dropped:
// 1500000000000000000 with 18 decimals is "1.5".
func FormatUnits(v *uint256.Int, decimals uint8) string {
	s := v.Dec()
	d := int(decimals)
	if d == 0 {
		return s
	}
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// ParseUnits is the inverse of FormatUnits. It refuses more fractional digits
// than decimals allows instead of rounding.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadAmount, s)
	}
	for _, part := range []string{whole, frac} {
		if strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadAmount, s)
		}
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrBadAmount, s, decimals)
	}
	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAmount, s, err)
	}
	return v, nil
}
