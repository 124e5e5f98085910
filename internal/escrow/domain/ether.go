package domain

import (
	"fmt"
	"math/big"
	"strings"
)

const weiDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(weiDecimals), nil)

// ParseEther converts a decimal ETH string such as "1.5" into wei. More than
// 18 fractional digits is an error rather than a silent truncation.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(frac) > weiDecimals {
		return nil, fmt.Errorf("%w: more than %d decimals", ErrInvalidAmount, weiDecimals)
	}
	if !digits(whole) || !digits(frac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	combined := whole + frac + strings.Repeat("0", weiDecimals-len(frac))
	wei, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if neg {
		wei.Neg(wei)
	}
	return wei, nil
}

// FormatEther renders wei as a decimal ETH string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	abs := new(big.Int).Abs(wei)
	q, r := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	out := q.String()
	if r.Sign() != 0 {
		rs := r.String()
		frac := strings.Repeat("0", weiDecimals-len(rs)) + rs
		out += "." + strings.TrimRight(frac, "0")
	}
	if wei.Sign() < 0 {
		out = "-" + out
	}
	return out
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
