package provider

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatUnits converts a raw integer amount (hex with 0x prefix, or decimal
// string) into a human-readable decimal string using the token's decimals.
// Trailing fractional zeros are trimmed; whole amounts carry no decimal point.
func FormatUnits(raw string, decimals int) (string, error) {
	amount, ok := parseBigInt(raw)
	if !ok {
		return "", fmt.Errorf("invalid amount: %q", raw)
	}
	if decimals < 0 {
		return "", fmt.Errorf("invalid decimals: %d", decimals)
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))

	if frac.Sign() == 0 {
		return whole.String(), nil
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	return whole.String() + "." + fracStr, nil
}

// parseBigInt parses a hex (0x-prefixed) or decimal big integer
func parseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		// hexutil rejects "0x"; treat it as zero like the upstream API does
		if len(s) == 2 {
			return big.NewInt(0), true
		}
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}

// HexToDecimal converts a 0x-prefixed hex block number to a decimal string
func HexToDecimal(hex string) (string, error) {
	n, err := hexutil.DecodeBig(hex)
	if err != nil {
		return "", fmt.Errorf("invalid hex number %q: %w", hex, err)
	}
	return n.String(), nil
}

// DecimalToHex converts a decimal block number string to 0x-prefixed hex
func DecimalToHex(dec string) (string, error) {
	n, ok := new(big.Int).SetString(dec, 10)
	if !ok {
		return "", fmt.Errorf("invalid decimal number %q", dec)
	}
	if n.Sign() < 0 {
		return "", fmt.Errorf("negative block number %q", dec)
	}
	return hexutil.EncodeBig(n), nil
}

// CompareDecimal compares two non-negative decimal number strings,
// returning -1, 0, or 1. An empty string sorts before any number.
func CompareDecimal(a, b string) int {
	if a == "" || b == "" {
		switch {
		case a == "" && b == "":
			return 0
		case a == "":
			return -1
		default:
			return 1
		}
	}
	an, aok := new(big.Int).SetString(a, 10)
	bn, bok := new(big.Int).SetString(b, 10)
	if !aok || !bok {
		return strings.Compare(a, b)
	}
	return an.Cmp(bn)
}
