package provider

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		want     string
	}{
		{"one ether", "1000000000000000000", 18, "1"},
		{"one ether hex", "0xde0b6b3a7640000", 18, "1"},
		{"fraction", "1500000000000000000", 18, "1.5"},
		{"trims trailing zeros", "1100000000000000000", 18, "1.1"},
		{"sub one", "500000000000000000", 18, "0.5"},
		{"dust", "1", 18, "0.000000000000000001"},
		{"zero", "0", 18, "0"},
		{"zero hex", "0x0", 18, "0"},
		{"no decimals", "42", 0, "42"},
		{"usdc six decimals", "12345678", 6, "12.345678"},
		{"large", "123456789012345678901234567890", 18, "123456789012.34567890123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatUnits(tt.raw, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatUnitsInvalid(t *testing.T) {
	_, err := FormatUnits("", 18)
	assert.Error(t, err)

	_, err = FormatUnits("not-a-number", 18)
	assert.Error(t, err)

	_, err = FormatUnits("100", -1)
	assert.Error(t, err)
}

func TestFormatUnitsRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("formatted value scales back to the raw amount", prop.ForAll(
		func(raw uint64, decimals uint8) bool {
			d := int(decimals % 19)
			formatted, err := FormatUnits(fmt.Sprintf("%d", raw), d)
			if err != nil {
				return false
			}

			scaled, ok := new(big.Rat).SetString(formatted)
			if !ok {
				return false
			}
			multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
			scaled.Mul(scaled, new(big.Rat).SetInt(multiplier))

			return scaled.IsInt() && scaled.Num().Cmp(new(big.Int).SetUint64(raw)) == 0
		},
		gen.UInt64(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func TestHexToDecimal(t *testing.T) {
	got, err := HexToDecimal("0x12c")
	require.NoError(t, err)
	assert.Equal(t, "300", got)

	got, err = HexToDecimal("0x0")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = HexToDecimal("12c")
	assert.Error(t, err)
}

func TestDecimalToHex(t *testing.T) {
	got, err := DecimalToHex("300")
	require.NoError(t, err)
	assert.Equal(t, "0x12c", got)

	got, err = DecimalToHex("0")
	require.NoError(t, err)
	assert.Equal(t, "0x0", got)

	_, err = DecimalToHex("-5")
	assert.Error(t, err)

	_, err = DecimalToHex("abc")
	assert.Error(t, err)
}

func TestCompareDecimal(t *testing.T) {
	assert.Equal(t, 0, CompareDecimal("", ""))
	assert.Equal(t, -1, CompareDecimal("", "0"))
	assert.Equal(t, 1, CompareDecimal("0", ""))
	assert.Equal(t, -1, CompareDecimal("9", "10"))
	assert.Equal(t, 1, CompareDecimal("100", "99"))
	assert.Equal(t, 0, CompareDecimal("42", "42"))
}
