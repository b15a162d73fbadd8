package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelySpamToken(t *testing.T) {
	spam := []struct{ name, symbol string }{
		{"Visit site.com to claim", "SCAM"},
		{"Free Airdrop Token", "AIR"},
		{"Reward Token", "RWD"},
		{"Token", "www.evil.xyz"},
		{"$ 5000 Bonus", "BONUS"},
		{"https://phish.example", "PHI"},
	}
	for _, tt := range spam {
		assert.True(t, IsLikelySpamToken(tt.name, tt.symbol), "%s / %s", tt.name, tt.symbol)
	}

	legit := []struct{ name, symbol string }{
		{"USD Coin", "USDC"},
		{"Wrapped Ether", "WETH"},
		{"Dai Stablecoin", "DAI"},
		{"", ""},
		{"Chainlink", "LINK"},
	}
	for _, tt := range legit {
		assert.False(t, IsLikelySpamToken(tt.name, tt.symbol), "%s / %s", tt.name, tt.symbol)
	}
}
