package provider

import (
	"regexp"
	"strings"
)

// Patterns commonly seen in airdropped scam token names and symbols.
// The screen is intentionally coarse; whitelisting overrides it downstream.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)visit\s`),
	regexp.MustCompile(`(?i)claim`),
	regexp.MustCompile(`(?i)airdrop`),
	regexp.MustCompile(`(?i)reward`),
	regexp.MustCompile(`(?i)\.com`),
	regexp.MustCompile(`(?i)\.io`),
	regexp.MustCompile(`(?i)\.net`),
	regexp.MustCompile(`(?i)\.org`),
	regexp.MustCompile(`(?i)\.xyz`),
	regexp.MustCompile(`(?i)www\.`),
	regexp.MustCompile(`(?i)https?:`),
	regexp.MustCompile(`(?i)\bfree\b`),
	regexp.MustCompile(`(?i)bonus`),
	regexp.MustCompile(`\$\s*\d`),
}

// IsLikelySpamToken screens a token's name and symbol for airdrop-scam
// patterns. Native assets (nil token address upstream) are never spam.
func IsLikelySpamToken(name, symbol string) bool {
	text := strings.TrimSpace(name + " " + symbol)
	if text == "" {
		return false
	}
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
