package validators

import "strings"

// SanitizeString trims whitespace and caps the result at maxLen runes,
// matching how the validator's max tag counts length.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}
