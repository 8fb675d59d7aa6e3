package validators

import "strings"

// SanitizeString trims whitespace and truncates free-text input before it
// reaches storage. Device names and profile fields pass through here.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
