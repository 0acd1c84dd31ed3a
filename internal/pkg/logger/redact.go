package logger

import "strings"

// secretKeywords marks log field keys whose values are credentials.
var secretKeywords = []string{"token", "secret", "key", "password", "credential"}

// redactSecretValue masks values for credential-bearing keys. A short prefix
// is kept so operators can still correlate rotated credentials.
func redactSecretValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return Mask(val)
		}
	}
	return val
}

// Mask replaces all but the first four characters of a secret with asterisks.
func Mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
