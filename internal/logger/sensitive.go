package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveDataPatterns match secrets embedded in free text
var sensitiveDataPatterns = []*regexp.Regexp{
	// user:password@ in DSNs and shoutrrr URLs
	regexp.MustCompile(`(://[^:/@\s]+:)([^@\s]+)(@)`),
	// password=..., token: ..., api_key=...
	regexp.MustCompile(`(?i)((?:api[_-]?key|token|secret|passw(?:or)?d)[\s:=]+)([^;,&\s]+)()`),
}

// sensitiveKeywords are field key fragments that mark the value as a secret
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey", "dsn", "credential",
}

// RedactSensitiveData replaces secrets embedded in input with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}"+redacted+"${3}")
	}
	return input
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
