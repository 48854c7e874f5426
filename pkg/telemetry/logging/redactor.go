package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "***"

// secretKeys are attribute keys whose values are always masked.
var secretKeys = map[string]bool{
	"api_key":      true,
	"apikey":       true,
	"token":        true,
	"password":     true,
	"x-api-key":    true,
	"x-plex-token": true,
}

// secretPattern matches credentials embedded in URLs and headers.
var secretPattern = regexp.MustCompile(`(?i)((?:x-plex-token|apikey|api_key|x-api-key)[=:]\s*)[^&\s"]+`)

// redactAttr is a slog ReplaceAttr function masking secrets.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); secretPattern.MatchString(s) {
			return slog.String(a.Key, RedactString(s))
		}
	}
	return a
}

// RedactString masks credentials embedded in s.
func RedactString(s string) string {
	return secretPattern.ReplaceAllString(s, "${1}"+redacted)
}
