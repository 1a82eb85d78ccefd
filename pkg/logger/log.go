package logger

import (
	"strings"
)

var sensitive = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"x-api-key":           {},
}

func redactHeaderValue(k, v string) string {
	if v == "" {
		return ""
	}
	if _, ok := sensitive[strings.ToLower(k)]; ok {
		return "<redacted>"
	}
	return v
}

// HeaderPair is a key/value pair for SafeHeaders. Declared here so callers
// from any layer can log headers without this package importing them.
type HeaderPair struct {
	Key   string
	Value string
}

// SafeHeaders returns a compact string representation of headers suitable
// for logging, with sensitive values redacted.
func SafeHeaders(headers []HeaderPair) string {
	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		parts = append(parts, h.Key+"="+redactHeaderValue(h.Key, h.Value))
	}
	return strings.Join(parts, "; ")
}
