package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateTraceID generates a random 16-byte hex trace ID.
func GenerateTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// SplitList explodes a delimiter-joined string into its parts.
// An empty input yields an empty, non-nil slice.
func SplitList(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}
