package domain

import "strings"

// NormalizeText trims leading/trailing whitespace.
// It is applied to free-text record fields before validation and storage.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
