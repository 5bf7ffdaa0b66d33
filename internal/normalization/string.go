package normalization

import (
	"strings"
)

// Key lower-cases and trims a free-form identifier such as a product kind
// or a setting field name.
func Key(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Denotation trims a denotation and collapses runs of inner whitespace to
// a single space. Case is kept: designations are case sensitive.
func Denotation(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
