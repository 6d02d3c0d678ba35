package normalization

import (
	"strings"
)

// ParseInputString lowercases and trims free-form auth input.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
