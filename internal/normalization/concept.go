package normalization

import (
	"strings"
)

// MinConceptLength is the quality floor for normalized concept names.
// Anything shorter is OCR noise and is skipped by callers.
const MinConceptLength = 3

// ConceptName derives the dedup key for a raw concept name: lowercase,
// newlines/tabs to spaces, everything but [a-z0-9 ] stripped, runs of
// whitespace collapsed, trimmed. Idempotent.
func ConceptName(raw string) string {
	lowered := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return collapseSpaces(b.String())
}

// DisplayName trims and collapses internal whitespace but keeps casing and
// punctuation for the UI.
func DisplayName(raw string) string {
	replaced := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(raw)
	return collapseSpaces(replaced)
}

// TooShort reports whether a normalized name falls below the quality floor.
func TooShort(normalized string) bool {
	return len(normalized) < MinConceptLength
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
