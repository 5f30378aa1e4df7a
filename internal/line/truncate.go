package line

import "unicode/utf8"

const (
	// MaxTextRunes is the length limit of a text message.
	MaxTextRunes = 5000
	// MaxAltTextRunes is the length limit of a flex message alt text.
	MaxAltTextRunes = 400

	truncatedMarker = "…"
)

// Truncate cuts s to at most limit runes, ending with a marker when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(truncatedMarker)
	if keep <= 0 {
		return truncatedMarker
	}
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + truncatedMarker
		}
		n++
	}
	return s
}
