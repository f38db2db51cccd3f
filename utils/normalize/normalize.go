// Package normalize canonicalizes free-text movie titles into
// comparison keys for watch-history deduplication.
package normalize

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Normalize projects a title onto its comparison key: romanized to
// ASCII, lower-cased, with everything but letters and digits dropped.
// Titles that differ only by case, punctuation or whitespace share a
// key; that collision is the sole fuzzy-matching mechanism and distinct
// titles sharing all alphanumerics are an accepted false positive.
func Normalize(title string) string {
	ascii := unidecode.Unidecode(title)

	var b strings.Builder
	b.Grow(len(ascii))
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
