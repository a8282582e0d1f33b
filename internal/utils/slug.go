package utils

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slug turns a column or file label into a lowercase ASCII name safe for
// file paths. Non-Latin text is transliterated first ("年龄" -> "nian-ling").
func Slug(s string) string {
	ascii := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
	var b strings.Builder
	dash := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteRune('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "column"
	}
	return out
}
