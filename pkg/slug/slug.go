// Package slug derives URL-safe identifiers from display names such as
// experience titles and destination names.
package slug

import "strings"

// translit maps accented characters common in destination and experience
// names to ASCII. Characters not covered here fall through to the
// non-alphanumeric handling below.
var translit = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'ğ': 'g',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i', 'ı': 'i',
	'ñ': 'n',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ş': 's', 'ß': 's',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y',
}

// Generate converts a display name into a lowercase hyphen-separated slug.
//
//	"Sunset Sailing in the Algarve" -> "sunset-sailing-in-the-algarve"
//	"São Paulo"                     -> "sao-paulo"
//	"Côte d'Azur Wine Tour"         -> "cote-d-azur-wine-tour"
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if t, ok := translit[r]; ok {
			r = t
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
