package assets

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowedFilenameChars = regexp.MustCompile("[\\x00-\\x1f\\x7f?\\[\\]/\\\\=<>:;,'\"&$#*()|~`!{}%+—–‘’“”]")
	filenameSeparators      = regexp.MustCompile(`[\s-]+`)
)

// SanitizeFilename strips characters that are unsafe in file and folder names.
// With asciiOnly, accented letters are transliterated and other non-ASCII runes dropped.
func SanitizeFilename(name string, asciiOnly bool) string {
	name = disallowedFilenameChars.ReplaceAllString(name, "")
	name = filenameSeparators.ReplaceAllString(strings.TrimSpace(name), "-")

	if asciiOnly {
		name = ToASCII(name)
	}

	return strings.Trim(name, ".-_")
}

// ToASCII decomposes runes, drops combining marks, then any rune outside ASCII.
func ToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, result)
}

// SanitizePath sanitizes each segment of a slash separated path.
func SanitizePath(p string, asciiOnly bool) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = SanitizeFilename(segment, asciiOnly)
	}
	return strings.Join(segments, "/")
}
