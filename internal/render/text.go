package render

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/styles"
)

const (
	// TruncateLength is the number of characters shown before "Read more".
	TruncateLength = 180

	truncationSuffix = "..."
	unknownInitials  = "?"
)

var themeColorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\)|[a-zA-Z]{3,20})$`)

// Initials derives avatar initials: first and last word initials, one letter
// for a single word, "?" for an empty name.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return unknownInitials
	}
	first := firstLetter(words[0])
	if len(words) == 1 {
		return first
	}
	return first + firstLetter(words[len(words)-1])
}

func firstLetter(word string) string {
	character, size := utf8.DecodeRuneInString(word)
	if size == 0 || character == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(character))
}

// Truncate shortens content longer than TruncateLength characters and reports
// whether it did.
func Truncate(content string) (string, bool) {
	characters := []rune(content)
	if len(characters) <= TruncateLength {
		return content, false
	}
	return strings.TrimRightFunc(string(characters[:TruncateLength]), unicode.IsSpace) + truncationSuffix, true
}

// SanitizeThemeColor accepts hex, rgb(a)/hsl(a) and named colors and falls back
// to the default theme color otherwise.
func SanitizeThemeColor(rawColor string) string {
	trimmed := strings.TrimSpace(rawColor)
	if trimmed == "" || !themeColorPattern.MatchString(trimmed) {
		return styles.DefaultThemeColor
	}
	return trimmed
}
