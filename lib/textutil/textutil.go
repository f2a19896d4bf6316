package textutil

import (
	"regexp"
	"strings"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and folds every run of interior
// whitespace (including newlines from multi-line table cells) into a
// single space.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = innerWhitespace.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ContainsDigit reports whether any rune in the string is an ascii digit.
func ContainsDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
