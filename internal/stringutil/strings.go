// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"regexp"
	"strings"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9_]+`)

// NormalizeProgram lower-cases and trims a program name for matching.
// The original string is never mutated; matching always operates on this
// derived form.
func NormalizeProgram(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokenize splits a normalized program name on whitespace into a set of
// keyword tokens. Duplicate tokens collapse.
func Tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// Slugify builds a filesystem- and database-safe identifier from free text.
// Runs of characters outside [a-z0-9_] become single underscores.
//
// Example:
//
//	Slugify("Harvard University") returns "harvard_university"
//	Slugify("MIT (Cambridge)") returns "mit_cambridge_"
func Slugify(s string) string {
	return slugInvalidChars.ReplaceAllString(strings.ToLower(s), "_")
}

// SlugFromURL derives a readable college identifier from a source URL by
// stripping the scheme and www prefix and keeping the host.
func SlugFromURL(rawURL string) string {
	s := strings.TrimPrefix(rawURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, "/")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return Slugify(s)
}

// IsBlank reports whether a string is empty or whitespace-only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
