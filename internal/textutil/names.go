package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// Slug lowercases text and joins its alphanumeric runs with dashes, for use
// in artifact filenames and derived event ids.
func Slug(text string) string {
	tokens := tokenSplitPattern.Split(strings.ToLower(strings.TrimSpace(text)), -1)
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		parts = append(parts, token)
	}
	if len(parts) == 0 {
		return "untitled"
	}
	return strings.Join(parts, "-")
}

var titleCaser = cases.Title(language.English)

// TitleCase renders text in English title casing for display headings.
func TitleCase(text string) string {
	return titleCaser.String(strings.TrimSpace(text))
}
