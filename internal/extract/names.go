package extract

import (
	"regexp"
	"strings"
)

const (
	minNameLen = 4
	maxNameLen = 99
)

var (
	// Longer labels first so "given name" is not read as "name".
	reNameLabel = regexp.MustCompile(`(?i:\b(?:given names?|family name|surname|full name|name))[: \t]+([A-Z][A-Z ]+)`)
	reSurname   = regexp.MustCompile(`(?i:\b(?:surname|family name|last name))[: \t]+([A-Z][A-Z -]*[A-Z])`)
	reGiven     = regexp.MustCompile(`(?i:\b(?:given names?|first name))[: \t]+([A-Z][A-Z -]*[A-Z])`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

func collapse(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func validName(s string) bool {
	return len(s) >= minNameLen && len(s) <= maxNameLen
}

// findName returns the first labelled upper-case run whose length is sane.
func findName(text string) string {
	for _, m := range reNameLabel.FindAllStringSubmatch(text, -1) {
		if name := collapse(m[1]); validName(name) {
			return name
		}
	}
	return ""
}

// findSplitName reads separate surname and given-name labels.
func findSplitName(text string) (given, surname string) {
	if m := reGiven.FindStringSubmatch(text); m != nil {
		given = collapse(m[1])
	}
	if m := reSurname.FindStringSubmatch(text); m != nil {
		surname = collapse(m[1])
	}
	return given, surname
}

// splitFullName treats the first token as the given name.
func splitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// findLabelled returns an upper-case value after any label, with the given
// length bounds.
func findLabelled(re *regexp.Regexp, text string, minLen, maxLen int) string {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v := strings.Trim(collapse(m[1]), ", ")
		if len(v) >= minLen && len(v) <= maxLen {
			return v
		}
	}
	return ""
}
