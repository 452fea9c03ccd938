// Package urlcanon canonicalizes user-entered links and checks them against
// provider-specific shapes.
package urlcanon

import (
	"regexp"
	"strings"

	"github.com/khoahotran/folio/pkg/schema"
)

type Kind int

const (
	Generic Kind = iota
	LinkedInProfile
	GitHubProfile
	GitHubRepo
)

// Patterns run against canonical (lower-cased, scheme-prefixed) URLs.
var patterns = map[Kind]*regexp.Regexp{
	Generic:         regexp.MustCompile(`^(https?://)?[a-z\d.-]+\.[a-z]{2,}(:\d{1,5})?([/?#]\S*)?$`),
	LinkedInProfile: regexp.MustCompile(`^(https?://)?(www\.)?linkedin\.com/in/[a-z0-9\-_%]+/?$`),
	GitHubProfile:   regexp.MustCompile(`^(https?://)?(www\.)?github\.com/[a-z0-9-]+/?$`),
	GitHubRepo:      regexp.MustCompile(`^(https?://)?(www\.)?github\.com/[a-z0-9-]+/[a-z0-9\-_]+/?$`),
}

var messages = map[Kind]string{
	Generic:         "Invalid project URL",
	LinkedInProfile: "Invalid LinkedIn profile URL",
	GitHubProfile:   "Invalid GitHub profile URL",
	GitHubRepo:      "Invalid GitHub repository URL",
}

// Canonicalize trims raw, prefixes https:// when no http(s) scheme is present
// and lower-cases the result. Blank input gives "".
func Canonicalize(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		lower = "https://" + lower
	}
	return lower
}

// Valid reports whether an already canonical URL has the shape required by kind.
func Valid(kind Kind, canonical string) bool {
	re, ok := patterns[kind]
	if !ok {
		return false
	}
	return re.MatchString(canonical)
}

// Message is the validation message reported for a URL of kind that fails its check.
func Message(kind Kind) string {
	return messages[kind]
}

// Parse canonicalizes and checks raw. Blank input gives (nil, true).
func Parse(kind Kind, raw string) (*string, bool) {
	u := Canonicalize(raw)
	if u == "" {
		return nil, true
	}
	if !Valid(kind, u) {
		return nil, false
	}
	return &u, true
}

// Rule adapts the canonicalizer to a schema string rule.
func Rule(kind Kind) schema.Rule {
	return func(v string) (string, string) {
		u := Canonicalize(v)
		if !Valid(kind, u) {
			return v, Message(kind)
		}
		return u, ""
	}
}
