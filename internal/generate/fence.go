package generate

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^```\\w*\\n?")
	closingFence = regexp.MustCompile("\\n?```$")
)

// StripCodeFences removes a single leading ```lang line and a single
// trailing ``` from s, then trims surrounding whitespace. It does not
// recurse and does not look at the content in between.
func StripCodeFences(s string) string {
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
