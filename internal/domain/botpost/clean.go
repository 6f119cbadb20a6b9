package botpost

import (
	"regexp"
	"strings"
)

var (
	bracketSpans   = regexp.MustCompile(`\[.*?\]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// CleanResponse normalizes raw model output into postable text:
//   - drops everything up to and including the first colon (role prefixes
//     like "Assistant:")
//   - removes bracketed spans (stage directions, meta-annotations)
//   - collapses whitespace runs to single spaces and trims
//
// Each rule degrades to a no-op when its pattern is absent, so the
// transformation never fails and applying it twice changes nothing.
func CleanResponse(text string) string {
	if _, rest, found := strings.Cut(text, ":"); found {
		text = rest
	}
	text = bracketSpans.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
