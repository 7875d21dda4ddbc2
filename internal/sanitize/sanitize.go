// Package sanitize cleans text that MCP tools hand back to an agent. Error
// messages can quote config files and paths, so they are stripped of
// control characters, markup and code fences before they leave the server.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the maximum length in bytes of a sanitized message,
// not counting the "..." marker.
const MaxMessageLength = 500

var (
	// reXMLTag matches XML/HTML tags, with attributes or self-closing, and
	// processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reTripleBacktick matches code fences.
	reTripleBacktick = regexp.MustCompile("```+")

	reSpaces = regexp.MustCompile(`[ \t]{2,}`)
)

// Message returns input as a single line safe to include in a tool result.
//
// The pipeline runs in this order:
//  1. Replace newlines and tabs with spaces, drop other control characters
//  2. Strip XML/HTML tags
//  3. Collapse code fences to a single backtick
//  4. Collapse runs of blanks and trim
//  5. Truncate to MaxMessageLength on a rune boundary
func Message(input string) string {
	if input == "" {
		return ""
	}
	s := flattenControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	if len(s) > MaxMessageLength {
		cut := MaxMessageLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// Messages applies Message to every element of in.
func Messages(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Message(s)
	}
	return out
}

// flattenControlChars maps \n, \r and \t to spaces and removes the other
// ASCII control characters and DEL.
func flattenControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
