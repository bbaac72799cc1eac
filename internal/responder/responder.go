// Package responder answers free-text messages with canned replies.
package responder

import (
	"strings"
	"unicode"
)

const (
	Greeting    = "Hey there, how are you doing today?"
	Status      = "I am good."
	Description = "I am simpomni bot, a multifunctional bot that can carry out useful tasks and boost your creativity."
	Fallback    = "I don't know how to respond to what you sent."
)

// Respond maps text to a reply. Rules are tried in order and the first
// match wins; matching is case-insensitive.
func Respond(text string) string {
	processed := strings.ToLower(text)

	switch {
	case strings.Contains(processed, "hello") || containsWord(processed, "hi"):
		return Greeting
	case strings.Contains(processed, "how are you"):
		return Status
	case strings.Contains(processed, "what are you"):
		return Description
	default:
		return Fallback
	}
}

// StripMention removes every occurrence of handle from text. It reports
// false when handle is empty or absent, in which case a group message must
// be ignored.
func StripMention(text, handle string) (string, bool) {
	if handle == "" || !strings.Contains(text, handle) {
		return text, false
	}
	return strings.TrimSpace(strings.ReplaceAll(text, handle, "")), true
}

// containsWord reports whether word appears in s delimited by non-letters.
func containsWord(s, word string) bool {
	isSep := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
	for _, f := range strings.FieldsFunc(s, isSep) {
		if f == word {
			return true
		}
	}
	return false
}
