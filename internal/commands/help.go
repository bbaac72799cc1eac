package commands

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the chunk size used for long replies. Telegram caps a
// message at 4096 characters.
const MaxMessageLength = 4000

const helpHeader = "Available commands and their descriptions:\n"

// Listing renders every command as "/name: description" lines.
func (r *Registry) Listing() string {
	var b strings.Builder
	b.WriteString(helpHeader)
	for _, c := range r.Commands() {
		fmt.Fprintf(&b, "/%s: %s\n", c.Name, c.Description)
	}
	return b.String()
}

// Help returns the reply chunks for /help. With no args it is the full
// listing split to MaxMessageLength; otherwise the description of args[0].
func (r *Registry) Help(args []string) []string {
	if len(args) == 0 {
		return SplitMessage(r.Listing(), MaxMessageLength)
	}
	name := args[0]
	c, ok := r.Lookup(name)
	if !ok {
		return []string{fmt.Sprintf("No command named '%s' found.", name)}
	}
	return []string{fmt.Sprintf("Help for '%s':\n%s", c.Name, c.Description)}
}

// SplitMessage cuts text into chunks of at most limit bytes whose
// concatenation is text. Cuts fall after the last newline in the window;
// a line longer than limit is cut on a rune boundary.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n') + 1
		if cut == 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
