// Package facts serves random facts from a catalog embedded at build time.
package facts

import (
	"bufio"
	_ "embed"
	"errors"
	"io"
	"math/rand/v2"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog would contain no facts.
var ErrEmptyCatalog = errors.New("fact catalog is empty")

//go:embed facts.txt
var embedded string

// Catalog is an immutable list of facts.
type Catalog struct {
	facts []string
}

// New builds a catalog from list. Blank entries are skipped.
func New(list []string) (*Catalog, error) {
	out := make([]string, 0, len(list))
	for _, f := range list {
		if f = cleanLine(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{facts: out}, nil
}

// Parse reads one fact per line. Trailing whitespace and commas are trimmed.
func Parse(r io.Reader) (*Catalog, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(lines)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(strings.NewReader(embedded))
	if err != nil {
		panic("facts: embedded catalog: " + err.Error())
	}
	return c
}

// Pick returns one fact chosen uniformly at random.
func (c *Catalog) Pick() string {
	return c.facts[rand.IntN(len(c.facts))]
}

// Len returns the number of facts.
func (c *Catalog) Len() int { return len(c.facts) }

// Facts returns a copy of the catalog entries.
func (c *Catalog) Facts() []string {
	out := make([]string, len(c.facts))
	copy(out, c.facts)
	return out
}

func cleanLine(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, " \t\r\n,"))
}
