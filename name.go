package ownership

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes an entity name for comparison: accents are dropped, blanks
// are collapsed to single spaces and letters are upper-cased.
// "  Dra. Blue  Glów inc" folds to "DRA. BLUE GLOW INC".
func Fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return cases.Upper(language.Und).String(strings.Join(strings.Fields(stripped), " "))
}

// Canonicalizer maps entity names to a single comparable key.
// The zero value only folds names.
type Canonicalizer struct {
	aliases map[string]string
}

// NewCanonicalizer creates a canonicalizer from an alias table mapping a
// spelling to the name it stands for. Both sides are folded.
func NewCanonicalizer(aliases map[string]string) *Canonicalizer {
	c := &Canonicalizer{aliases: make(map[string]string, len(aliases))}
	for from, to := range aliases {
		from, to = Fold(from), Fold(to)
		if from == "" || to == "" || from == to {
			continue
		}
		c.aliases[from] = to
	}
	return c
}

// Canonical returns the key of 'name'. Alias chains are followed to their
// end; a chain looping on itself resolves to the smallest name of the loop so
// that Canonical(Canonical(x)) == Canonical(x) always holds.
func (c *Canonicalizer) Canonical(name string) string {
	key := Fold(name)
	if c == nil || len(c.aliases) == 0 {
		return key
	}
	seen := make(map[string]int)
	var chain []string
	for {
		if i, ok := seen[key]; ok {
			loop := chain[i:]
			smallest := loop[0]
			for _, k := range loop[1:] {
				if k < smallest {
					smallest = k
				}
			}
			return smallest
		}
		seen[key] = len(chain)
		chain = append(chain, key)
		next, ok := c.aliases[key]
		if !ok {
			return key
		}
		key = next
	}
}

// Aliases returns a copy of the folded alias table.
func (c *Canonicalizer) Aliases() map[string]string {
	m := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		m[k] = v
	}
	return m
}

// tokens splits a folded name into words, trimming trailing dots and commas
// so that "S.A." and "S.A" compare equal.
func tokens(folded string) []string {
	fields := strings.Fields(folded)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".,")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
