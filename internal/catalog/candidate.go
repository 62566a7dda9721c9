package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const keySeparator = '|'

// Candidate pairs a subject with an attribute. It is the unit of deduplication.
type Candidate struct {
	Subject   string
	Attribute string
}

// Key returns the deterministic history encoding of the candidate. Separator and
// escape characters inside either component are backslash-escaped so distinct
// pairs never encode to the same key.
func (c Candidate) Key() string {
	var b strings.Builder
	b.Grow(len(c.Subject) + len(c.Attribute) + 1)
	writeEscaped(&b, c.Subject)
	b.WriteByte(keySeparator)
	writeEscaped(&b, c.Attribute)
	return b.String()
}

// DisplayName renders "<Attribute> <Subject>" in title case, e.g. "Curious Owl".
func (c Candidate) DisplayName() string {
	caser := cases.Title(language.English)
	return strings.TrimSpace(caser.String(strings.TrimSpace(c.Attribute + " " + c.Subject)))
}

func (c Candidate) String() string {
	return c.Key()
}

// ParseKey inverts Candidate.Key.
func ParseKey(key string) (Candidate, error) {
	var (
		parts   [2]strings.Builder
		idx     int
		escaped bool
	)
	for i := 0; i < len(key); i++ {
		ch := key[i]
		switch {
		case escaped:
			parts[idx].WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == keySeparator:
			if idx == 1 {
				return Candidate{}, fmt.Errorf("candidate key %q has more than one separator", key)
			}
			idx = 1
		default:
			parts[idx].WriteByte(ch)
		}
	}
	if escaped {
		return Candidate{}, fmt.Errorf("candidate key %q ends with a dangling escape", key)
	}
	if idx != 1 {
		return Candidate{}, fmt.Errorf("candidate key %q has no separator", key)
	}
	return Candidate{Subject: parts[0].String(), Attribute: parts[1].String()}, nil
}

func writeEscaped(b *strings.Builder, value string) {
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch == '\\' || ch == keySeparator {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
}
