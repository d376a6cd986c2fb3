// Package igt carries a minimal Xigt object model: corpora of interlinear
// glossed text records, each an ordered list of tiers holding ordered items,
// with key-value metadata attached at every level. The database core treats
// records as opaque beyond their ID, tier count, and subject language.
package igt

import "strings"

// DefaultLanguageCode is used when a record carries no subject language.
const DefaultLanguageCode = "und"

// Corpus is a collection of IGTs plus corpus-level metadata.
type Corpus struct {
	ID         string            `json:"id,omitempty"`
	Namespaces map[string]string `json:"namespaces,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metadata   []Metadata        `json:"metadata,omitempty"`
	Igts       []*Igt            `json:"igts"`
}

// Igt is one interlinear glossed text record.
type Igt struct {
	ID         string            `json:"id,omitempty"`
	Type       string            `json:"type,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metadata   []Metadata        `json:"metadata,omitempty"`
	Tiers      []Tier            `json:"tiers,omitempty"`
}

// TierCount returns the number of tiers in the record.
func (ig *Igt) TierCount() int { return len(ig.Tiers) }

// Tier is an ordered group of items sharing a type (words, glosses, ...).
type Tier struct {
	ID         string            `json:"id,omitempty"`
	Type       string            `json:"type,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metadata   []Metadata        `json:"metadata,omitempty"`
	Items      []Item            `json:"items,omitempty"`
}

// Item is a leaf annotation unit.
type Item struct {
	ID         string            `json:"id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
}

// Metadata is a typed block of metas.
type Metadata struct {
	Type       string            `json:"type,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metas      []Meta            `json:"metas,omitempty"`
}

// Meta is one metadata entry; it may carry text directly or nest arbitrary
// elements (the DC/OLAC convention puts subjects in children).
type Meta struct {
	Type       string            `json:"type,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Children   []MetaChild       `json:"children,omitempty"`
}

// MetaChild is an arbitrary element nested under a meta, identified by its
// qualified name (e.g. "dc:subject").
type MetaChild struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Children   []MetaChild       `json:"children,omitempty"`
}

// SubjectLanguage returns the record's subject language code and name from
// its DC/OLAC metadata (<dc:subject olac:code="ase">American Sign
// Language</dc:subject>), defaulting to ("und", "") when absent. Codes are
// lowercased and ':' separators normalized to '-'.
func (ig *Igt) SubjectLanguage() (code, name string) {
	for _, md := range ig.Metadata {
		for _, m := range md.Metas {
			if m.Type == "subject" {
				return languageFields(m.Attributes, m.Text)
			}
			if c, n, ok := findSubject(m.Children); ok {
				return c, n
			}
		}
	}
	return DefaultLanguageCode, ""
}

func findSubject(children []MetaChild) (string, string, bool) {
	for _, c := range children {
		if c.Name == "dc:subject" || c.Name == "subject" {
			code, name := languageFields(c.Attributes, c.Text)
			return code, name, true
		}
		if code, name, ok := findSubject(c.Children); ok {
			return code, name, ok
		}
	}
	return "", "", false
}

func languageFields(attrs map[string]string, text string) (string, string) {
	code := attrs["olac:code"]
	if code == "" {
		code = attrs["code"]
	}
	if code == "" {
		code = DefaultLanguageCode
	}
	code = strings.ToLower(strings.ReplaceAll(code, ":", "-"))
	return code, text
}
