package igt

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Namespace URIs seen in Xigt XML corpora, mapped back to their conventional
// prefixes. encoding/xml resolves declared prefixes to full URIs, so the
// reverse mapping keeps qualified names like "olac:code" stable regardless
// of the prefix a document chose.
var nsPrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":              "dc",
	"http://purl.org/dc/terms/":                     "dcterms",
	"http://www.language-archives.org/OLAC/1.1/":    "olac",
	"http://www.w3.org/XML/1998/namespace":          "xml",
	"http://www.language-archives.org/OLAC/1.0/":    "olac",
	"http://www.w3.org/2001/XMLSchema-instance":     "xsi",
	"http://depts.washington.edu/uwcl/xigt/1.0.html": "",
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	prefix, ok := nsPrefixes[n.Space]
	if !ok {
		// Unknown namespace: fall back to the last path segment.
		prefix = n.Space[strings.LastIndexAny(n.Space, "/#")+1:]
	}
	if prefix == "" {
		return n.Local
	}
	return prefix + ":" + n.Local
}

func attrMap(start xml.StartElement, skip ...string) map[string]string {
	attrs := make(map[string]string)
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		name := qname(a.Name)
		skipped := false
		for _, s := range skip {
			if name == s {
				skipped = true
				break
			}
		}
		if !skipped {
			attrs[name] = a.Value
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// DecodeXML parses a Xigt XML corpus document (<xigt-corpus> with nested
// <igt>, <tier>, <item>, and <metadata> elements).
func DecodeXML(data []byte) (*Corpus, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("decode xml corpus: no xigt-corpus element")
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml corpus: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "xigt-corpus" {
			return nil, fmt.Errorf("decode xml corpus: unexpected root element %q", start.Name.Local)
		}
		xc, err := decodeCorpus(d, start)
		if err != nil {
			return nil, fmt.Errorf("decode xml corpus: %w", err)
		}
		return xc, nil
	}
}

func decodeCorpus(d *xml.Decoder, start xml.StartElement) (*Corpus, error) {
	xc := &Corpus{Attributes: attrMap(start, "id")}
	xc.ID = findAttr(start, "id")
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "metadata":
				md, err := decodeMetadata(d, t)
				if err != nil {
					return nil, err
				}
				xc.Metadata = append(xc.Metadata, md)
			case "igt":
				ig, err := decodeIgt(d, t)
				if err != nil {
					return nil, err
				}
				xc.Igts = append(xc.Igts, ig)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return xc, nil
		}
	}
}

func decodeIgt(d *xml.Decoder, start xml.StartElement) (*Igt, error) {
	ig := &Igt{
		ID:         findAttr(start, "id"),
		Type:       findAttr(start, "type"),
		Attributes: attrMap(start, "id", "type"),
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "metadata":
				md, err := decodeMetadata(d, t)
				if err != nil {
					return nil, err
				}
				ig.Metadata = append(ig.Metadata, md)
			case "tier":
				tier, err := decodeTier(d, t)
				if err != nil {
					return nil, err
				}
				ig.Tiers = append(ig.Tiers, tier)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return ig, nil
		}
	}
}

func decodeTier(d *xml.Decoder, start xml.StartElement) (Tier, error) {
	tier := Tier{
		ID:         findAttr(start, "id"),
		Type:       findAttr(start, "type"),
		Attributes: attrMap(start, "id", "type"),
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return tier, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "metadata":
				md, err := decodeMetadata(d, t)
				if err != nil {
					return tier, err
				}
				tier.Metadata = append(tier.Metadata, md)
			case "item":
				item, err := decodeItem(d, t)
				if err != nil {
					return tier, err
				}
				tier.Items = append(tier.Items, item)
			default:
				if err := d.Skip(); err != nil {
					return tier, err
				}
			}
		case xml.EndElement:
			return tier, nil
		}
	}
}

func decodeItem(d *xml.Decoder, start xml.StartElement) (Item, error) {
	item := Item{
		ID:         findAttr(start, "id"),
		Attributes: attrMap(start, "id"),
	}
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return item, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if err := d.Skip(); err != nil {
				return item, err
			}
		case xml.EndElement:
			item.Text = text.String()
			return item, nil
		}
	}
}

func decodeMetadata(d *xml.Decoder, start xml.StartElement) (Metadata, error) {
	md := Metadata{
		Type:       findAttr(start, "type"),
		Attributes: attrMap(start, "type"),
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return md, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "meta" {
				meta, err := decodeMeta(d, t)
				if err != nil {
					return md, err
				}
				md.Metas = append(md.Metas, meta)
			} else if err := d.Skip(); err != nil {
				return md, err
			}
		case xml.EndElement:
			return md, nil
		}
	}
}

func decodeMeta(d *xml.Decoder, start xml.StartElement) (Meta, error) {
	meta := Meta{
		Type:       findAttr(start, "type"),
		Attributes: attrMap(start, "type"),
	}
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return meta, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			child, err := decodeMetaChild(d, t)
			if err != nil {
				return meta, err
			}
			meta.Children = append(meta.Children, child)
		case xml.EndElement:
			meta.Text = strings.TrimSpace(text.String())
			return meta, nil
		}
	}
}

func decodeMetaChild(d *xml.Decoder, start xml.StartElement) (MetaChild, error) {
	child := MetaChild{
		Name:       qname(start.Name),
		Attributes: attrMap(start),
	}
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return child, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			nested, err := decodeMetaChild(d, t)
			if err != nil {
				return child, err
			}
			child.Children = append(child.Children, nested)
		case xml.EndElement:
			child.Text = strings.TrimSpace(text.String())
			return child, nil
		}
	}
}

func findAttr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}
