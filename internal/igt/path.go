package igt

import (
	"fmt"
	"strings"
)

// Path expressions are a small XPath-like language over the IGT structure:
//
//	tier                       any tier of the record
//	tier[@type="words"]        attribute predicate
//	tier/item                  child step
//	//item[text()="dog"]       descend from anywhere, text predicate
//	metadata//dc:subject       metadata subtree by qualified name
//	metadata//dc:subject/@olac:code   trailing attribute step (existence)
//
// A step name of "*" matches any node.

// Node is one structural unit selected by FindAll. For items, TierID names
// the enclosing tier.
type Node struct {
	Kind     string
	ID       string
	TierID   string
	Text     string
	attrs    map[string]string
	children []*Node
}

type pathStep struct {
	descend bool
	name    string
	preds   []pathPred
}

// pathPred is [@attr="v"] (Attr set) or [text()="v"] (Attr empty).
type pathPred struct {
	attr     string
	value    string
	hasValue bool
}

// Match reports whether the expression selects anything in the record.
func Match(ig *Igt, expr string) (bool, error) {
	nodes, err := FindAll(ig, expr)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// FindAll evaluates a path expression against a record and returns every
// node it selects, in document order.
func FindAll(ig *Igt, expr string) ([]*Node, error) {
	steps, err := parsePath(expr)
	if err != nil {
		return nil, err
	}
	set := []*Node{igtNode(ig)}
	for _, st := range steps {
		var next []*Node
		if strings.HasPrefix(st.name, "@") {
			attr := st.name[1:]
			for _, n := range set {
				if _, ok := n.attrs[attr]; ok {
					next = append(next, n)
				}
			}
		} else if st.name == "text()" {
			for _, n := range set {
				if n.Text != "" {
					next = append(next, n)
				}
			}
		} else {
			for _, n := range set {
				candidates := n.children
				if st.descend {
					candidates = descendants(n)
				}
				for _, c := range candidates {
					if (st.name == "*" || c.Kind == st.name) && matchPreds(c, st.preds) {
						next = append(next, c)
					}
				}
			}
		}
		set = next
		if len(set) == 0 {
			break
		}
	}
	return set, nil
}

func matchPreds(n *Node, preds []pathPred) bool {
	for _, p := range preds {
		if p.attr == "" {
			if n.Text != p.value {
				return false
			}
			continue
		}
		v, ok := n.attrs[p.attr]
		if !ok {
			return false
		}
		if p.hasValue && v != p.value {
			return false
		}
	}
	return true
}

func descendants(n *Node) []*Node {
	var out []*Node
	for _, c := range n.children {
		out = append(out, c)
		out = append(out, descendants(c)...)
	}
	return out
}

func parsePath(expr string) ([]pathStep, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("empty path expression")
	}
	var steps []pathStep
	descend := false
	if strings.HasPrefix(s, "//") {
		descend = true
		s = s[2:]
	} else if strings.HasPrefix(s, "/") {
		s = s[1:]
	}
	for len(s) > 0 {
		seg, rest, nextDescend, err := splitStep(s)
		if err != nil {
			return nil, err
		}
		st, err := parseStep(seg)
		if err != nil {
			return nil, err
		}
		st.descend = descend
		steps = append(steps, st)
		s = rest
		descend = nextDescend
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty path expression")
	}
	return steps, nil
}

// splitStep takes the leading step off the expression, stopping at a '/'
// outside brackets, and reports whether the separator was '//'.
func splitStep(s string) (seg, rest string, descend bool, err error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return "", "", false, fmt.Errorf("unbalanced ']' in path %q", s)
			}
		case '/':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == '/' {
					return s[:i], s[i+2:], true, nil
				}
				return s[:i], s[i+1:], false, nil
			}
		}
	}
	if depth != 0 {
		return "", "", false, fmt.Errorf("unbalanced '[' in path %q", s)
	}
	return s, "", false, nil
}

func parseStep(seg string) (pathStep, error) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return pathStep{}, fmt.Errorf("empty path step")
	}
	st := pathStep{}
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		st.name = seg
		return st, nil
	}
	st.name = strings.TrimSpace(seg[:open])
	for open >= 0 {
		end := strings.IndexByte(seg[open:], ']')
		if end < 0 {
			return st, fmt.Errorf("unterminated predicate in step %q", seg)
		}
		pred, err := parsePred(seg[open+1 : open+end])
		if err != nil {
			return st, err
		}
		st.preds = append(st.preds, pred)
		next := strings.IndexByte(seg[open+end:], '[')
		if next < 0 {
			break
		}
		open = open + end + next
	}
	if st.name == "" {
		return st, fmt.Errorf("predicate without step name in %q", seg)
	}
	return st, nil
}

func parsePred(s string) (pathPred, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "text()") {
		rest := strings.TrimSpace(s[len("text()"):])
		if !strings.HasPrefix(rest, "=") {
			return pathPred{}, fmt.Errorf("text() predicate requires comparison: %q", s)
		}
		v, err := unquote(strings.TrimSpace(rest[1:]))
		if err != nil {
			return pathPred{}, err
		}
		return pathPred{value: v, hasValue: true}, nil
	}
	if !strings.HasPrefix(s, "@") {
		return pathPred{}, fmt.Errorf("unsupported predicate %q", s)
	}
	s = s[1:]
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return pathPred{attr: strings.TrimSpace(s)}, nil
	}
	v, err := unquote(strings.TrimSpace(s[eq+1:]))
	if err != nil {
		return pathPred{}, err
	}
	return pathPred{attr: strings.TrimSpace(s[:eq]), value: v, hasValue: true}, nil
}

func unquote(s string) (string, error) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], nil
	}
	return "", fmt.Errorf("predicate value must be quoted: %q", s)
}

func igtNode(ig *Igt) *Node {
	root := &Node{Kind: "igt", ID: ig.ID, attrs: withID(ig.Attributes, ig.ID, ig.Type)}
	for i := range ig.Metadata {
		root.children = append(root.children, metadataNode(&ig.Metadata[i]))
	}
	for i := range ig.Tiers {
		root.children = append(root.children, tierNode(&ig.Tiers[i]))
	}
	return root
}

func tierNode(t *Tier) *Node {
	n := &Node{Kind: "tier", ID: t.ID, attrs: withID(t.Attributes, t.ID, t.Type)}
	for i := range t.Metadata {
		n.children = append(n.children, metadataNode(&t.Metadata[i]))
	}
	for i := range t.Items {
		item := &t.Items[i]
		n.children = append(n.children, &Node{
			Kind:   "item",
			ID:     item.ID,
			TierID: t.ID,
			Text:   item.Text,
			attrs:  withID(item.Attributes, item.ID, ""),
		})
	}
	return n
}

func metadataNode(md *Metadata) *Node {
	n := &Node{Kind: "metadata", attrs: withID(md.Attributes, "", md.Type)}
	for i := range md.Metas {
		m := &md.Metas[i]
		mn := &Node{Kind: "meta", Text: m.Text, attrs: withID(m.Attributes, "", m.Type)}
		for j := range m.Children {
			mn.children = append(mn.children, metaChildNode(&m.Children[j]))
		}
		n.children = append(n.children, mn)
	}
	return n
}

func metaChildNode(c *MetaChild) *Node {
	n := &Node{Kind: c.Name, Text: c.Text, attrs: c.Attributes}
	for i := range c.Children {
		n.children = append(n.children, metaChildNode(&c.Children[i]))
	}
	return n
}

// withID exposes id and type through the attribute map so predicates like
// [@id="w1"] work uniformly.
func withID(attrs map[string]string, id, typ string) map[string]string {
	if id == "" && typ == "" {
		return attrs
	}
	out := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		out[k] = v
	}
	if id != "" {
		out["id"] = id
	}
	if typ != "" {
		out["type"] = typ
	}
	return out
}
