package igt

import "testing"

func pathTestIgt() *Igt {
	return &Igt{
		ID:       "i1",
		Metadata: []Metadata{subjectMeta("spa", "Spanish")},
		Tiers: []Tier{
			{
				ID:   "p",
				Type: "phrases",
				Items: []Item{
					{ID: "p1", Text: "el perro ladra"},
				},
			},
			{
				ID:         "w",
				Type:       "words",
				Attributes: map[string]string{"segmentation": "p"},
				Items: []Item{
					{ID: "w1", Text: "el"},
					{ID: "w2", Text: "perro"},
					{ID: "w3", Text: "ladra"},
				},
			},
		},
	}
}

func TestFindAll(t *testing.T) {
	ig := pathTestIgt()

	tests := []struct {
		expr string
		want int
	}{
		{"tier", 2},
		{`tier[@type="words"]`, 1},
		{`tier[@type="glosses"]`, 0},
		{"tier/item", 4},
		{"//item", 4},
		{`//item[text()="perro"]`, 1},
		{`//item[text()="gato"]`, 0},
		{`tier[@type="words"]/item`, 3},
		{`//item[@id="w2"]`, 1},
		{"//item/text()", 4},
		{"tier/@segmentation", 1},
		{"metadata//dc:subject", 1},
		{`metadata//dc:subject[@olac:code="spa"]`, 1},
		{`metadata//dc:subject[@olac:code="deu"]`, 0},
		{"metadata//dc:subject/@olac:code", 1},
		{"//*[@segmentation]", 1},
		{"/tier", 2},
	}
	for _, tt := range tests {
		nodes, err := FindAll(ig, tt.expr)
		if err != nil {
			t.Errorf("FindAll(%q) failed: %v", tt.expr, err)
			continue
		}
		if len(nodes) != tt.want {
			t.Errorf("FindAll(%q) = %d nodes, want %d", tt.expr, len(nodes), tt.want)
		}
	}
}

func TestFindAllNodeFields(t *testing.T) {
	ig := pathTestIgt()
	nodes, err := FindAll(ig, `//item[text()="perro"]`)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Kind != "item" || n.ID != "w2" || n.TierID != "w" {
		t.Errorf("unexpected node %+v", n)
	}
}

func TestMatch(t *testing.T) {
	ig := pathTestIgt()
	ok, err := Match(ig, `//item[text()="ladra"]`)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
	ok, err = Match(ig, `tier[@type="glosses"]`)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if ok {
		t.Error("expected no match")
	}
}

func TestPathParseErrors(t *testing.T) {
	ig := pathTestIgt()
	for _, expr := range []string{
		"",
		"   ",
		"tier[",
		"tier[@type=words]",
		"tier[foo]",
		"[@id=\"w1\"]",
		"tier]",
	} {
		if _, err := FindAll(ig, expr); err == nil {
			t.Errorf("FindAll(%q): expected parse error", expr)
		}
	}
}

func TestMultiplePredicates(t *testing.T) {
	ig := pathTestIgt()
	nodes, err := FindAll(ig, `//item[@id="w2"][text()="perro"]`)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(nodes))
	}
	nodes, err = FindAll(ig, `//item[@id="w2"][text()="el"]`)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected 0 nodes, got %d", len(nodes))
	}
}
