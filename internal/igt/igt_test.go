package igt

import (
	"testing"
)

func subjectMeta(code, name string) Metadata {
	return Metadata{
		Type: "xigt-meta",
		Metas: []Meta{{
			Children: []MetaChild{{
				Name:       "dc:subject",
				Attributes: map[string]string{"olac:code": code},
				Text:       name,
			}},
		}},
	}
}

func TestSubjectLanguage(t *testing.T) {
	ig := &Igt{
		ID:       "i1",
		Metadata: []Metadata{subjectMeta("SPA", "Spanish")},
	}
	code, name := ig.SubjectLanguage()
	if code != "spa" {
		t.Errorf("expected code spa, got %q", code)
	}
	if name != "Spanish" {
		t.Errorf("expected name Spanish, got %q", name)
	}
}

func TestSubjectLanguageNormalizesColons(t *testing.T) {
	ig := &Igt{
		ID:       "i1",
		Metadata: []Metadata{subjectMeta("x-sil:ABC", "Whatever")},
	}
	code, _ := ig.SubjectLanguage()
	if code != "x-sil-abc" {
		t.Errorf("expected x-sil-abc, got %q", code)
	}
}

func TestSubjectLanguageDefault(t *testing.T) {
	ig := &Igt{ID: "i1"}
	code, name := ig.SubjectLanguage()
	if code != "und" {
		t.Errorf("expected und, got %q", code)
	}
	if name != "" {
		t.Errorf("expected empty name, got %q", name)
	}
}

func TestSubjectLanguageFromMetaType(t *testing.T) {
	ig := &Igt{
		ID: "i1",
		Metadata: []Metadata{{
			Metas: []Meta{{
				Type:       "subject",
				Attributes: map[string]string{"olac:code": "deu"},
				Text:       "German",
			}},
		}},
	}
	code, name := ig.SubjectLanguage()
	if code != "deu" || name != "German" {
		t.Errorf("expected deu/German, got %q/%q", code, name)
	}
}

func TestIgtJSONRoundTrip(t *testing.T) {
	ig := &Igt{
		ID:       "i1",
		Type:     "odin",
		Metadata: []Metadata{subjectMeta("fra", "French")},
		Tiers: []Tier{
			{
				ID:   "p",
				Type: "phrases",
				Items: []Item{
					{ID: "p1", Text: "le chien"},
				},
			},
			{
				ID:         "w",
				Type:       "words",
				Attributes: map[string]string{"segmentation": "p"},
				Items: []Item{
					{ID: "w1", Attributes: map[string]string{"segmentation": "p1[0:2]"}},
					{ID: "w2", Attributes: map[string]string{"segmentation": "p1[3:8]"}},
				},
			},
		},
	}

	data, err := EncodeIgt(ig)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeIgt(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.ID != "i1" {
		t.Errorf("expected id i1, got %q", got.ID)
	}
	if got.TierCount() != 2 {
		t.Errorf("expected 2 tiers, got %d", got.TierCount())
	}
	if got.Tiers[1].Items[0].Attributes["segmentation"] != "p1[0:2]" {
		t.Errorf("item attributes lost in round trip: %+v", got.Tiers[1].Items[0])
	}
	code, name := got.SubjectLanguage()
	if code != "fra" || name != "French" {
		t.Errorf("language metadata lost in round trip: %q/%q", code, name)
	}
}

func TestCorpusJSONRoundTrip(t *testing.T) {
	xc := &Corpus{
		Namespaces: map[string]string{"olac": "http://www.language-archives.org/OLAC/1.1/"},
		Igts: []*Igt{
			{ID: "i1", Tiers: []Tier{{ID: "p", Type: "phrases"}}},
			{ID: "i2"},
		},
	}

	data, err := Encode(xc)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(got.Igts) != 2 {
		t.Fatalf("expected 2 igts, got %d", len(got.Igts))
	}
	if got.Igts[0].ID != "i1" || got.Igts[1].ID != "i2" {
		t.Errorf("igt order not preserved: %q, %q", got.Igts[0].ID, got.Igts[1].ID)
	}
	if got.Namespaces["olac"] == "" {
		t.Error("namespaces lost in round trip")
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error for invalid corpus JSON")
	}
	if _, err := DecodeIgt([]byte("{")); err == nil {
		t.Error("expected error for invalid igt JSON")
	}
}
