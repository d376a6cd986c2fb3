package igt

import "testing"

const sampleXigtXML = `<?xml version="1.0" encoding="utf-8"?>
<xigt-corpus xmlns="http://depts.washington.edu/uwcl/xigt/1.0.html"
             xmlns:dc="http://purl.org/dc/elements/1.1/"
             xmlns:olac="http://www.language-archives.org/OLAC/1.1/">
  <igt id="igt1" type="odin">
    <metadata type="xigt-meta">
      <meta type="language">
        <dc:subject olac:code="spa">Spanish</dc:subject>
      </meta>
    </metadata>
    <tier id="p" type="phrases">
      <item id="p1">el perro ladra</item>
    </tier>
    <tier id="w" type="words" segmentation="p">
      <item id="w1" segmentation="p1[0:2]">el</item>
      <item id="w2" segmentation="p1[3:8]">perro</item>
    </tier>
  </igt>
  <igt id="igt2">
    <tier id="g" type="glosses"/>
  </igt>
</xigt-corpus>
`

func TestDecodeXML(t *testing.T) {
	xc, err := DecodeXML([]byte(sampleXigtXML))
	if err != nil {
		t.Fatalf("DecodeXML failed: %v", err)
	}
	if len(xc.Igts) != 2 {
		t.Fatalf("expected 2 igts, got %d", len(xc.Igts))
	}

	ig := xc.Igts[0]
	if ig.ID != "igt1" || ig.Type != "odin" {
		t.Errorf("unexpected igt identity %q/%q", ig.ID, ig.Type)
	}
	if ig.TierCount() != 2 {
		t.Fatalf("expected 2 tiers, got %d", ig.TierCount())
	}
	words := ig.Tiers[1]
	if words.Type != "words" || words.Attributes["segmentation"] != "p" {
		t.Errorf("unexpected words tier %+v", words)
	}
	if len(words.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(words.Items))
	}
	if words.Items[1].Text != "perro" {
		t.Errorf("expected item text perro, got %q", words.Items[1].Text)
	}
	if words.Items[1].Attributes["segmentation"] != "p1[3:8]" {
		t.Errorf("unexpected item attributes %+v", words.Items[1].Attributes)
	}

	code, name := ig.SubjectLanguage()
	if code != "spa" || name != "Spanish" {
		t.Errorf("expected spa/Spanish, got %q/%q", code, name)
	}

	if xc.Igts[1].TierCount() != 1 {
		t.Errorf("expected 1 tier in igt2, got %d", xc.Igts[1].TierCount())
	}
}

func TestDecodeXMLQualifiedNames(t *testing.T) {
	xc, err := DecodeXML([]byte(sampleXigtXML))
	if err != nil {
		t.Fatalf("DecodeXML failed: %v", err)
	}
	meta := xc.Igts[0].Metadata[0].Metas[0]
	if len(meta.Children) != 1 {
		t.Fatalf("expected 1 meta child, got %d", len(meta.Children))
	}
	subj := meta.Children[0]
	if subj.Name != "dc:subject" {
		t.Errorf("expected dc:subject, got %q", subj.Name)
	}
	if subj.Attributes["olac:code"] != "spa" {
		t.Errorf("expected olac:code=spa, got %+v", subj.Attributes)
	}
}

func TestDecodeXMLErrors(t *testing.T) {
	if _, err := DecodeXML([]byte("<wrong-root/>")); err == nil {
		t.Error("expected error for wrong root element")
	}
	if _, err := DecodeXML([]byte("")); err == nil {
		t.Error("expected error for empty document")
	}
	if _, err := DecodeXML([]byte("<xigt-corpus><igt id=\"x\">")); err == nil {
		t.Error("expected error for truncated document")
	}
}
