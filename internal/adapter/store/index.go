package store

import (
	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

const indexFile = "index.json.gz"

// dbIndex is the top-level index: which corpora exist, where they live, and
// their cached aggregates.
type dbIndex struct {
	Corpora map[string]*corpusEntry `json:"corpora"`
}

type corpusEntry struct {
	Name      string                `json:"name,omitempty"`
	Path      string                `json:"path,omitempty"`
	IgtCount  *int                  `json:"igt_count,omitempty"`
	Languages domain.LanguageCounts `json:"languages,omitempty"`
}

// count returns the cached IGT count, -1 when unknown.
func (e *corpusEntry) count() int {
	if e.IgtCount == nil {
		return -1
	}
	return *e.IgtCount
}

func (e *corpusEntry) displayName() string {
	if e.Name == "" {
		return "(untitled)"
	}
	return e.Name
}

// corpusIndex is the corpus-local index: corpus-level document fields plus
// one entry per record. IgtIndex is derived from Igts; it is rebuilt
// wholesale after every mutation, never edited on its own.
type corpusIndex struct {
	ID         string            `json:"id,omitempty"`
	Namespaces map[string]string `json:"namespaces,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metadata   []igt.Metadata    `json:"metadata,omitempty"`
	Igts       []igtEntry        `json:"igts"`
	IgtIndex   map[string]int    `json:"igt_index"`
}

// igtEntry caches the summary fields of one record at write time so that
// summarize never has to re-read record files.
type igtEntry struct {
	ID           string `json:"id"`
	TierCount    int    `json:"tier_count"`
	LanguageCode string `json:"language_code"`
	LanguageName string `json:"language_name"`
	Path         string `json:"path,omitempty"`
}

func (ci *corpusIndex) refresh() {
	idx := make(map[string]int, len(ci.Igts))
	for i, e := range ci.Igts {
		idx[e.ID] = i
	}
	ci.IgtIndex = idx
}

func newIgtEntry(ig *igt.Igt, path string) igtEntry {
	code, name := ig.SubjectLanguage()
	return igtEntry{
		ID:           ig.ID,
		TierCount:    ig.TierCount(),
		LanguageCode: code,
		LanguageName: name,
		Path:         path,
	}
}

func newCorpusIndex(xc *igt.Corpus) *corpusIndex {
	return &corpusIndex{
		ID:         xc.ID,
		Namespaces: xc.Namespaces,
		Attributes: xc.Attributes,
		Metadata:   xc.Metadata,
		Igts:       []igtEntry{},
		IgtIndex:   map[string]int{},
	}
}

// summarize aggregates the corpus from its index alone.
func (ci *corpusIndex) summarize(corpusID, name string) *domain.CorpusSummary {
	langs := make(domain.LanguageCounts)
	infos := make([]domain.IgtInfo, 0, len(ci.Igts))
	for _, e := range ci.Igts {
		code := e.LanguageCode
		if code == "" {
			code = igt.DefaultLanguageCode
		}
		langs.Add(code, e.LanguageName)
		infos = append(infos, domain.IgtInfo{ID: e.ID, TierCount: e.TierCount})
	}
	return &domain.CorpusSummary{
		ID:        corpusID,
		Name:      name,
		IgtCount:  len(ci.Igts),
		Languages: langs,
		Igts:      infos,
	}
}
