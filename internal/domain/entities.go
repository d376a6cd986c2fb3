package domain

// CorpusInfo is one row in a corpus listing.
type CorpusInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IgtCount int    `json:"igt_count"`
}

// IgtInfo is the per-record slice of a corpus summary.
type IgtInfo struct {
	ID        string `json:"id"`
	TierCount int    `json:"tier_count"`
}

// LanguageCounts maps language code -> language name -> number of IGTs
// carrying that subject language.
type LanguageCounts map[string]map[string]int

// Add increments the count for one code/name pair.
func (lc LanguageCounts) Add(code, name string) {
	names := lc[code]
	if names == nil {
		names = make(map[string]int)
		lc[code] = names
	}
	names[name]++
}

// CorpusSummary aggregates a corpus without touching individual record files.
type CorpusSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	IgtCount  int            `json:"igt_count"`
	Languages LanguageCounts `json:"languages"`
	Igts      []IgtInfo      `json:"igts"`
}

// AddCorpusResult is returned by AddCorpus.
type AddCorpusResult struct {
	ID       string `json:"id"`
	IgtCount int    `json:"igt_count"`
}

// AddIgtResult is returned by AddIgt.
type AddIgtResult struct {
	ID        string `json:"id"`
	TierCount int    `json:"tier_count"`
}

// SetIgtResult is returned by SetIgt. Created is true when the target did
// not exist and the record was appended rather than replaced.
type SetIgtResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}
