package port

import (
	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

// Database is the capability surface a corpus storage backend provides.
// The filesystem implementation is the canonical backend; anything with the
// same observable semantics (bbolt, a future SQL store) can serve the HTTP
// and CLI layers unchanged.
//
// Failures are classified with the sentinel kinds in internal/domain and
// checked via errors.Is.
type Database interface {
	// ListCorpora returns id, name, and cached IGT count for every corpus,
	// sorted by corpus ID.
	ListCorpora() ([]domain.CorpusInfo, error)

	// CorpusSummary aggregates one corpus from its index alone: per-record
	// id/tier_count plus language code -> name -> count totals.
	CorpusSummary(corpusID string) (*domain.CorpusSummary, error)

	// GetCorpus reassembles the full corpus document, records included.
	GetCorpus(corpusID string) (*igt.Corpus, error)

	// GetIgts returns records from a corpus. A nil ids slice selects all
	// records in stored order; otherwise records come back in request order
	// and every missing ID is reported at once. Each match expression must
	// select something in a record for it to be kept (conjunction); matched
	// items are recorded on the returned records as QueryResult metadata.
	GetIgts(corpusID string, ids, matches []string) ([]*igt.Igt, error)

	// AddCorpus materializes a new corpus from the given document and
	// registers it under a fresh corpus ID. The name defaults to the ID.
	AddCorpus(xc *igt.Corpus, name string) (*domain.AddCorpusResult, error)

	// AddIgt appends one record to a corpus.
	AddIgt(corpusID string, ig *igt.Igt) (*domain.AddIgtResult, error)

	// SetIgt upserts the record at igtID; a nil record deletes an existing
	// target and is a validation error otherwise.
	SetIgt(corpusID, igtID string, ig *igt.Igt) (*domain.SetIgtResult, error)

	// DeleteIgt removes one record and its backing data.
	DeleteIgt(corpusID, igtID string) error

	// DeleteCorpus removes a corpus and everything under it.
	DeleteCorpus(corpusID string) error

	Close() error
}
