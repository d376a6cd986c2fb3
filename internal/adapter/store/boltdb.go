package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

var (
	bucketCorpora = []byte("corpora")
	bucketIndexes = []byte("indexes")
	bucketRecords = []byte("records")
)

// Bolt is a bbolt-backed database with the same observable semantics as
// FileSystem. Corpus entries and corpus indexes keep the same JSON shapes;
// record payloads live in a flat bucket keyed by "<corpus_id>/<igt_id>",
// so record filenames are simply not needed here. bbolt serializes writers,
// which covers the intra-process atomicity the filesystem backend gets from
// its mutexes.
type Bolt struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// NewBolt opens (or creates) a bbolt database file at path.
func NewBolt(path string, logger *slog.Logger) (*Bolt, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db: %v", domain.ErrStorageUnavailable, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCorpora, bucketIndexes, bucketRecords} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return &Bolt{db: db, logger: logger}, nil
}

func (s *Bolt) ListCorpora() ([]domain.CorpusInfo, error) {
	var infos []domain.CorpusInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCorpora).ForEach(func(k, v []byte) error {
			var entry corpusEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("%w: corpus entry %s: %v", domain.ErrIndexCorrupt, k, err)
			}
			infos = append(infos, domain.CorpusInfo{
				ID:       string(k),
				Name:     entry.displayName(),
				IgtCount: entry.count(),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// bbolt iterates in key order already; sort anyway to keep the
	// contract independent of the backend's storage order.
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (s *Bolt) CorpusSummary(corpusID string) (*domain.CorpusSummary, error) {
	var summary *domain.CorpusSummary
	err := s.db.View(func(tx *bbolt.Tx) error {
		entry, err := getCorpusEntry(tx, corpusID)
		if err != nil {
			return err
		}
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		summary = ci.summarize(corpusID, entry.displayName())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Bolt) GetCorpus(corpusID string) (*igt.Corpus, error) {
	var xc *igt.Corpus
	err := s.db.View(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		igts, err := getRecords(tx, corpusID, ci, nil)
		if err != nil {
			return err
		}
		xc = &igt.Corpus{
			ID:         ci.ID,
			Namespaces: ci.Namespaces,
			Attributes: ci.Attributes,
			Metadata:   ci.Metadata,
			Igts:       igts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return xc, nil
}

func (s *Bolt) GetIgts(corpusID string, ids, matches []string) ([]*igt.Igt, error) {
	var igts []*igt.Igt
	err := s.db.View(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		igts, err = getRecords(tx, corpusID, ci, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return filterByMatches(igts, matches)
}

func (s *Bolt) AddCorpus(xc *igt.Corpus, name string) (*domain.AddCorpusResult, error) {
	if err := validateCorpus(xc); err != nil {
		return nil, err
	}
	var result *domain.AddCorpusResult
	err := s.db.Update(func(tx *bbolt.Tx) error {
		corpora := tx.Bucket(bucketCorpora)
		var corpusID string
		for {
			corpusID = newID(corpusIDLen)
			if corpora.Get([]byte(corpusID)) == nil {
				break
			}
		}
		ci := newCorpusIndex(xc)
		for _, ig := range xc.Igts {
			if err := putRecord(tx, corpusID, ig); err != nil {
				return err
			}
			ci.Igts = append(ci.Igts, newIgtEntry(ig, ""))
		}
		ci.refresh()
		if err := putCorpusIndex(tx, corpusID, ci); err != nil {
			return err
		}
		if name == "" {
			name = corpusID
		}
		count := len(xc.Igts)
		entry := &corpusEntry{Name: name, IgtCount: &count, Languages: domain.LanguageCounts{}}
		if err := putCorpusEntry(tx, corpusID, entry); err != nil {
			return err
		}
		result = &domain.AddCorpusResult{ID: corpusID, IgtCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("corpus added", "corpus", result.ID, "name", name, "igt_count", result.IgtCount)
	return result, nil
}

func (s *Bolt) AddIgt(corpusID string, ig *igt.Igt) (*domain.AddIgtResult, error) {
	if ig == nil || ig.ID == "" {
		return nil, fmt.Errorf("%w: IGTs must have an ID", domain.ErrValidation)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		if _, exists := ci.IgtIndex[ig.ID]; exists {
			return fmt.Errorf("%w: IGT ID %q already exists in corpus", domain.ErrConflict, ig.ID)
		}
		if err := putRecord(tx, corpusID, ig); err != nil {
			return err
		}
		ci.Igts = append(ci.Igts, newIgtEntry(ig, ""))
		ci.refresh()
		if err := putCorpusIndex(tx, corpusID, ci); err != nil {
			return err
		}
		return setEntryCount(tx, corpusID, len(ci.Igts))
	})
	if err != nil {
		return nil, err
	}
	return &domain.AddIgtResult{ID: ig.ID, TierCount: ig.TierCount()}, nil
}

func (s *Bolt) SetIgt(corpusID, igtID string, ig *igt.Igt) (*domain.SetIgtResult, error) {
	var result *domain.SetIgtResult
	err := s.db.Update(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}

		if ig == nil {
			if _, exists := ci.IgtIndex[igtID]; !exists {
				return fmt.Errorf("%w: cannot delete IGT %q by empty payload: no such IGT", domain.ErrValidation, igtID)
			}
			if err := deleteRecordTx(tx, corpusID, ci, igtID); err != nil {
				return err
			}
			result = &domain.SetIgtResult{ID: igtID, Created: false}
			return nil
		}

		if ig.ID == "" {
			ig.ID = igtID
		} else if ig.ID != igtID {
			return fmt.Errorf("%w: IGT ID must match requested ID: %q != %q", domain.ErrValidation, ig.ID, igtID)
		}

		idx, exists := ci.IgtIndex[igtID]
		if err := putRecord(tx, corpusID, ig); err != nil {
			return err
		}
		if exists {
			ci.Igts[idx] = newIgtEntry(ig, "")
		} else {
			ci.Igts = append(ci.Igts, newIgtEntry(ig, ""))
		}
		ci.refresh()
		if err := putCorpusIndex(tx, corpusID, ci); err != nil {
			return err
		}
		if err := setEntryCount(tx, corpusID, len(ci.Igts)); err != nil {
			return err
		}
		result = &domain.SetIgtResult{ID: igtID, Created: !exists}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Bolt) DeleteIgt(corpusID, igtID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		if _, exists := ci.IgtIndex[igtID]; !exists {
			return fmt.Errorf("%w: IGT %q in corpus %q", domain.ErrNotFound, igtID, corpusID)
		}
		return deleteRecordTx(tx, corpusID, ci, igtID)
	})
}

func (s *Bolt) DeleteCorpus(corpusID string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		ci, err := getCorpusIndex(tx, corpusID)
		if err != nil {
			return err
		}
		records := tx.Bucket(bucketRecords)
		for _, e := range ci.Igts {
			if err := records.Delete(recordKey(corpusID, e.ID)); err != nil {
				return fmt.Errorf("%w: delete record %q: %v", domain.ErrStorage, e.ID, err)
			}
		}
		if err := tx.Bucket(bucketIndexes).Delete([]byte(corpusID)); err != nil {
			return fmt.Errorf("%w: delete corpus index: %v", domain.ErrStorage, err)
		}
		if err := tx.Bucket(bucketCorpora).Delete([]byte(corpusID)); err != nil {
			return fmt.Errorf("%w: delete corpus entry: %v", domain.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("corpus deleted", "corpus", corpusID)
	return nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func recordKey(corpusID, igtID string) []byte {
	return []byte(corpusID + "/" + igtID)
}

func getCorpusEntry(tx *bbolt.Tx, corpusID string) (*corpusEntry, error) {
	data := tx.Bucket(bucketCorpora).Get([]byte(corpusID))
	if data == nil {
		return nil, fmt.Errorf("%w: corpus %q", domain.ErrNotFound, corpusID)
	}
	var entry corpusEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: corpus entry %q: %v", domain.ErrIndexCorrupt, corpusID, err)
	}
	return &entry, nil
}

func putCorpusEntry(tx *bbolt.Tx, corpusID string, entry *corpusEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: encode corpus entry: %v", domain.ErrStorage, err)
	}
	if err := tx.Bucket(bucketCorpora).Put([]byte(corpusID), data); err != nil {
		return fmt.Errorf("%w: persist corpus entry: %v", domain.ErrStorage, err)
	}
	return nil
}

func setEntryCount(tx *bbolt.Tx, corpusID string, n int) error {
	entry, err := getCorpusEntry(tx, corpusID)
	if err != nil {
		return err
	}
	entry.IgtCount = &n
	return putCorpusEntry(tx, corpusID, entry)
}

func getCorpusIndex(tx *bbolt.Tx, corpusID string) (*corpusIndex, error) {
	data := tx.Bucket(bucketIndexes).Get([]byte(corpusID))
	if data == nil {
		return nil, fmt.Errorf("%w: corpus %q", domain.ErrNotFound, corpusID)
	}
	var ci corpusIndex
	if err := json.Unmarshal(data, &ci); err != nil {
		return nil, fmt.Errorf("%w: corpus index %q: %v", domain.ErrIndexCorrupt, corpusID, err)
	}
	ci.refresh()
	return &ci, nil
}

func putCorpusIndex(tx *bbolt.Tx, corpusID string, ci *corpusIndex) error {
	data, err := json.Marshal(ci)
	if err != nil {
		return fmt.Errorf("%w: encode corpus index: %v", domain.ErrStorage, err)
	}
	if err := tx.Bucket(bucketIndexes).Put([]byte(corpusID), data); err != nil {
		return fmt.Errorf("%w: persist corpus index: %v", domain.ErrStorage, err)
	}
	return nil
}

func putRecord(tx *bbolt.Tx, corpusID string, ig *igt.Igt) error {
	data, err := igt.EncodeIgt(ig)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := tx.Bucket(bucketRecords).Put(recordKey(corpusID, ig.ID), data); err != nil {
		return fmt.Errorf("%w: persist record %q: %v", domain.ErrStorage, ig.ID, err)
	}
	return nil
}

func deleteRecordTx(tx *bbolt.Tx, corpusID string, ci *corpusIndex, igtID string) error {
	if err := tx.Bucket(bucketRecords).Delete(recordKey(corpusID, igtID)); err != nil {
		return fmt.Errorf("%w: delete record %q: %v", domain.ErrStorage, igtID, err)
	}
	idx := ci.IgtIndex[igtID]
	ci.Igts = append(ci.Igts[:idx], ci.Igts[idx+1:]...)
	ci.refresh()
	if err := putCorpusIndex(tx, corpusID, ci); err != nil {
		return err
	}
	return setEntryCount(tx, corpusID, len(ci.Igts))
}

func getRecords(tx *bbolt.Tx, corpusID string, ci *corpusIndex, ids []string) ([]*igt.Igt, error) {
	entries := ci.Igts
	if ids != nil {
		missing := make([]string, 0)
		entries = make([]igtEntry, 0, len(ids))
		for _, id := range ids {
			idx, ok := ci.IgtIndex[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			entries = append(entries, ci.Igts[idx])
		}
		if len(missing) > 0 {
			return nil, notFoundIgts(missing)
		}
	}
	records := tx.Bucket(bucketRecords)
	igts := make([]*igt.Igt, 0, len(entries))
	for _, e := range entries {
		data := records.Get(recordKey(corpusID, e.ID))
		if data == nil {
			return nil, fmt.Errorf("%w: record %q has no payload", domain.ErrRecordCorrupt, e.ID)
		}
		ig, err := igt.DecodeIgt(data)
		if err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", domain.ErrRecordCorrupt, e.ID, err)
		}
		igts = append(igts, ig)
	}
	return igts, nil
}
