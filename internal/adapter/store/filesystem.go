package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

const (
	dataDir     = "data"
	corpusIDLen = 6
	recordIDLen = 4
)

// FileSystem stores each corpus as a directory of compressed JSON record
// files plus a corpus-local index, under a single top-level index mapping
// corpus IDs to directories and cached counts:
//
//	<root>/index.json.gz       {"corpora": {id: {name, path, igt_count, languages}}}
//	<root>/data/<corpus_id>/
//	    index.json.gz          {"igts": [...], "igt_index": {...}}
//	    <record>.json.gz       one record per file
//
// One process must own the root exclusively: there is no cross-process
// locking, and concurrent writers from separate processes can corrupt the
// indexes. Within the process, the top-level index and each corpus are
// serialized behind their own mutexes.
type FileSystem struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex // guards index, both in memory and on disk
	index dbIndex

	lockMu      sync.Mutex
	corpusLocks map[string]*sync.Mutex
}

// NewFileSystem opens the database at root, creating an empty one when the
// path does not exist yet.
func NewFileSystem(root string, logger *slog.Logger) (*FileSystem, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create root %s: %v", domain.ErrStorageUnavailable, root, err)
		}
		empty := dbIndex{Corpora: map[string]*corpusEntry{}}
		if err := writeGzJSON(filepath.Join(root, indexFile), empty); err != nil {
			return nil, fmt.Errorf("%w: write empty index: %v", domain.ErrStorageUnavailable, err)
		}
		if err := os.Mkdir(filepath.Join(root, dataDir), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %v", domain.ErrStorageUnavailable, err)
		}
		logger.Info("initialized empty corpus database", "root", root)
	case err != nil:
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorageUnavailable, root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrStorageUnavailable, root)
	}

	db := &FileSystem{
		root:        root,
		logger:      logger,
		corpusLocks: make(map[string]*sync.Mutex),
	}
	if err := db.loadIndex(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *FileSystem) loadIndex() error {
	var idx dbIndex
	if err := readGzJSON(filepath.Join(db.root, indexFile), &idx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if idx.Corpora == nil {
		return fmt.Errorf("%w: index has no corpora mapping", domain.ErrIndexCorrupt)
	}
	db.index = idx
	return nil
}

func (db *FileSystem) ListCorpora() ([]domain.CorpusInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := make([]string, 0, len(db.index.Corpora))
	for id := range db.index.Corpora {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	infos := make([]domain.CorpusInfo, 0, len(ids))
	for _, id := range ids {
		entry := db.index.Corpora[id]
		infos = append(infos, domain.CorpusInfo{
			ID:       id,
			Name:     entry.displayName(),
			IgtCount: entry.count(),
		})
	}
	return infos, nil
}

func (db *FileSystem) CorpusSummary(corpusID string) (*domain.CorpusSummary, error) {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, entry, err := db.corpus(corpusID)
	if err != nil {
		return nil, err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return nil, err
	}
	return ci.summarize(corpusID, entry.displayName()), nil
}

func (db *FileSystem) GetCorpus(corpusID string) (*igt.Corpus, error) {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, _, err := db.corpus(corpusID)
	if err != nil {
		return nil, err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return nil, err
	}
	igts, err := readRecords(cdir, ci, nil)
	if err != nil {
		return nil, err
	}
	return &igt.Corpus{
		ID:         ci.ID,
		Namespaces: ci.Namespaces,
		Attributes: ci.Attributes,
		Metadata:   ci.Metadata,
		Igts:       igts,
	}, nil
}

func (db *FileSystem) GetIgts(corpusID string, ids, matches []string) ([]*igt.Igt, error) {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, _, err := db.corpus(corpusID)
	if err != nil {
		return nil, err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return nil, err
	}
	igts, err := readRecords(cdir, ci, ids)
	if err != nil {
		return nil, err
	}
	return filterByMatches(igts, matches)
}

func (db *FileSystem) AddCorpus(xc *igt.Corpus, name string) (*domain.AddCorpusResult, error) {
	if err := validateCorpus(xc); err != nil {
		return nil, err
	}
	tmpDir, err := db.materializeCorpus(xc)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	var corpusID string
	for {
		corpusID = newID(corpusIDLen)
		if _, exists := db.index.Corpora[corpusID]; !exists {
			break
		}
	}
	cdir := filepath.Join(dataDir, corpusID)
	if err := os.Rename(tmpDir, filepath.Join(db.root, cdir)); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("%w: move corpus into place: %v", domain.ErrStorage, err)
	}
	if name == "" {
		name = corpusID
	}
	count := len(xc.Igts)
	db.index.Corpora[corpusID] = &corpusEntry{
		Name:      name,
		Path:      cdir,
		IgtCount:  &count,
		Languages: domain.LanguageCounts{},
	}
	if err := db.saveIndex(); err != nil {
		delete(db.index.Corpora, corpusID)
		os.RemoveAll(filepath.Join(db.root, cdir))
		return nil, err
	}
	db.logger.Info("corpus added", "corpus", corpusID, "name", name, "igt_count", count)
	return &domain.AddCorpusResult{ID: corpusID, IgtCount: count}, nil
}

func (db *FileSystem) AddIgt(corpusID string, ig *igt.Igt) (*domain.AddIgtResult, error) {
	if ig == nil || ig.ID == "" {
		return nil, fmt.Errorf("%w: IGTs must have an ID", domain.ErrValidation)
	}
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, _, err := db.corpus(corpusID)
	if err != nil {
		return nil, err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return nil, err
	}
	if _, exists := ci.IgtIndex[ig.ID]; exists {
		return nil, fmt.Errorf("%w: IGT ID %q already exists in corpus", domain.ErrConflict, ig.ID)
	}
	if err := writeRecord(cdir, ci, ig); err != nil {
		return nil, err
	}
	ci.refresh()
	if err := db.saveCorpusIndex(cdir, ci); err != nil {
		return nil, err
	}
	if err := db.setCount(corpusID, len(ci.Igts)); err != nil {
		return nil, err
	}
	return &domain.AddIgtResult{ID: ig.ID, TierCount: ig.TierCount()}, nil
}

func (db *FileSystem) SetIgt(corpusID, igtID string, ig *igt.Igt) (*domain.SetIgtResult, error) {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, _, err := db.corpus(corpusID)
	if err != nil {
		return nil, err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return nil, err
	}

	// An empty payload deletes, but only an existing target.
	if ig == nil {
		if _, exists := ci.IgtIndex[igtID]; !exists {
			return nil, fmt.Errorf("%w: cannot delete IGT %q by empty payload: no such IGT", domain.ErrValidation, igtID)
		}
		if err := db.removeRecord(corpusID, cdir, ci, igtID); err != nil {
			return nil, err
		}
		return &domain.SetIgtResult{ID: igtID, Created: false}, nil
	}

	if ig.ID == "" {
		ig.ID = igtID
	} else if ig.ID != igtID {
		return nil, fmt.Errorf("%w: IGT ID must match requested ID: %q != %q", domain.ErrValidation, ig.ID, igtID)
	}

	idx, exists := ci.IgtIndex[igtID]
	if exists {
		// Replace content in place, keeping the storage filename.
		entry := &ci.Igts[idx]
		if err := writeGzJSON(filepath.Join(cdir, entry.Path), ig); err != nil {
			return nil, fmt.Errorf("%w: rewrite record %q: %v", domain.ErrStorage, igtID, err)
		}
		*entry = newIgtEntry(ig, entry.Path)
	} else {
		if err := writeRecord(cdir, ci, ig); err != nil {
			return nil, err
		}
	}
	ci.refresh()
	if err := db.saveCorpusIndex(cdir, ci); err != nil {
		return nil, err
	}
	if err := db.setCount(corpusID, len(ci.Igts)); err != nil {
		return nil, err
	}
	return &domain.SetIgtResult{ID: igtID, Created: !exists}, nil
}

func (db *FileSystem) DeleteIgt(corpusID, igtID string) error {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	cdir, _, err := db.corpus(corpusID)
	if err != nil {
		return err
	}
	ci, err := db.loadCorpusIndex(cdir)
	if err != nil {
		return err
	}
	if _, exists := ci.IgtIndex[igtID]; !exists {
		return fmt.Errorf("%w: IGT %q in corpus %q", domain.ErrNotFound, igtID, corpusID)
	}
	return db.removeRecord(corpusID, cdir, ci, igtID)
}

func (db *FileSystem) DeleteCorpus(corpusID string) error {
	lock := db.corpusLock(corpusID)
	lock.Lock()
	defer lock.Unlock()
	db.mu.Lock()
	defer db.mu.Unlock()
	entry, ok := db.index.Corpora[corpusID]
	if !ok {
		return fmt.Errorf("%w: corpus %q", domain.ErrNotFound, corpusID)
	}
	if err := os.RemoveAll(filepath.Join(db.root, entry.Path)); err != nil {
		// Keep the index entry so the orphaned directory stays visible.
		return fmt.Errorf("%w: delete corpus %q: %v", domain.ErrStorage, corpusID, err)
	}
	delete(db.index.Corpora, corpusID)
	if err := db.saveIndex(); err != nil {
		return err
	}
	db.logger.Info("corpus deleted", "corpus", corpusID)
	return nil
}

// Close is a no-op: every file handle is scoped to the call that opened it.
func (db *FileSystem) Close() error { return nil }

// corpus resolves a corpus ID to its directory and a copy of its entry.
func (db *FileSystem) corpus(corpusID string) (string, corpusEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	entry, ok := db.index.Corpora[corpusID]
	if !ok {
		return "", corpusEntry{}, fmt.Errorf("%w: corpus %q", domain.ErrNotFound, corpusID)
	}
	return filepath.Join(db.root, entry.Path), *entry, nil
}

func (db *FileSystem) corpusLock(corpusID string) *sync.Mutex {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()
	l, ok := db.corpusLocks[corpusID]
	if !ok {
		l = &sync.Mutex{}
		db.corpusLocks[corpusID] = l
	}
	return l
}

// saveIndex persists the top-level index; the caller holds mu.
func (db *FileSystem) saveIndex() error {
	if err := writeGzJSON(filepath.Join(db.root, indexFile), db.index); err != nil {
		return fmt.Errorf("%w: persist index: %v", domain.ErrStorage, err)
	}
	return nil
}

// updateEntry applies a partial update to a corpus entry and persists the
// index immediately; there is no batching.
func (db *FileSystem) updateEntry(corpusID string, name, path *string, igtCount *int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	entry, ok := db.index.Corpora[corpusID]
	if !ok {
		return fmt.Errorf("%w: corpus %q", domain.ErrNotFound, corpusID)
	}
	if name != nil {
		entry.Name = *name
	}
	if path != nil {
		entry.Path = *path
	}
	if igtCount != nil {
		entry.IgtCount = igtCount
	}
	return db.saveIndex()
}

func (db *FileSystem) setCount(corpusID string, n int) error {
	return db.updateEntry(corpusID, nil, nil, &n)
}

func (db *FileSystem) loadCorpusIndex(cdir string) (*corpusIndex, error) {
	var ci corpusIndex
	if err := readGzJSON(filepath.Join(cdir, indexFile), &ci); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	ci.refresh()
	return &ci, nil
}

func (db *FileSystem) saveCorpusIndex(cdir string, ci *corpusIndex) error {
	if err := writeGzJSON(filepath.Join(cdir, indexFile), ci); err != nil {
		return fmt.Errorf("%w: persist corpus index: %v", domain.ErrStorage, err)
	}
	return nil
}

// materializeCorpus writes all records of a new corpus into a fresh hidden
// directory under the root (same filesystem, so the final rename is a pure
// metadata operation) and returns its path.
func (db *FileSystem) materializeCorpus(xc *igt.Corpus) (string, error) {
	tmpDir, err := os.MkdirTemp(db.root, ".corpus-*")
	if err != nil {
		return "", fmt.Errorf("%w: create corpus directory: %v", domain.ErrStorage, err)
	}
	ci := newCorpusIndex(xc)
	for _, ig := range xc.Igts {
		if err := writeRecord(tmpDir, ci, ig); err != nil {
			os.RemoveAll(tmpDir)
			return "", err
		}
	}
	ci.refresh()
	if err := db.saveCorpusIndex(tmpDir, ci); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	return tmpDir, nil
}

// writeRecord stores one record under a fresh random filename and appends
// its entry to ci.Igts. The caller refreshes and persists the index.
func writeRecord(cdir string, ci *corpusIndex, ig *igt.Igt) error {
	var fn string
	for {
		fn = newID(recordIDLen) + ".json.gz"
		if _, err := os.Stat(filepath.Join(cdir, fn)); os.IsNotExist(err) {
			break
		}
	}
	if err := writeGzJSON(filepath.Join(cdir, fn), ig); err != nil {
		return fmt.Errorf("%w: write record %q: %v", domain.ErrStorage, ig.ID, err)
	}
	ci.Igts = append(ci.Igts, newIgtEntry(ig, fn))
	return nil
}

// removeRecord deletes the record's file and entry; the target must exist
// and the caller holds the corpus lock. Igts and IgtIndex are mutated
// together before any persist step, so the in-memory pair stays consistent
// even when the index write fails.
func (db *FileSystem) removeRecord(corpusID, cdir string, ci *corpusIndex, igtID string) error {
	idx := ci.IgtIndex[igtID]
	entry := ci.Igts[idx]
	if err := os.Remove(filepath.Join(cdir, entry.Path)); err != nil {
		return fmt.Errorf("%w: remove record %q: %v", domain.ErrStorage, igtID, err)
	}
	ci.Igts = append(ci.Igts[:idx], ci.Igts[idx+1:]...)
	ci.refresh()
	if err := db.saveCorpusIndex(cdir, ci); err != nil {
		return err
	}
	return db.setCount(corpusID, len(ci.Igts))
}

// readRecords loads record files for the given IDs (all records in stored
// order when ids is nil), returning them in request order. Every missing ID
// is reported at once.
func readRecords(cdir string, ci *corpusIndex, ids []string) ([]*igt.Igt, error) {
	entries := ci.Igts
	if ids != nil {
		var missing []string
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
	igts := make([]*igt.Igt, 0, len(entries))
	for _, e := range entries {
		var ig igt.Igt
		if err := readGzJSON(filepath.Join(cdir, e.Path), &ig); err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", domain.ErrRecordCorrupt, e.ID, err)
		}
		igts = append(igts, &ig)
	}
	return igts, nil
}
