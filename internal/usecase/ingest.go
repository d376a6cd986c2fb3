package usecase

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xigt/sleipnir/internal/igt"
	"github.com/xigt/sleipnir/internal/port"
)

// IngestUseCase bulk-loads corpus files into the database, one corpus per
// file, named after the file's basename.
type IngestUseCase struct {
	db     port.Database
	walker port.Walker
}

func NewIngestUseCase(db port.Database, walker port.Walker) *IngestUseCase {
	return &IngestUseCase{db: db, walker: walker}
}

// IngestResult contains the results of a bulk-load run.
type IngestResult struct {
	CorporaAdded int
	IgtsAdded    int
	Errors       []string
}

// ProgressFunc reports bulk-load progress after each file.
type ProgressFunc func(processed, total int, currentFile string)

// Ingest loads every corpus file named by paths. Directory arguments are
// expanded through the walker's include/exclude patterns. A file that fails
// to decode or load is reported in the result and skipped; only discovery
// failures abort the run.
func (u *IngestUseCase) Ingest(paths []string, progress ProgressFunc) (*IngestResult, error) {
	files, err := u.expand(paths)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{}
	for i, file := range files {
		xc, err := decodeCorpusFile(file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file, err))
		} else {
			added, err := u.db.AddCorpus(xc, corpusName(file))
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file, err))
			} else {
				result.CorporaAdded++
				result.IgtsAdded += added.IgtCount
			}
		}
		if progress != nil {
			progress(i+1, len(files), file)
		}
	}
	return result, nil
}

func (u *IngestUseCase) expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := u.walker.Walk(p)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// decodeCorpusFile parses a corpus file by extension: Xigt XML (.xml) or
// JSON (.json, .json.gz).
func decodeCorpusFile(path string) (*igt.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := path
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gunzip: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("gunzip: %w", err)
		}
		name = strings.TrimSuffix(name, ".gz")
	}
	switch filepath.Ext(name) {
	case ".xml":
		return igt.DecodeXML(data)
	case ".json":
		return igt.Decode(data)
	default:
		return nil, fmt.Errorf("unsupported corpus file type: %s", filepath.Ext(name))
	}
}

// corpusName is the file basename with extensions stripped.
func corpusName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
