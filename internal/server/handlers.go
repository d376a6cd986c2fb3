package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

// GET /v1/corpora
func (s *Service) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	corpora, err := s.db.ListCorpora()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"corpora":      corpora,
		"corpus_count": len(corpora),
	})
}

// POST /v1/corpora?name=
func (s *Service) handleAddCorpus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: read request body: %v", domain.ErrValidation, err))
		return
	}
	xc, err := igt.Decode(body)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	result, err := s.db.AddCorpus(xc, r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

// GET /v1/corpora/{corpusID}
func (s *Service) handleGetCorpus(w http.ResponseWriter, r *http.Request) {
	xc, err := s.db.GetCorpus(chi.URLParam(r, "corpusID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, xc)
}

// DELETE /v1/corpora/{corpusID}
func (s *Service) handleDeleteCorpus(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteCorpus(chi.URLParam(r, "corpusID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/corpora/{corpusID}/summary
func (s *Service) handleCorpusSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.db.CorpusSummary(chi.URLParam(r, "corpusID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// GET /v1/corpora/{corpusID}/igts?id=a,b&match=expr
func (s *Service) handleGetIgts(w http.ResponseWriter, r *http.Request) {
	ids := queryList(r, "id", ",")
	matches := queryList(r, "match", "")
	igts, err := s.db.GetIgts(chi.URLParam(r, "corpusID"), ids, matches)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"igts":      igts,
		"igt_count": len(igts),
	})
}

// POST /v1/corpora/{corpusID}/igts
func (s *Service) handleAddIgt(w http.ResponseWriter, r *http.Request) {
	ig, err := decodeIgtBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ig == nil {
		s.writeError(w, fmt.Errorf("%w: request body is empty", domain.ErrValidation))
		return
	}
	result, err := s.db.AddIgt(chi.URLParam(r, "corpusID"), ig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

// GET /v1/corpora/{corpusID}/igts/{igtID}
func (s *Service) handleGetIgt(w http.ResponseWriter, r *http.Request) {
	igts, err := s.db.GetIgts(chi.URLParam(r, "corpusID"), []string{chi.URLParam(r, "igtID")}, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, igts[0])
}

// PUT /v1/corpora/{corpusID}/igts/{igtID}
// An empty body deletes the target record.
func (s *Service) handleSetIgt(w http.ResponseWriter, r *http.Request) {
	ig, err := decodeIgtBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.db.SetIgt(chi.URLParam(r, "corpusID"), chi.URLParam(r, "igtID"), ig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, result)
}

// DELETE /v1/corpora/{corpusID}/igts/{igtID}
func (s *Service) handleDeleteIgt(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteIgt(chi.URLParam(r, "corpusID"), chi.URLParam(r, "igtID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeIgtBody(r *http.Request) (*igt.Igt, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read request body: %v", domain.ErrValidation, err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	ig, err := igt.DecodeIgt(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return ig, nil
}

// queryList collects a repeatable query parameter, optionally splitting each
// occurrence on a delimiter. It returns nil when the parameter is absent,
// which callers treat differently from an empty selection.
func queryList(r *http.Request, param, delim string) []string {
	values, ok := r.URL.Query()[param]
	if !ok {
		return nil
	}
	var out []string
	for _, v := range values {
		if delim == "" {
			out = append(out, v)
			continue
		}
		out = append(out, strings.Split(v, delim)...)
	}
	return out
}
