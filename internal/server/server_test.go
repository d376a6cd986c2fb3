package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xigt/sleipnir/internal/adapter/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := store.NewFileSystem(filepath.Join(t.TempDir(), "db"), logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ts := httptest.NewServer(New(db, logger, "*").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s %s: response is not JSON: %v\n%s", method, url, err, data)
		}
	}
	return resp, decoded
}

const corpusBody = `{
	"igts": [
		{"id": "i1", "tiers": [
			{"id": "p", "type": "phrases", "items": [{"id": "p1", "text": "el perro"}]}
		]},
		{"id": "i2", "tiers": [
			{"id": "p", "type": "phrases", "items": [{"id": "p1", "text": "el gato"}]},
			{"id": "w", "type": "words", "items": [{"id": "w1", "text": "el"}, {"id": "w2", "text": "gato"}]}
		]}
	]
}`

func createCorpus(t *testing.T, ts *httptest.Server, name string) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/v1/corpora?name="+url.QueryEscape(name), corpusBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create corpus: status %d, body %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create corpus: no id in %v", body)
	}
	return id
}

func TestCorpusLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/v1/corpora", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	if body["corpus_count"].(float64) != 0 {
		t.Errorf("expected empty database, got %v", body)
	}

	cid := createCorpus(t, ts, "testcorp")

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/corpora", "")
	if resp.StatusCode != http.StatusOK || body["corpus_count"].(float64) != 1 {
		t.Fatalf("list after create: status %d, body %v", resp.StatusCode, body)
	}
	listing := body["corpora"].([]any)[0].(map[string]any)
	if listing["id"] != cid || listing["name"] != "testcorp" || listing["igt_count"].(float64) != 2 {
		t.Errorf("unexpected listing %v", listing)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/corpora/"+cid, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get corpus: status %d", resp.StatusCode)
	}
	if len(body["igts"].([]any)) != 2 {
		t.Errorf("expected 2 igts in corpus document, got %v", body["igts"])
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/corpora/"+cid+"/summary", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	if body["igt_count"].(float64) != 2 {
		t.Errorf("unexpected summary %v", body)
	}
	if _, ok := body["languages"].(map[string]any); !ok {
		t.Errorf("summary lacks languages block: %v", body)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/corpora/"+cid, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete corpus: status %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/corpora/"+cid, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestIgtEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cid := createCorpus(t, ts, "igts")
	base := ts.URL + "/v1/corpora/" + cid + "/igts"

	resp, body := do(t, http.MethodGet, base, "")
	if resp.StatusCode != http.StatusOK || body["igt_count"].(float64) != 2 {
		t.Fatalf("get igts: status %d, body %v", resp.StatusCode, body)
	}

	// Selection by ID keeps request order.
	resp, body = do(t, http.MethodGet, base+"?id=i2,i1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get igts by id: status %d", resp.StatusCode)
	}
	igts := body["igts"].([]any)
	if len(igts) != 2 || igts[0].(map[string]any)["id"] != "i2" {
		t.Errorf("expected [i2 i1], got %v", igts)
	}

	resp, body = do(t, http.MethodGet, base+"?match="+url.QueryEscape(`//item[text()="gato"]`), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get igts match: status %d", resp.StatusCode)
	}
	if body["igt_count"].(float64) != 1 {
		t.Errorf("expected 1 match, got %v", body)
	}

	resp, _ = do(t, http.MethodGet, base+"/i1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get single igt: status %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, base+"/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown igt, got %d", resp.StatusCode)
	}

	resp, body = do(t, http.MethodPost, base, `{"id": "i3", "tiers": [{"id": "t"}]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add igt: status %d, body %v", resp.StatusCode, body)
	}
	if body["id"] != "i3" || body["tier_count"].(float64) != 1 {
		t.Errorf("unexpected add result %v", body)
	}

	resp, _ = do(t, http.MethodPost, base, `{"id": "i3"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate igt, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPost, base, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty add body, got %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, base+"/i3", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete igt: status %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodDelete, base+"/i3", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on repeat delete, got %d", resp.StatusCode)
	}
}

func TestSetIgtEndpoint(t *testing.T) {
	ts := newTestServer(t)
	cid := createCorpus(t, ts, "put")
	base := ts.URL + "/v1/corpora/" + cid + "/igts"

	resp, body := do(t, http.MethodPut, base+"/i9", `{"tiers": [{"id": "t"}]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put new igt: status %d, body %v", resp.StatusCode, body)
	}
	if body["created"] != true {
		t.Errorf("expected created=true, got %v", body)
	}

	resp, body = do(t, http.MethodPut, base+"/i9", `{"id": "i9", "tiers": []}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put replacement: status %d, body %v", resp.StatusCode, body)
	}
	if body["created"] != false {
		t.Errorf("expected created=false, got %v", body)
	}

	// ID mismatch between path and payload.
	resp, _ = do(t, http.MethodPut, base+"/i9", `{"id": "other"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for mismatched ID, got %d", resp.StatusCode)
	}

	// Empty body deletes; a second empty put has no target left.
	resp, _ = do(t, http.MethodPut, base+"/i9", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put empty body: status %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, base+"/i9", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected deleted record to be gone, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPut, base+"/i9", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 deleting a missing record, got %d", resp.StatusCode)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/corpora", "not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed corpus, got %d", resp.StatusCode)
	}
	if _, ok := body["message"]; !ok {
		t.Errorf("error response lacks message: %v", body)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/corpora", `{"igts": [{"id": "a"}, {"id": "a"}]}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate record IDs, got %d", resp.StatusCode)
	}

	for _, path := range []string{
		"/v1/corpora/nope",
		"/v1/corpora/nope/summary",
		"/v1/corpora/nope/igts",
	} {
		resp, _ := do(t, http.MethodGet, ts.URL+path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}

	cid := createCorpus(t, ts, "badmatch")
	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/corpora/"+cid+"/igts?match="+url.QueryEscape("tier["), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed match expression, got %d", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, http.MethodGet, ts.URL+"/v1/corpora", "")
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected allow-origin *, got %q", got)
	}

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/corpora", nil)
	if err != nil {
		t.Fatal(err)
	}
	preflight, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	preflight.Body.Close()
	if preflight.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", preflight.StatusCode)
	}
	if !strings.Contains(preflight.Header.Get("Access-Control-Allow-Methods"), "PUT") {
		t.Errorf("preflight lacks allowed methods: %v", preflight.Header)
	}
}

func TestContentType(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, http.MethodGet, ts.URL+"/v1/corpora", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}
