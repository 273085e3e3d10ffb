package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/pipeline"
	"github.com/dgallion1/cvsplit/internal/route"
	"github.com/dgallion1/cvsplit/internal/sections"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

const apiKey = "test-key"

const resume = `Jane Doe

## Skills
Go, SQL

## Experience
Acme Corp

## Interests
Football, chess
`

type testEnv struct {
	srv  *httptest.Server
	orch *pipeline.Orchestrator
}

func newTestEnv(t *testing.T, stats *route.LatencyStats) *testEnv {
	t.Helper()
	cfg := config.Config{
		APIKey:             apiKey,
		WorkerCount:        1,
		MaxQueueSize:       8,
		MaxConcurrentStore: 1,
		MaxUploadBytes:     1 << 20,
		DefaultChunkSize:   1500,
		JobTTL:             time.Hour,
		AnthropicModel:     "test-model",
	}
	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tbl := sections.Default()
	orch := pipeline.NewOrchestrator(cfg, segmenter.New(tbl), st, log)
	orch.Start(context.Background())

	srv := httptest.NewServer(NewServer(orch, route.NewKeywordRouter(tbl), stats, log, cfg))
	t.Cleanup(func() {
		srv.Close()
		orch.Stop()
		st.Close()
	})
	return &testEnv{srv: srv, orch: orch}
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return mw.FormDataContentType(), &buf
}

func (e *testEnv) ingest(t *testing.T, filename, content string, fields map[string]string) map[string]any {
	t.Helper()
	ct, body := multipartBody(t, "file", map[string]string{filename: content}, fields)
	resp, data := e.do(t, http.MethodPost, "/api/ingest", ct, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("ingest: expected 202, got %d: %s", resp.StatusCode, data)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	job := e.orch.GetJob(out["job_id"].(string))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !job.Wait(ctx) {
		t.Fatalf("job %v did not finish", out["job_id"])
	}
	return out
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/api/sections")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/sections", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestSections(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, data := env.do(t, http.MethodGet, "/api/sections", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Labels []struct {
			Label    string   `json:"label"`
			Variants []string `json:"variants"`
		} `json:"labels"`
		General string `json:"general"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Labels) != 12 || out.Labels[0].Label != "summary" || out.General != "general" {
		t.Errorf("unexpected sections response: %s", data)
	}
}

func TestSegment(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json", "application/json", `{"text": "Intro line\n# Skills\nJava"}`},
		{"plain", "text/plain; charset=utf-8", "Intro line\n# Skills\nJava"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, data := env.do(t, http.MethodPost, "/api/segment", tc.contentType, strings.NewReader(tc.body))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
			}
			var out segmentResponse
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if out.Sections["general"] != "Intro line" || out.Sections["skills"] != "Java" || len(out.Sections) != 2 {
				t.Errorf("unexpected sections: %v", out.Sections)
			}
			if len(out.Headings) != 1 || out.Headings[0].LineNumber != 1 {
				t.Errorf("unexpected headings: %+v", out.Headings)
			}
			if len(out.Spans) != 2 {
				t.Errorf("expected 2 spans, got %d", len(out.Spans))
			}
		})
	}

	resp, data := env.do(t, http.MethodPost, "/api/segment", "application/json", strings.NewReader(`{"text": ""}`))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"sections":{}`) {
		t.Errorf("expected empty sections for empty text, got %d: %s", resp.StatusCode, data)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/segment", "application/json", strings.NewReader(`{bad`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid json, got %d", resp.StatusCode)
	}
}

func TestIngestAndDocuments(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.ingest(t, "jane.md", resume, map[string]string{"doc_id": "jane", "title": "Jane Doe"})
	if out["doc_id"] != "jane" {
		t.Fatalf("expected doc_id jane, got %v", out["doc_id"])
	}

	resp, data := env.do(t, http.MethodGet, "/api/ingest/"+out["job_id"].(string)+"/status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", resp.StatusCode)
	}
	var snap pipeline.JobSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != pipeline.StatusCompleted || snap.Progress.Sections != 4 {
		t.Fatalf("unexpected job snapshot: %s", data)
	}

	resp, data = env.do(t, http.MethodGet, "/api/documents", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"doc_id":"jane"`) {
		t.Errorf("list: unexpected %d: %s", resp.StatusCode, data)
	}

	resp, data = env.do(t, http.MethodGet, "/api/documents/jane", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	var doc struct {
		Document struct {
			Title    string            `json:"title"`
			Sections map[string]string `json:"sections"`
		} `json:"document"`
		Chunks int `json:"chunks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Document.Title != "Jane Doe" || doc.Document.Sections["skills"] != "Go, SQL" || doc.Chunks != 4 {
		t.Errorf("unexpected document: %s", data)
	}

	resp, data = env.do(t, http.MethodGet, "/api/documents/jane?format=html", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("html: unexpected %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(data), `data-section="skills"`) {
		t.Errorf("html: expected skills section, got %s", data)
	}

	resp, data = env.do(t, http.MethodGet, "/api/documents/jane/chunks", "", nil)
	if resp.StatusCode != http.StatusOK || strings.Count(string(data), `"breadcrumb"`) != 4 {
		t.Errorf("chunks: unexpected %d: %s", resp.StatusCode, data)
	}

	// Same content again is skipped as a duplicate.
	dup := env.ingest(t, "copy.md", resume, nil)
	job := env.orch.GetJob(dup["job_id"].(string)).Snapshot()
	if job.Status != pipeline.StatusDupSkipped || job.DuplicateOf != "jane" {
		t.Errorf("expected duplicate of jane, got %s/%s", job.Status, job.DuplicateOf)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/documents/jane", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", resp.StatusCode)
	}
	for _, path := range []string{"/api/documents/jane", "/api/documents/jane/chunks"} {
		if resp, _ := env.do(t, http.MethodGet, path, "", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", path, resp.StatusCode)
		}
	}
	if resp, _ := env.do(t, http.MethodDelete, "/api/documents/jane", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	ct, body := multipartBody(t, "file", map[string]string{"cv.exe": "x"}, nil)
	if resp, _ := env.do(t, http.MethodPost, "/api/ingest", ct, body); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", resp.StatusCode)
	}

	ct, body = multipartBody(t, "file", map[string]string{"cv.txt": "x"}, map[string]string{"doc_id": "../etc"})
	if resp, _ := env.do(t, http.MethodPost, "/api/ingest", ct, body); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad doc id: expected 400, got %d", resp.StatusCode)
	}

	ct, body = multipartBody(t, "other", map[string]string{"cv.txt": "x"}, nil)
	if resp, _ := env.do(t, http.MethodPost, "/api/ingest", ct, body); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file: expected 400, got %d", resp.StatusCode)
	}

	if resp, _ := env.do(t, http.MethodGet, "/api/ingest/nope/status", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job: expected 404, got %d", resp.StatusCode)
	}
}

func TestBatchIngest(t *testing.T) {
	env := newTestEnv(t, nil)
	ct, body := multipartBody(t, "files", map[string]string{
		"a.txt":  "Skills\nGo",
		"b.md":   "# Education\nMIT",
		"c.jpeg": "binary",
	}, nil)
	resp, data := env.do(t, http.MethodPost, "/api/ingest/batch", ct, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, data)
	}
	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Jobs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Jobs))
	}
	accepted, rejected := 0, 0
	for _, j := range out.Jobs {
		if _, ok := j["error"]; ok {
			rejected++
		} else {
			accepted++
		}
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("expected 2 accepted and 1 rejected, got %d/%d", accepted, rejected)
	}
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ingest(t, "jane.md", resume, map[string]string{"doc_id": "jane"})
	env.ingest(t, "john.txt", "John\nEducation\nMIT", map[string]string{"doc_id": "john"})

	resp, data := env.do(t, http.MethodPost, "/api/query", "application/json",
		strings.NewReader(`{"question": "Who plays sports as a hobby?"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var out struct {
		Decision route.Decision `json:"decision"`
		Results  []queryResult  `json:"results"`
		Missing  []string       `json:"missing"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Decision.Sections) != 1 || out.Decision.Sections[0] != "interests" {
		t.Errorf("unexpected decision: %+v", out.Decision)
	}
	if len(out.Results) != 1 || out.Results[0].DocID != "jane" || out.Results[0].Spans[0].Text != "Football, chess" {
		t.Errorf("unexpected results: %+v", out.Results)
	}

	resp, data = env.do(t, http.MethodPost, "/api/query", "application/json",
		strings.NewReader(`{"question": "Which degree?", "doc_ids": ["john", "ghost"]}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out.Results, out.Missing = nil, nil
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 || out.Results[0].DocID != "john" {
		t.Errorf("unexpected results: %+v", out.Results)
	}
	if len(out.Missing) != 1 || out.Missing[0] != "ghost" {
		t.Errorf("expected ghost missing, got %v", out.Missing)
	}

	if resp, _ := env.do(t, http.MethodPost, "/api/query", "application/json", strings.NewReader(`{"question": " "}`)); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty question: expected 400, got %d", resp.StatusCode)
	}
}

func TestLLMStats(t *testing.T) {
	env := newTestEnv(t, nil)
	if resp, _ := env.do(t, http.MethodGet, "/api/stats/llm", "", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without stats, got %d", resp.StatusCode)
	}

	stats := route.NewLatencyStats(time.Hour)
	stats.Record(120)
	env = newTestEnv(t, stats)
	resp, data := env.do(t, http.MethodGet, "/api/stats/llm", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"count":1`) || !strings.Contains(string(data), `"model":"test-model"`) {
		t.Errorf("unexpected stats: %s", data)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"cv.pdf":                "cv.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\jane\cv.docx`: "cv.docx",
		"":                      "unnamed",
		"a..b.txt":              "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
