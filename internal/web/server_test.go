package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldline/importer/internal/config"
	"github.com/fieldline/importer/internal/core"
)

type memRepo struct {
	mu      sync.Mutex
	nextID  int
	records map[string]map[string]string
}

func (r *memRepo) Create(ctx context.Context, target string, fields map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = make(map[string]map[string]string)
	}
	r.nextID++
	id := fmt.Sprintf("rec-%d", r.nextID)
	r.records[id] = fields
	return id, nil
}

func (r *memRepo) Delete(ctx context.Context, target, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return errors.New("record not found")
	}
	delete(r.records, id)
	return nil
}

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*core.Job
}

func (s *memJobStore) Save(ctx context.Context, job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[string]*core.Job)
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memJobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	clone := *job
	return &clone, nil
}

func (s *memJobStore) List(ctx context.Context) ([]*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Job
	for _, job := range s.jobs {
		clone := *job
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memJobStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func testServer() *Server {
	svc := core.NewService(&memRepo{}, &memJobStore{}, core.Options{
		MaxFileSize: 1 << 20,
		RepoTimeout: time.Second,
	})
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
	return NewServer(svc, cfg)
}

func multipartUpload(t *testing.T, target, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("target", target); err != nil {
		t.Fatal(err)
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func createJob(t *testing.T, srv *Server, content string) createJobResponse {
	t.Helper()
	body, contentType := multipartUpload(t, "contacts", "contacts.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/jobs status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp createJobResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func do(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestAPI_ListTargets(t *testing.T) {
	srv := testServer()

	rec := do(t, srv, http.MethodGet, "/api/targets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var targets []targetInfo
	if err := json.NewDecoder(rec.Body).Decode(&targets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(targets) < 3 {
		t.Errorf("len(targets) = %d, want at least 3", len(targets))
	}
}

func TestAPI_TargetFields(t *testing.T) {
	srv := testServer()

	rec := do(t, srv, http.MethodGet, "/api/targets/contacts/fields", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/targets/widgets/fields", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown target status = %d, want 404", rec.Code)
	}
}

func TestAPI_FullImportFlow(t *testing.T) {
	srv := testServer()

	resp := createJob(t, srv, "Client Name,Email\nAcme,a@acme.com\nGlobex,g@globex.com\n")
	if resp.Job.Status != core.StatusMapping {
		t.Fatalf("job status = %s, want mapping", resp.Job.Status)
	}
	if len(resp.Headers) != 2 {
		t.Fatalf("headers = %v, want 2 entries", resp.Headers)
	}
	jobID := resp.Job.ID

	// Validate
	rec := do(t, srv, http.MethodPost, "/api/jobs/"+jobID+"/validate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Import
	rec = do(t, srv, http.MethodPost, "/api/jobs/"+jobID+"/import", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var job core.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != core.StatusCompleted {
		t.Errorf("job status = %s, want completed", job.Status)
	}
	if len(job.CreatedRecordIDs) != 2 {
		t.Errorf("createdRecordIds = %v, want 2", job.CreatedRecordIDs)
	}

	// Rollback
	rec = do(t, srv, http.MethodPost, "/api/jobs/"+jobID+"/rollback", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rollback status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rb rollbackResponse
	if err := json.NewDecoder(rec.Body).Decode(&rb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rb.Result.Complete || rb.Job.Status != core.StatusRolledBack {
		t.Errorf("rollback = %+v / %s, want complete and rolled_back", rb.Result, rb.Job.Status)
	}
}

func TestAPI_ValidateWithIncompleteMappings(t *testing.T) {
	srv := testServer()

	resp := createJob(t, srv, "Client Name,Phone\nAcme,1234567890\n")

	rec := do(t, srv, http.MethodPost, "/api/jobs/"+resp.Job.ID+"/validate", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Reasons []string `json:"reasons"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reasons) == 0 {
		t.Error("expected mapping reasons in the response")
	}
}

func TestAPI_UpdateMapping(t *testing.T) {
	srv := testServer()

	resp := createJob(t, srv, "Client Name,Email,misc_col\nAcme,a@acme.com,x\n")

	rec := do(t, srv, http.MethodPut, "/api/jobs/"+resp.Job.ID+"/mappings",
		`{"sourceColumn":"misc_col","targetField":"notes"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var job core.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var mapped bool
	for _, m := range job.Mappings {
		if m.SourceColumn == "misc_col" && m.TargetField == "notes" {
			mapped = true
		}
	}
	if !mapped {
		t.Errorf("mappings = %+v, want misc_col mapped to notes", job.Mappings)
	}
}

func TestAPI_JobNotFound(t *testing.T) {
	srv := testServer()

	rec := do(t, srv, http.MethodGet, "/api/jobs/11111111-2222-3333-4444-555555555555", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "JOB001" {
		t.Errorf("error code = %q, want JOB001", body.Code)
	}
}

func TestAPI_CreateJobRejectsMissingFile(t *testing.T) {
	srv := testServer()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("target", "contacts")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAPI_Duplicates(t *testing.T) {
	srv := testServer()

	resp := createJob(t, srv, "Client Name,Email\nAcme,dup@x.com\nGlobex,dup@x.com\n")

	rec := do(t, srv, http.MethodGet, "/api/jobs/"+resp.Job.ID+"/duplicates?column=Email", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var groups []core.DuplicateGroup
	if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("groups = %v, want one", groups)
	}

	rec = do(t, srv, http.MethodGet, "/api/jobs/"+resp.Job.ID+"/duplicates", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing column status = %d, want 400", rec.Code)
	}
}

func TestAPI_Health(t *testing.T) {
	srv := testServer()

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
