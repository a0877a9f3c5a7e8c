package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/importer/internal/core"
	"github.com/fieldline/importer/internal/schema"
	"github.com/fieldline/importer/internal/tabular"
)

// maxMultipartMemory is how much of a multipart upload is held in memory
// before spilling to disk.
const maxMultipartMemory = 10 << 20 // 10MB

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// targetInfo is the list representation of an import target.
type targetInfo struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	FieldCount int    `json:"fieldCount"`
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets := schema.All()
	infos := make([]targetInfo, len(targets))
	for i, t := range targets {
		infos[i] = targetInfo{Key: t.Key, Label: t.Label, FieldCount: len(t.Fields)}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleTargetFields(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "target")
	target, ok := schema.Get(key)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownTarget, key))
		return
	}
	writeJSON(w, http.StatusOK, target.Fields)
}

// createJobResponse bundles the new job with the parsed headers so clients
// can render the mapping screen from one round trip.
type createJobResponse struct {
	Job     *core.Job `json:"job"`
	Headers []string  `json:"headers,omitempty"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+maxMultipartMemory)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
		return
	}

	target := r.FormValue("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "target is required", Message: "target is required", Code: "MAP001",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "no file provided", Message: "no file provided",
			Action: "Attach a file under the form field \"file\"", Code: "FILE003",
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	opts := tabular.Options{
		NoHeader: r.FormValue("no_header") == "true",
	}
	if d := r.FormValue("delimiter"); d != "" {
		ru, _ := utf8.DecodeRuneInString(d)
		opts.Delimiter = ru
	}

	job, err := s.service.CreateJob(r.Context(), target, header.Filename, content, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := createJobResponse{Job: job}
	if headers, err := s.service.Headers(job.ID); err == nil {
		resp.Headers = headers
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.service.Jobs(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*core.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobHeaders(w http.ResponseWriter, r *http.Request) {
	headers, err := s.service.Headers(chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, headers)
}

// unmappedResponse reports mapping readiness for the mapping screen.
type unmappedResponse struct {
	UnmappedRequired []schema.FieldDefinition `json:"unmappedRequired"`
	AvailableFields  []schema.FieldDefinition `json:"availableFields"`
	Ready            bool                     `json:"ready"`
	Reasons          []string                 `json:"reasons,omitempty"`
}

func (s *Server) handleUnmappedFields(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	target, ok := schema.Get(job.Target)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownTarget, job.Target))
		return
	}

	ready, reasons := core.ValidateMappings(job.Mappings, target)
	writeJSON(w, http.StatusOK, unmappedResponse{
		UnmappedRequired: core.UnmappedRequiredFields(job.Mappings, target),
		AvailableFields:  core.AvailableFields(job.Mappings, target),
		Ready:            ready,
		Reasons:          reasons,
	})
}

// updateMappingRequest is the body for a mapping override. An empty
// targetField unmaps the column.
type updateMappingRequest struct {
	SourceColumn string `json:"sourceColumn"`
	TargetField  string `json:"targetField"`
}

func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	var req updateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body", Message: "invalid request body", Code: "MAP003",
		})
		return
	}

	job, err := s.service.UpdateMapping(r.Context(), chi.URLParam(r, "jobID"), req.SourceColumn, req.TargetField)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Validate(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		var mappingErr *core.MappingError
		if errors.As(err, &mappingErr) && job != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"job":     job,
				"reasons": mappingErr.Reasons,
			})
			return
		}
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Import(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// A failed import is still a 200: the job record carries the outcome.
	writeJSON(w, http.StatusOK, job)
}

// rollbackResponse pairs the updated job with the deletion report.
type rollbackResponse struct {
	Job    *core.Job            `json:"job"`
	Result *core.RollbackResult `json:"result"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	job, result, err := s.service.Rollback(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollbackResponse{Job: job, Result: result})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "column query parameter is required", Message: "column query parameter is required", Code: "MAP004",
		})
		return
	}

	groups, err := s.service.Duplicates(chi.URLParam(r, "jobID"), column)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if groups == nil {
		groups = []core.DuplicateGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
