package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/creditdesk/internal/core"
	"github.com/JonMunkholm/creditdesk/internal/logging"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the loader's file size limit.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const maxMemory = 32 << 20

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListEntities lists the registered entities with their columns.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Entities())
}

// handleLoad runs the loader on the entity's file in the data directory.
// Row failures are part of a successful response.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	res, err := s.service.Load(r.Context(), entity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLoadAll loads every entity with a data file, in load order.
func (s *Server) handleLoadAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.LoadAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if results == nil {
		results = []*core.LoadResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// handleUpload runs a multipart CSV upload through the loader.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	if err := s.uploads.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.uploads.Release()

	file, header, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	logging.WithFields(r.Context(), "entity", entity, "file", header.Filename, "size", header.Size).
		Info("upload received")

	res, err := s.service.LoadUpload(r.Context(), entity, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// formFile extracts the "file" part of a size-limited multipart form.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	limit := s.cfg.Loader.MaxFileSize.Bytes()
	if limit <= 0 {
		limit = core.DefaultMaxFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, limit)
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	if header.Size > limit {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", core.ErrFileTooLarge, header.Filename, header.Size, limit)
	}
	return file, header, nil
}

// handleImportRuns lists recorded runs, newest first.
func (s *Server) handleImportRuns(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	limit := parseIntParam(r, "limit", core.DefaultRunsLimit)

	runs, err := s.service.ImportRuns(r.Context(), entity, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.ImportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}
