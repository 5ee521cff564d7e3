package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/creditdesk/internal/core"
	"github.com/JonMunkholm/creditdesk/internal/logging"
)

// handleUserCredits returns every credit of a user with payment details.
func (s *Server) handleUserCredits(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		s.respondError(w, r, fmt.Errorf("%w: user id %q", core.ErrInvalidParameter, raw))
		return
	}

	credits, err := s.service.UserCredits(r.Context(), int32(id))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

// PlanTargetsResponse reports a successful plan-target import.
type PlanTargetsResponse struct {
	FileName string `json:"file_name"`
	Inserted int    `json:"inserted"`
}

// handlePlanTargets imports monthly plan targets. The upload is
// all-or-nothing: any bad row rejects the whole file.
func (s *Server) handlePlanTargets(w http.ResponseWriter, r *http.Request) {
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

	n, err := s.service.ImportPlanTargets(r.Context(), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("plan targets uploaded", "file", header.Filename, "inserted", n)
	writeJSON(w, http.StatusCreated, PlanTargetsResponse{FileName: header.Filename, Inserted: n})
}

// yearParam reads the required year query parameter.
func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q is not a number", core.ErrInvalidYear, raw)
	}
	return year, nil
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := s.yearPerformance(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

// handlePerformanceReport renders the performance table as an HTML page.
func (s *Server) handlePerformanceReport(w http.ResponseWriter, r *http.Request) {
	perf, err := s.yearPerformance(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	title := fmt.Sprintf("Plan performance %d", perf.Year)
	templ.Handler(Page(title, PerformanceTable(perf))).ServeHTTP(w, r)
}

func (s *Server) yearPerformance(r *http.Request) (*core.YearPerformance, error) {
	year, err := yearParam(r)
	if err != nil {
		return nil, err
	}
	return s.service.YearPerformance(r.Context(), year)
}
