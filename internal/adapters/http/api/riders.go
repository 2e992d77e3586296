package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/okian/cyclingdb/internal/domain/stats"
)

// ExportFilename is the attachment name of exported CSV files.
const ExportFilename = "filtered_riders.csv"

// handleRiders handles GET /riders.
func (s *Server) handleRiders(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Search(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleExport handles GET /riders/export. Paging parameters are ignored.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	n, err := s.deps.Export(r.Context(), req, &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type statsResponse struct {
	Summary stats.Summary `json:"summary"`
	Overall stats.Summary `json:"overall"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filtered, overall, err := s.deps.Summary(r.Context(), req.Criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Summary: filtered, Overall: overall})
}

// handleFilters handles GET /filters.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.deps.Options(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
