package api

import (
	"net/http"
	"strings"

	"github.com/sells-group/pulse/internal/analyze"
	"github.com/sells-group/pulse/internal/model"
)

func (s *Server) analyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyze.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	rec, err := s.deps.Analyze.AnalyzeURL(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type batchResponse struct {
	Success bool                  `json:"success"`
	Results []analyze.BatchResult `json:"results"`
}

func (s *Server) analyzeURLs(w http.ResponseWriter, r *http.Request) {
	var req analyze.BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "URLs required")
		return
	}

	results := s.deps.Analyze.AnalyzeURLs(r.Context(), req)
	writeJSON(w, http.StatusOK, batchResponse{Success: true, Results: results})
}

type textResponse struct {
	Success     bool   `json:"success"`
	Location    string `json:"location"`
	ReviewCount int    `json:"reviewCount,omitempty"`
	model.Analysis
}

func (s *Server) analyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyze.TextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	rec, err := s.deps.Analyze.AnalyzeText(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{
		Success:     true,
		Location:    req.Label,
		ReviewCount: req.ReviewCount,
		Analysis:    rec.Analysis,
	})
}
