package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/pulse/internal/analyses"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/store"
)

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Store.ListClients(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "Name required")
		return
	}
	c.ID = ""

	if err := s.deps.Store.CreateClient(r.Context(), &c); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listCompetitors(w http.ResponseWriter, r *http.Request) {
	comps, err := s.deps.Store.ListCompetitors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if comps == nil {
		comps = []model.Competitor{}
	}
	writeJSON(w, http.StatusOK, comps)
}

func (s *Server) createCompetitor(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	var c model.Competitor
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "Name required")
		return
	}
	if _, err := s.deps.Store.GetClient(r.Context(), clientID); err != nil {
		writeErr(w, err)
		return
	}
	c.ID = ""
	c.ClientID = clientID

	if err := s.deps.Store.CreateCompetitor(r.Context(), &c); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) deleteCompetitor(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteCompetitor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AnalysisFilter{
		ClientID:     q.Get("client_id"),
		CompetitorID: q.Get("competitor_id"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	recs, err := s.deps.Store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if recs == nil {
		recs = []model.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// dashboardResponse is everything the client dashboard renders.
type dashboardResponse struct {
	Client      *model.Client                `json:"client"`
	Competitors []model.Competitor           `json:"competitors"`
	Summary     analyses.Summary             `json:"summary"`
	Comparison  []analyses.CompetitorSummary `json:"comparison"`
	Analyses    []model.AnalysisRecord       `json:"analyses"`
	Insight     *model.Insight               `json:"insight"`
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id required")
		return
	}
	ctx := r.Context()

	client, err := s.deps.Store.GetClient(ctx, clientID)
	if err != nil {
		writeErr(w, err)
		return
	}
	comps, err := s.deps.Store.ListCompetitors(ctx, clientID)
	if err != nil {
		writeErr(w, err)
		return
	}
	recs, err := s.deps.Store.ListAnalyses(ctx, store.AnalysisFilter{ClientID: clientID})
	if err != nil {
		writeErr(w, err)
		return
	}
	insight, err := s.deps.Store.LatestInsight(ctx, clientID)
	if err != nil {
		writeErr(w, err)
		return
	}

	own, rivals := analyses.SplitByOwner(recs)
	resp := dashboardResponse{
		Client:      client,
		Competitors: comps,
		Summary:     analyses.AggregateWith(own, analyses.DashboardLimits()),
		Comparison:  analyses.SummarizeCompetitors(rivals, comps),
		Analyses:    own,
		Insight:     insight,
	}
	if resp.Competitors == nil {
		resp.Competitors = []model.Competitor{}
	}
	if resp.Comparison == nil {
		resp.Comparison = []analyses.CompetitorSummary{}
	}
	if resp.Analyses == nil {
		resp.Analyses = []model.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) latestInsight(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id required")
		return
	}
	in, err := s.deps.Store.LatestInsight(r.Context(), clientID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

type insightRequest struct {
	ClientID   string                 `json:"client_id"`
	ClientName string                 `json:"client_name"`
	Analyses   []model.AnalysisRecord `json:"analyses"`
}

// generateInsight uses the analyses in the body, or the client's stored
// analyses when the body has none.
func (s *Server) generateInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id and analyses required")
		return
	}
	ctx := r.Context()

	recs := req.Analyses
	if len(recs) == 0 {
		stored, err := s.deps.Store.ListAnalyses(ctx, store.AnalysisFilter{ClientID: req.ClientID})
		if err != nil {
			writeErr(w, err)
			return
		}
		recs = stored
	}
	if len(recs) == 0 {
		writeError(w, http.StatusBadRequest, "client_id and analyses required")
		return
	}
	if req.ClientName == "" {
		if c, err := s.deps.Store.GetClient(ctx, req.ClientID); err == nil {
			req.ClientName = c.Name
		}
	}

	in, err := s.deps.Insights.Generate(ctx, req.ClientID, req.ClientName, recs)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.deps.Store.SaveInsight(ctx, in); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
