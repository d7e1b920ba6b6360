package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/sells-group/pulse/internal/analyses"
	"github.com/sells-group/pulse/internal/deepdive"
	"github.com/sells-group/pulse/internal/ingest"
	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/model"
)

// uploadResponse describes an uploaded file. Exactly one of Locations or
// Analyses is set, depending on Kind.
type uploadResponse struct {
	Kind      model.DatasetKind         `json:"kind"`
	Rows      int                       `json:"rows"`
	Columns   []string                  `json:"columns"`
	GroupBy   string                    `json:"group_by,omitempty"`
	Dropped   int                       `json:"dropped,omitempty"`
	Locations []locations.LocationStats `json:"locations,omitempty"`
	Analyses  *analyses.Summary         `json:"analyses,omitempty"`
}

// upload parses a review file from the body. Query: format (csv, tsv,
// xlsx; default csv), group_by (preset or column; default location),
// sort and q for the dashboard view.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	resp := uploadResponse{Kind: ingest.Sniff(ds), Rows: ds.Len(), Columns: ds.Columns}
	switch resp.Kind {
	case model.KindRawReviews:
		resp.GroupBy = groupByParam(r)
		grouping := s.rules.Grouper().Group(ds, locations.ResolveKey(resp.GroupBy))
		stats := s.rules.Aggregator().StatsAll(grouping.Groups)
		resp.Dropped = grouping.Dropped
		resp.Locations = locations.View(stats, q.Get("q"), locations.SortKey(q.Get("sort")))
		if resp.Locations == nil {
			resp.Locations = []locations.LocationStats{}
		}
	case model.KindAnalysesExport:
		sum := analyses.Aggregate(analyses.RecordsFromDataset(ds))
		resp.Analyses = &sum
	}
	writeJSON(w, http.StatusOK, resp)
}

type deepDiveResponse struct {
	GroupBy string                 `json:"group_by"`
	Failed  int                    `json:"failed"`
	Groups  []deepdive.GroupResult `json:"groups"`
}

// deepDive analyzes groups of an uploaded review file. Query: group_by,
// names (repeatable; default every group), format. Names are not split on
// commas since city keys contain them.
func (s *Server) deepDive(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readDataset(w, r)
	if !ok {
		return
	}
	if ingest.Sniff(ds) != model.KindRawReviews {
		writeError(w, http.StatusUnprocessableEntity, "deep dive needs a raw reviews file")
		return
	}

	groupBy := groupByParam(r)
	names := nameParams(r)
	grouping := s.rules.Grouper().Group(ds, locations.ResolveKey(groupBy))

	opts := s.opts.DeepDive
	opts.GroupBy = groupBy
	if s.deps.Store != nil {
		opts.Sink = s.deps.Store
	}
	results := deepdive.NewRunner(s.deps.Analyzer, opts).
		Run(r.Context(), grouping.DeepDiveInputs(names...)).
		Prune(grouping.Names())

	stats := s.rules.Aggregator().StatsAll(grouping.Groups)
	merged := results.Merge(stats)
	groups := make([]deepdive.GroupResult, 0, len(results))
	for _, g := range merged {
		if g.DeepDive != nil {
			groups = append(groups, g)
		}
	}

	writeJSON(w, http.StatusOK, deepDiveResponse{
		GroupBy: groupBy,
		Failed:  results.Failed(),
		Groups:  groups,
	})
}

// readDataset parses the request body, writing the error response itself
// when it fails.
func (s *Server) readDataset(w http.ResponseWriter, r *http.Request) (model.Dataset, bool) {
	format := ingest.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = ingest.FormatCSV
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return model.Dataset{}, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return model.Dataset{}, false
	}

	ds, err := ingest.Parse(data, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Dataset{}, false
	}
	return ds, true
}

func groupByParam(r *http.Request) string {
	if g := strings.TrimSpace(r.URL.Query().Get("group_by")); g != "" {
		return g
	}
	return locations.PresetLocation
}

func nameParams(r *http.Request) []string {
	var names []string
	for _, n := range r.URL.Query()["names"] {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
