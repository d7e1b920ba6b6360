package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pulse/internal/analyses"
	"github.com/sells-group/pulse/internal/analyze"
	"github.com/sells-group/pulse/internal/deepdive"
	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "analyze", "locations", "summarize", "import", "clients", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "pulse", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLocationsCommand_Flags(t *testing.T) {
	for _, name := range []string{"group-by", "sort", "filter", "format", "deep-dive", "deep-dive-all"} {
		assert.NotNil(t, locationsCmd.Flags().Lookup(name), "locations should have --%s flag", name)
	}
	assert.Equal(t, locations.PresetLocation, locationsCmd.Flags().Lookup("group-by").DefValue)
	assert.Equal(t, "table", locationsCmd.Flags().Lookup("format").DefValue)
}

func TestClientsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range clientsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "add", "competitors"} {
		assert.True(t, names[name], "clients should have subcommand %q", name)
	}
}

func floatPtr(v float64) *float64 { return &v }

func sampleStats() []locations.LocationStats {
	return []locations.LocationStats{
		{Name: "Austin, TX", Avg: floatPtr(4.5), Total: 10, RatedCount: 8, PctNegative: 10, PctPositive: 80, HealthScore: 90, Health: "healthy", TopSource: "Google"},
		{Name: "Fresno, CA", Total: 2, Health: "unrated"},
	}
}

func TestFormatStatsTable(t *testing.T) {
	var buf bytes.Buffer
	formatStatsTable(&buf, sampleStats())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "Austin, TX")
	assert.Contains(t, lines[1], "4.5")
	assert.Contains(t, lines[1], "Google")
	assert.Contains(t, lines[2], "Fresno, CA")
	assert.Contains(t, lines[2], " - ")
}

func TestWriteLocations_JSONWithDeepDive(t *testing.T) {
	results := deepdive.Results{
		"Austin, TX": {Name: "Austin, TX", ReviewCount: 8, Analysis: &model.Analysis{OverallSentiment: model.SentimentPositive}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeLocations(&buf, "json", sampleStats(), results))

	var got []deepdive.GroupResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	require.NotNil(t, got[0].DeepDive)
	assert.Equal(t, model.SentimentPositive, got[0].DeepDive.Analysis.OverallSentiment)
	assert.Nil(t, got[1].DeepDive)
}

func TestWriteLocations_TableWithDeepDive(t *testing.T) {
	results := deepdive.Results{
		"Austin, TX": {Name: "Austin, TX", ReviewCount: 8, Analysis: &model.Analysis{
			OverallSentiment: model.SentimentMixed,
			Summary:          "Friendly staff, slow billing.",
			PainPoints:       model.StringList{"billing"},
		}},
		"Fresno, CA": {Name: "Fresno, CA", Err: "claude: overloaded"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeLocations(&buf, "table", sampleStats(), results))

	out := buf.String()
	assert.Contains(t, out, "== Austin, TX (8 reviews)")
	assert.Contains(t, out, "sentiment: mixed")
	assert.Contains(t, out, "Friendly staff, slow billing.")
	assert.Contains(t, out, "error: claude: overloaded")
}

func TestWriteLocations_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLocations(&buf, "csv", sampleStats(), nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "name,"))
	assert.True(t, strings.HasPrefix(lines[1], `"Austin, TX"`))
}

func TestWriteLocations_UnknownFormat(t *testing.T) {
	err := writeLocations(&bytes.Buffer{}, "xml", sampleStats(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestFormatBatchTable(t *testing.T) {
	results := []analyze.BatchResult{
		{URL: "https://yelp.com/biz/acme", Record: &model.AnalysisRecord{
			SourceType: "yelp",
			Analysis:   model.Analysis{OverallSentiment: model.SentimentNegative, SentimentScore: model.ScoreOf(3), Summary: "Long waits."},
		}},
		{URL: "https://example.com/empty", Err: "all scrapers failed"},
	}

	var buf bytes.Buffer
	formatBatchTable(&buf, results)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "negative")
	assert.Contains(t, lines[1], "3.0")
	assert.Contains(t, lines[2], "all scrapers failed")
}

func TestFormatSummary(t *testing.T) {
	recs := []model.AnalysisRecord{
		{URL: "https://yelp.com/a", SourceType: "yelp", Analysis: model.Analysis{
			OverallSentiment: model.SentimentNegative, SentimentScore: model.ScoreOf(3), Themes: model.StringList{"wait times"},
		}},
		{URL: "https://g.co/b", SourceType: "google", Analysis: model.Analysis{
			OverallSentiment: model.SentimentPositive, SentimentScore: model.ScoreOf(8), Themes: model.StringList{"wait times"},
		}},
	}

	var buf bytes.Buffer
	formatSummary(&buf, analyses.Aggregate(recs))

	out := buf.String()
	assert.Contains(t, out, "Analyses: 2  Avg score: 5.5 (2 scored)")
	assert.Contains(t, out, "Top themes")
	assert.Contains(t, out, "2  wait times")
	assert.Contains(t, out, "Platforms")
}

func TestWriteSummary_JSONIncludesInsight(t *testing.T) {
	in := &model.Insight{ClientID: "c1", Summary: "Fix billing."}

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, "json", analyses.Aggregate(nil), in))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 0, got["total"])
	require.Contains(t, got, "insight")
	assert.Equal(t, "Fix billing.", got["insight"].(map[string]any)["summary"])
}

func TestFormatClientsList(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatClientsList(&buf, []model.Client{
		{ID: "c1", Name: "Acme Clinic", Location: "Austin, TX", Industry: "healthcare", CreatedAt: created},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Acme Clinic")
	assert.Contains(t, out, "2026-03-01 09:30")
}

func TestDeepDiveTargets(t *testing.T) {
	stats := sampleStats()

	got, err := deepDiveTargets(stats, nil, false, "table")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = deepDiveTargets(stats, nil, true, "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Austin, TX", "Fresno, CA"}, got)

	got, err = deepDiveTargets(stats[:1], nil, true, "table")
	require.NoError(t, err)
	assert.Equal(t, []string{"Austin, TX"}, got)

	got, err = deepDiveTargets(stats, []string{"Fresno, CA"}, false, "table")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fresno, CA"}, got)
}

func TestDeepDiveTargets_FilteredOutName(t *testing.T) {
	// Only Austin survives the filter, so Fresno must not be analyzed.
	_, err := deepDiveTargets(sampleStats()[:1], []string{"Fresno, CA"}, false, "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Fresno, CA" is not listed`)
}

func TestDeepDiveTargets_CSVRejected(t *testing.T) {
	_, err := deepDiveTargets(sampleStats(), []string{"Austin, TX"}, false, "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")

	_, err = deepDiveTargets(sampleStats(), nil, false, "csv")
	assert.NoError(t, err)
}
