package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/analyses"
	"github.com/sells-group/pulse/internal/ingest"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/store"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Aggregate analyses from an export file or a stored client",
	Long: "Builds the sentiment dashboard (counts, top themes, pain points, platforms, key quotes) " +
		"from an analyses export file, or from a client's stored analyses with --client. " +
		"--insights asks Claude for strategic recommendations and stores them for the client.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		clientID, _ := cmd.Flags().GetString("client")
		format, _ := cmd.Flags().GetString("format")
		withInsights, _ := cmd.Flags().GetBool("insights")

		if len(args) == 0 && clientID == "" {
			return eris.New("summarize: pass an export file or --client")
		}
		if withInsights && clientID == "" {
			return eris.New("summarize: --insights requires --client")
		}

		var (
			recs []model.AnalysisRecord
			env  *appEnv
			st   store.Store
			err  error
		)
		switch {
		case withInsights:
			env, err = initEnv(ctx, "insights")
			if err != nil {
				return err
			}
			defer env.Close()
			st = env.Store
		case clientID != "":
			if err := cfg.Validate("store"); err != nil {
				return err
			}
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		if len(args) == 1 {
			recs, err = loadAnalysesFile(args[0])
		} else {
			recs, err = st.ListAnalyses(ctx, store.AnalysisFilter{ClientID: clientID})
		}
		if err != nil {
			return err
		}

		summary := analyses.Aggregate(recs)
		var insight *model.Insight
		if withInsights {
			c, err := st.GetClient(ctx, clientID)
			if err != nil {
				return eris.Wrapf(err, "summarize: client %s", clientID)
			}
			insight, err = env.Insights.Generate(ctx, clientID, c.Name, recs)
			if err != nil {
				return err
			}
			if err := st.SaveInsight(ctx, insight); err != nil {
				return err
			}
			zap.L().Info("summarize: insight saved", zap.String("client_id", clientID))
		}

		return writeSummary(os.Stdout, format, summary, insight)
	},
}

// loadAnalysesFile reads an analyses export and converts its rows.
func loadAnalysesFile(path string) ([]model.AnalysisRecord, error) {
	ds, err := ingest.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if kind := ingest.Sniff(ds); kind != model.KindAnalysesExport {
		return nil, eris.Errorf("%s is not an analyses export (detected %s)", path, kind)
	}
	return analyses.RecordsFromDataset(ds), nil
}

type summaryOutput struct {
	analyses.Summary
	Insight *model.Insight `json:"insight,omitempty"`
}

func writeSummary(w io.Writer, format string, s analyses.Summary, insight *model.Insight) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryOutput{Summary: s, Insight: insight})
	case "text", "":
		formatSummary(w, s)
		if insight != nil {
			formatInsight(w, insight)
		}
		return nil
	default:
		return eris.Errorf("unknown format %q (text, json)", format)
	}
}

func formatSummary(w io.Writer, s analyses.Summary) {
	avg := "-"
	if s.AvgScore != nil {
		avg = strconv.FormatFloat(*s.AvgScore, 'f', 1, 64)
	}
	fmt.Fprintf(w, "Analyses: %d  Avg score: %s (%d scored)\n", s.Total, avg, s.Scored) //nolint:errcheck
	for _, sent := range model.Sentiments() {
		fmt.Fprintf(w, "  %-9s %d\n", string(sent), s.SentimentCounts[sent]) //nolint:errcheck
	}

	formatCounts(w, "Top themes", s.TopThemes)
	formatCounts(w, "Top pain points", s.TopPains)
	formatCounts(w, "Top praise", s.TopPraise)
	formatCounts(w, "Competitor mentions", s.TopCompetitors)

	if len(s.Platforms) > 0 {
		fmt.Fprintln(w, "\nPlatforms") //nolint:errcheck
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tCOUNT\tAVG\tPOS%\tNEG%") //nolint:errcheck
		for _, p := range s.Platforms {
			pavg := "-"
			if p.Avg != nil {
				pavg = strconv.FormatFloat(*p.Avg, 'f', 1, 64)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", p.Source, p.Total, pavg, p.PctPositive, p.PctNegative) //nolint:errcheck
		}
		_ = tw.Flush()
	}

	if len(s.KeyQuotes) > 0 {
		fmt.Fprintln(w, "\nKey quotes") //nolint:errcheck
		for _, q := range s.KeyQuotes {
			fmt.Fprintf(w, "  [%s] %q\n", q.Source, q.Text) //nolint:errcheck
		}
	}
}

func formatCounts(w io.Writer, title string, counts []analyses.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title) //nolint:errcheck
	for _, c := range counts {
		fmt.Fprintf(w, "  %3d  %s\n", c.Count, c.Value) //nolint:errcheck
	}
}

func formatInsight(w io.Writer, in *model.Insight) {
	fmt.Fprintln(w, "\nInsights") //nolint:errcheck
	if in.Summary != "" {
		fmt.Fprintf(w, "  %s\n", in.Summary) //nolint:errcheck
	}
	for _, r := range in.Recommendations {
		fmt.Fprintf(w, "  - [%s] %s: %s\n", r.Priority, r.Platform, r.Action) //nolint:errcheck
	}
}

func init() {
	summarizeCmd.Flags().String("client", "", "summarize the stored analyses of this client")
	summarizeCmd.Flags().String("format", "text", "output format: text or json")
	summarizeCmd.Flags().Bool("insights", false, "generate and store Claude insights (requires --client)")
	rootCmd.AddCommand(summarizeCmd)
}
