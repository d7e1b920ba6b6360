package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>...",
	Short: "Scrape review pages and analyze them with Claude",
	Long: "Scrapes each URL through the fallback chain (Reddit, Apify, Firecrawl, plain HTTP), " +
		"analyzes the content with Claude and stores the result. One failed URL does not stop the rest.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		clientID, _ := cmd.Flags().GetString("client")
		competitorID, _ := cmd.Flags().GetString("competitor")
		project, _ := cmd.Flags().GetString("project")
		format, _ := cmd.Flags().GetString("format")

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		results := env.Service.AnalyzeURLs(ctx, analyze.BatchRequest{
			URLs:         args,
			ProjectName:  project,
			ClientID:     clientID,
			CompetitorID: competitorID,
		})

		failed := 0
		for _, r := range results {
			if r.Err != "" {
				failed++
			}
		}
		zap.L().Info("analyze complete",
			zap.Int("urls", len(results)),
			zap.Int("failed", failed),
		)

		if err := writeBatch(os.Stdout, format, results); err != nil {
			return err
		}
		if failed == len(results) {
			return eris.Errorf("analyze: all %d urls failed", failed)
		}
		return nil
	},
}

func writeBatch(w io.Writer, format string, results []analyze.BatchResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "table", "":
		formatBatchTable(w, results)
		return nil
	default:
		return eris.Errorf("unknown format %q (table, json)", format)
	}
}

func formatBatchTable(w io.Writer, results []analyze.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSOURCE\tSENTIMENT\tSCORE\tSUMMARY") //nolint:errcheck
	for _, r := range results {
		if r.Record == nil {
			fmt.Fprintf(tw, "%s\t-\terror\t-\t%s\n", r.URL, r.Err) //nolint:errcheck
			continue
		}
		score := "-"
		if r.Record.SentimentScore.Valid {
			score = fmt.Sprintf("%.1f", r.Record.SentimentScore.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck
			r.URL, r.Record.SourceType, r.Record.OverallSentiment, score, r.Record.Summary)
	}
	_ = tw.Flush()
}

func init() {
	analyzeCmd.Flags().String("client", "", "client ID the analyses belong to")
	analyzeCmd.Flags().String("competitor", "", "competitor ID the analyses belong to")
	analyzeCmd.Flags().String("project", "", "project name (default from the service)")
	analyzeCmd.Flags().String("format", "table", "output format: table or json")
	rootCmd.AddCommand(analyzeCmd)
}
