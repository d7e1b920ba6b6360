package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/deepdive"
	"github.com/sells-group/pulse/internal/ingest"
	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/model"
)

var locationsCmd = &cobra.Command{
	Use:   "locations <file>",
	Short: "Roll up a review export into per-location health",
	Long: "Groups a raw review export (csv, tsv or xlsx) by a preset (region, division, state, city, location) " +
		"or any column, and prints each group's rating average, health score and top source. " +
		"--deep-dive sends a group's comments to Claude for a sentiment analysis.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		groupBy, _ := cmd.Flags().GetString("group-by")
		sortKey, _ := cmd.Flags().GetString("sort")
		filter, _ := cmd.Flags().GetString("filter")
		format, _ := cmd.Flags().GetString("format")
		names, _ := cmd.Flags().GetStringArray("deep-dive")
		all, _ := cmd.Flags().GetBool("deep-dive-all")

		ds, err := ingest.LoadFile(args[0])
		if err != nil {
			return err
		}
		if kind := ingest.Sniff(ds); kind != model.KindRawReviews {
			return eris.Errorf("%s is not a review export (detected %s); try pulse summarize", args[0], kind)
		}

		rules, err := loadRules()
		if err != nil {
			return err
		}
		grouping := rules.Grouper().Group(ds, locations.ResolveKey(groupBy))
		stats := locations.View(rules.Aggregator().StatsAll(grouping.Groups), filter, locations.SortKey(sortKey))

		targets, err := deepDiveTargets(stats, names, all, format)
		if err != nil {
			return err
		}

		var results deepdive.Results
		if len(targets) > 0 {
			env, err := initEnv(ctx, "insights")
			if err != nil {
				return err
			}
			defer env.Close()

			runner := deepdive.NewRunner(env.Analyzer, deepDiveOptions(groupBy, env.Store))
			results = runner.Run(ctx, grouping.DeepDiveInputs(targets...)).Prune(grouping.Names())
		}

		zap.L().Debug("locations: rolled up",
			zap.Int("groups", len(stats)),
			zap.Int("dropped", grouping.Dropped),
		)
		return writeLocations(os.Stdout, format, stats, results)
	},
}

// deepDiveTargets picks the groups to deep dive among the listed stats, so
// every analysis that runs is also printed. Named groups outside the listing
// are rejected rather than analyzed and hidden.
func deepDiveTargets(listed []locations.LocationStats, names []string, all bool, format string) ([]string, error) {
	if !all && len(names) == 0 {
		return nil, nil
	}
	if format == "csv" {
		return nil, eris.New("deep dives are not included in csv output; use --format table or json")
	}

	visible := make([]string, len(listed))
	for i, s := range listed {
		visible[i] = s.Name
	}
	if all {
		return visible, nil
	}
	for _, name := range names {
		if !slices.Contains(visible, name) {
			return nil, eris.Errorf("deep-dive group %q is not listed (check --group-by and --filter)", name)
		}
	}
	return names, nil
}

func writeLocations(w io.Writer, format string, stats []locations.LocationStats, results deepdive.Results) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if results != nil {
			return enc.Encode(results.Merge(stats))
		}
		return enc.Encode(stats)
	case "csv":
		return locations.WriteStatsCSV(w, stats)
	case "table", "":
		formatStatsTable(w, stats)
		if results != nil {
			formatDeepDives(w, results.Merge(stats))
		}
		return nil
	default:
		return eris.Errorf("unknown format %q (table, json, csv)", format)
	}
}

func formatStatsTable(w io.Writer, stats []locations.LocationStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tAVG\tROWS\tRATED\tNEG%\tPOS%\tSCORE\tHEALTH\tTOP SOURCE") //nolint:errcheck
	for _, s := range stats {
		avg := "-"
		if s.Avg != nil {
			avg = strconv.FormatFloat(*s.Avg, 'f', 1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n", //nolint:errcheck
			s.Name, avg, s.Total, s.RatedCount, s.PctNegative, s.PctPositive, s.HealthScore, s.Health, s.TopSource)
	}
	_ = tw.Flush()
}

func formatDeepDives(w io.Writer, groups []deepdive.GroupResult) {
	for _, g := range groups {
		if g.DeepDive == nil {
			continue
		}
		fmt.Fprintf(w, "\n== %s (%d reviews)\n", g.Name, g.DeepDive.ReviewCount) //nolint:errcheck
		if !g.DeepDive.OK() {
			fmt.Fprintf(w, "error: %s\n", g.DeepDive.Err) //nolint:errcheck
			continue
		}
		a := g.DeepDive.Analysis
		fmt.Fprintf(w, "sentiment: %s\n", a.OverallSentiment) //nolint:errcheck
		if a.Summary != "" {
			fmt.Fprintf(w, "summary:   %s\n", a.Summary) //nolint:errcheck
		}
		if len(a.PainPoints) > 0 {
			fmt.Fprintf(w, "pains:     %v\n", []string(a.PainPoints)) //nolint:errcheck
		}
		if len(a.PraisePoints) > 0 {
			fmt.Fprintf(w, "praise:    %v\n", []string(a.PraisePoints)) //nolint:errcheck
		}
	}
}

func init() {
	locationsCmd.Flags().String("group-by", locations.PresetLocation, "preset (region, division, state, city, location) or column name")
	locationsCmd.Flags().String("sort", "", "avg_asc, avg_desc, volume or negative (default file order)")
	locationsCmd.Flags().String("filter", "", "keep groups whose name, region or state contains this text")
	locationsCmd.Flags().String("format", "table", "output format: table, json or csv")
	locationsCmd.Flags().StringArray("deep-dive", nil, "group name to analyze with Claude (repeatable)")
	locationsCmd.Flags().Bool("deep-dive-all", false, "analyze every group with Claude")
	rootCmd.AddCommand(locationsCmd)
}
