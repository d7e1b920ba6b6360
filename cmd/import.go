package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an analyses export into the store",
	Long: "Loads an analyses export (csv, tsv or xlsx) and writes its rows to the store. " +
		"Rows with an id are upserted; the rest are inserted as new analyses.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		clientID, _ := cmd.Flags().GetString("client")
		competitorID, _ := cmd.Flags().GetString("competitor")

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		recs, err := loadAnalysesFile(args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return eris.Errorf("import: %s has no rows", args[0])
		}
		for i := range recs {
			if clientID != "" {
				recs[i].ClientID = clientID
			}
			if competitorID != "" {
				recs[i].CompetitorID = competitorID
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.ImportAnalyses(ctx, recs)
		if err != nil {
			return eris.Wrap(err, "import analyses")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.String("file", args[0]),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().String("client", "", "assign every row to this client ID")
	importCmd.Flags().String("competitor", "", "assign every row to this competitor ID")
	rootCmd.AddCommand(importCmd)
}
