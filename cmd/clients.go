package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/model"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage tracked clients and their competitors",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		clients, err := st.ListClients(ctx)
		if err != nil {
			return eris.Wrap(err, "list clients")
		}
		if len(clients) == 0 {
			fmt.Println("No clients.")
			return nil
		}
		formatClientsList(os.Stdout, clients)
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a client",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("name")
		location, _ := cmd.Flags().GetString("location")
		industry, _ := cmd.Flags().GetString("industry")
		notes, _ := cmd.Flags().GetString("notes")
		if strings.TrimSpace(name) == "" {
			return eris.New("clients add: --name is required")
		}

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c := &model.Client{Name: strings.TrimSpace(name), Location: location, Industry: industry, Notes: notes}
		if err := st.CreateClient(ctx, c); err != nil {
			return eris.Wrap(err, "create client")
		}
		zap.L().Info("client created", zap.String("id", c.ID), zap.String("name", c.Name))
		fmt.Println(c.ID)
		return nil
	},
}

var competitorsCmd = &cobra.Command{
	Use:   "competitors <client-id>",
	Short: "List a client's competitors, or add one with --name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		location, _ := cmd.Flags().GetString("location")
		notes, _ := cmd.Flags().GetString("notes")

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client, err := st.GetClient(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "client %s", args[0])
		}

		if strings.TrimSpace(name) != "" {
			comp := &model.Competitor{ClientID: client.ID, Name: strings.TrimSpace(name), Location: location, Notes: notes}
			if err := st.CreateCompetitor(ctx, comp); err != nil {
				return eris.Wrap(err, "create competitor")
			}
			zap.L().Info("competitor created", zap.String("id", comp.ID), zap.String("client_id", client.ID))
			fmt.Println(comp.ID)
			return nil
		}

		comps, err := st.ListCompetitors(ctx, client.ID)
		if err != nil {
			return eris.Wrap(err, "list competitors")
		}
		if len(comps) == 0 {
			fmt.Printf("No competitors for %s.\n", client.Name)
			return nil
		}
		formatCompetitorsList(os.Stdout, comps)
		return nil
	},
}

func formatClientsList(w io.Writer, clients []model.Client) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tINDUSTRY\tCREATED") //nolint:errcheck
	for _, c := range clients {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck
			c.ID, c.Name, c.Location, c.Industry, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func formatCompetitorsList(w io.Writer, comps []model.Competitor) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tCREATED") //nolint:errcheck
	for _, c := range comps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", //nolint:errcheck
			c.ID, c.Name, c.Location, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func init() {
	clientsAddCmd.Flags().String("name", "", "client name (required)")
	clientsAddCmd.Flags().String("location", "", "client location")
	clientsAddCmd.Flags().String("industry", "", "client industry")
	clientsAddCmd.Flags().String("notes", "", "free-form notes")

	competitorsCmd.Flags().String("name", "", "add a competitor with this name")
	competitorsCmd.Flags().String("location", "", "competitor location")
	competitorsCmd.Flags().String("notes", "", "free-form notes")

	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd, competitorsCmd)
	rootCmd.AddCommand(clientsCmd)
}
