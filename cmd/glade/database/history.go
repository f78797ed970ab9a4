package database

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"glade/pkg/history"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		var (
			limit  int
			asJSON bool
		)
		cmd := &cobra.Command{
			Use:   "history",
			Short: "Show recent download runs",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if !cfg.HistoryEnabled() {
					return fmt.Errorf("history is disabled in settings")
				}
				store, err := history.Open(cfg.HistoryPath())
				if err != nil {
					return err
				}
				defer store.Close()

				events, err := store.Recent(c.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(c.OutOrStdout()).Encode(events)
				}
				if len(events) == 0 {
					fmt.Fprintln(c.OutOrStdout(), "no runs recorded")
					return nil
				}
				w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WHEN\tDATABASE\tDATE\tOUTCOME\tSIZE\tTOOK")
				for _, e := range events {
					outcome := string(e.Outcome)
					if e.Error != "" {
						outcome += ": " + e.Error
					}
					fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\t%s\t%s\n",
						humanize.Time(e.StartedAt), e.Database, e.Version, e.DateToken,
						outcome, humanize.Bytes(uint64(e.Bytes)), e.Duration.Round(time.Millisecond))
				}
				return w.Flush()
			},
		}
		cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
		cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
		parent.AddCommand(cmd)
	})
}
