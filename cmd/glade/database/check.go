package database

import (
	"fmt"

	"glade/pkg/database"

	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		var name, version string
		cmd := &cobra.Command{
			Use:   "check",
			Short: "Re-verify a downloaded database against its stored manifest",
			Long: `Hash the current data file of a downloaded database and compare it with
the checksum recorded in the manifest stored next to it. Nothing is
downloaded or modified.`,
			Args: cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				m, cleanup, err := newManager(c.Context())
				if err != nil {
					return err
				}
				defer cleanup()

				res, err := m.Check(c.Context(), name, version)
				if err != nil {
					return err
				}
				out := c.OutOrStdout()
				fmt.Fprintf(out, "%s/%s (%s)\n", res.Database, res.Version, res.DateToken)
				fmt.Fprintf(out, "  file:     %s\n", res.Path)
				fmt.Fprintf(out, "  expected: %s\n", res.Expected)
				fmt.Fprintf(out, "  actual:   %s\n", res.Actual)
				if !res.Valid {
					return fmt.Errorf("%w: %s does not match its manifest", database.ErrIntegrity, res.Path)
				}
				fmt.Fprintln(out, "  ok")
				return nil
			},
		}
		cmd.Flags().StringVarP(&name, "database", "d", "", "Database name")
		cmd.Flags().StringVarP(&version, "genome-version", "g", "", "Genome version")
		_ = cmd.MarkFlagRequired("database")
		_ = cmd.MarkFlagRequired("genome-version")
		parent.AddCommand(cmd)
	})
}
