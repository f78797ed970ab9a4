package database

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		cmd := &cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List catalog databases and their local status",
			Args:    cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				m, cleanup, err := newManager(c.Context())
				if err != nil {
					return err
				}
				defer cleanup()

				statuses, err := m.List()
				if err != nil {
					return err
				}
				out := c.OutOrStdout()
				fmt.Fprintln(out, "Available databases:")
				last := ""
				for _, st := range statuses {
					if st.Database != last {
						fmt.Fprintf(out, "\n%s:\n", st.Database)
						last = st.Database
					}
					state := "not downloaded"
					if st.Downloaded {
						state = "downloaded"
						if st.DateToken != "" {
							state = fmt.Sprintf("downloaded (%s, %s)", st.DateToken, humanize.Bytes(uint64(st.DataSize)))
						}
					}
					fmt.Fprintf(out, "  %s: %s\n", st.Version, state)
					fmt.Fprintf(out, "    data:     %s\n", st.Data)
					fmt.Fprintf(out, "    index:    %s\n", st.Index)
					fmt.Fprintf(out, "    manifest: %s\n", st.Manifest)
				}
				return nil
			},
		}
		parent.AddCommand(cmd)
	})
}
