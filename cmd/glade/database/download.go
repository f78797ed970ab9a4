package database

import (
	"errors"
	"fmt"

	"glade/pkg/catalog"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		var (
			name    string
			version string
			all     bool
			pick    bool
		)
		cmd := &cobra.Command{
			Use:   "download",
			Short: "Download and verify a reference database",
			Long: `Download a reference database into <base-dir>/<database>/<genome-version>.

Files are stored under a dated directory taken from the release manifest and
exposed through symlinks at the version root. Files already present are
re-verified against the manifest checksum and re-downloaded on mismatch.`,
			Example: `  glade database download --database clinvar --genome-version GRCh38
  glade database download --all
  glade database download --pick`,
			Args: cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				if err := validateSelection(name, version, all, pick); err != nil {
					return err
				}
				ctx := c.Context()
				m, cleanup, err := newManager(ctx)
				if err != nil {
					return err
				}
				defer cleanup()

				out := c.OutOrStdout()
				if all {
					results, err := m.RealizeAll(ctx)
					for _, res := range results {
						printResult(out, res)
					}
					return err
				}

				if pick {
					entry, err := pickEntry(m.Catalog().Entries())
					if errors.Is(err, fuzzyfinder.ErrAbort) {
						return nil
					}
					if err != nil {
						return err
					}
					name, version = entry.Database, entry.Version
				}

				res, err := m.Realize(ctx, name, version)
				if err != nil {
					return err
				}
				printResult(out, res)
				return nil
			},
		}
		cmd.Flags().StringVarP(&name, "database", "d", "", "Database name (e.g. clinvar)")
		cmd.Flags().StringVarP(&version, "genome-version", "g", "", "Genome version (e.g. GRCh38)")
		cmd.Flags().BoolVar(&all, "all", false, "Download every database in the catalog")
		cmd.Flags().BoolVar(&pick, "pick", false, "Choose the database interactively")
		parent.AddCommand(cmd)
	})
}

func validateSelection(name, version string, all, pick bool) error {
	explicit := name != "" || version != ""
	modes := 0
	for _, on := range []bool{explicit, all, pick} {
		if on {
			modes++
		}
	}
	switch {
	case modes == 0:
		return fmt.Errorf("specify --database and --genome-version, --all, or --pick")
	case modes > 1:
		return fmt.Errorf("--database/--genome-version, --all and --pick are mutually exclusive")
	case explicit && (name == "" || version == ""):
		return fmt.Errorf("--database and --genome-version must be given together")
	}
	return nil
}

func pickEntry(entries []catalog.Entry) (catalog.Entry, error) {
	if len(entries) == 0 {
		return catalog.Entry{}, fmt.Errorf("catalog is empty")
	}
	idx, err := fuzzyfinder.Find(entries, func(i int) string {
		return entries[i].Database + " " + entries[i].Version
	},
		fuzzyfinder.WithPromptString("database> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			e := entries[i]
			return fmt.Sprintf("%s %s\n\ndata:     %s\nindex:    %s\nmanifest: %s",
				e.Database, e.Version, e.Data, e.Index, e.Manifest)
		}),
	)
	if err != nil {
		return catalog.Entry{}, err
	}
	return entries[idx], nil
}
