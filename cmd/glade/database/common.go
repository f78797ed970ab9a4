package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"glade/pkg/catalog"
	"glade/pkg/config"
	"glade/pkg/database"
	"glade/pkg/driver/httpclient"
	_ "glade/pkg/driver/prelude"
	"glade/pkg/fetch"
	"glade/pkg/history"
	"glade/pkg/version"

	"github.com/mattn/go-isatty"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(config.ExpandPath(configPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if b := strings.TrimSpace(baseDir); b != "" {
		cfg.BaseDir = config.ExpandPath(b)
	}
	cfg.ApplyDriverWeights()
	return cfg, nil
}

// progressWriter renders download bars only for interactive sessions.
func progressWriter() io.Writer {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return nil
}

// newManager wires the pipeline from settings. The returned cleanup closes
// the history store, if one was opened.
func newManager(ctx context.Context) (*database.Manager, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, nil, err
	}
	hc, err := httpclient.Client(ctx, cfg.RequestTimeout())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get http client: %w", err)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	fetcher := fetch.New(hc, fetch.WithUserAgent(ua), fetch.WithProgress(progressWriter()))

	cleanup := func() {}
	var opts []database.Option
	if cfg.HistoryEnabled() {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			slog.Warn("history disabled", "error", err)
		} else {
			opts = append(opts, database.WithRecorder(store))
			cleanup = func() {
				if err := store.Close(); err != nil {
					slog.Debug("failed to close history", "error", err)
				}
			}
		}
	}

	m, err := database.New(cfg.BaseDir, cat, fetcher, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return m, cleanup, nil
}

func printResult(w io.Writer, res *database.Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Database: %s/%s\n", res.Database, res.Version)
	fmt.Fprintf(w, "Location: %s\n", res.Root)
	fmt.Fprintf(w, "Date:     %s\n", res.DateToken)
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %-10s %s\n", f.Action, f.Name)
	}
	fmt.Fprintln(w, rule)
}
