package commands

import (
	"io"
	"log/slog"

	"github.com/moasq/bbtool/internal/diag"
	"github.com/moasq/bbtool/internal/storage"
)

// newLogger returns a text logger on w. Debug records are only written in
// verbose mode.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// journalStore opens the restructure journal in the configured state dir.
func journalStore() *storage.JournalStore {
	return storage.NewJournalStore(cfg.StateDir)
}

// newCollector builds the diagnostics collector. Tests swap it for one
// backed by canned tool output.
var newCollector = func(logger *slog.Logger) *diag.Collector {
	return diag.NewCollector(logger)
}

// resolveManifest applies the --project flag over the configured project.
func resolveManifest() (string, error) {
	return cfg.ResolveManifest(projectFlag)
}
