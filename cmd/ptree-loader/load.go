package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/ptree-loader/internal/format"
	"github.com/omarluq/ptree-loader/internal/loader"
	"github.com/omarluq/ptree-loader/internal/ptree"
)

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]

	// Unrecognized extensions are not an error: print nothing and exit 0.
	f, ok := format.FromExtension(path).Get()
	if !ok {
		return nil
	}

	loadAndPrint(cmd, path, f)

	if !watchFiles {
		return nil
	}
	return watchAndReload(cmd, path, f)
}

// loadAndPrint runs one full load into a fresh tree and prints the
// diagnostics followed by the merged tree.
func loadAndPrint(cmd *cobra.Command, path string, f format.Format) {
	ld := loader.New(ptree.New(), f)
	ld.Load(path)
	cmd.Print(ld.DumpDiag())
	cmd.Print(ld.DumpTree())
}

func watchAndReload(cmd *cobra.Command, path string, f format.Format) error {
	setupLogging()

	w, err := loader.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close watcher")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("path", w.Path()).Msg("watching for changes")
	return w.Watch(ctx, func() {
		loadAndPrint(cmd, path, f)
	})
}

// setupLogging configures the global zerolog logger for watch mode. Logs go
// to stderr so stdout stays clean for the tree dumps; a console writer is
// used when stderr is a terminal.
func setupLogging() {
	out := io.Writer(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}
