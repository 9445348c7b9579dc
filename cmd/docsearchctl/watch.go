package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchSettle is how long a file must stay unmodified before it is ingested.
var watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest files as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchDir(ctx, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchDir ingests every file created or rewritten in dir until ctx ends.
// A burst of writes to one file results in a single ingest once the file
// has been quiet for watchSettle.
func watchDir(ctx context.Context, dir string, out, errOut io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(errOut, "watching %s\n", dir)

	ticker := time.NewTicker(watchSettle / 2)
	defer ticker.Stop()

	lastEvent := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				lastEvent[ev.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				fmt.Fprintln(errOut, "watcher overflow, some files may be missed")
				continue
			}
			return fmt.Errorf("watcher: %w", err)

		case now := <-ticker.C:
			for path, seen := range lastEvent {
				if now.Sub(seen) < watchSettle {
					continue
				}
				delete(lastEvent, path)
				ingestWatched(ctx, path, out, errOut)
			}
		}
	}
}

func ingestWatched(ctx context.Context, path string, out, errOut io.Writer) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", path, err)
		return
	}
	id, err := ingestService.Ingest(ctx, filepath.Base(path), data)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", path, err)
		return
	}
	fmt.Fprintf(out, "%s\t%s\n", id, path)
}
