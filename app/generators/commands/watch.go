package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jrazmi/crudsmith/app/generators/loader"
	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
)

// WatchCmd returns the watch command.
func WatchCmd() *cobra.Command {
	var (
		opts     generateOptions
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <schema-file>",
		Short: "Regenerate crud_api.go whenever the schema file changes",
		Long: `Watch generates once, then regenerates every time the schema file is
saved. A load or emit error is logged and the previous crud_api.go stays in
place until the next successful run. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger(cmd)

			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			gen, err := orchestrator.New(cfg, orchestrator.WithLogger(log))
			if err != nil {
				return err
			}

			path := args[0]
			regenerate := func() {
				result, err := gen.Generate(ctx, loader.File(path))
				if err != nil {
					log.ErrorContextf(ctx, "regenerate from %s: %v", path, err)
					return
				}
				orchestrator.PrintSummary(cmd.OutOrStdout(), result)
			}

			w, err := newFileWatcher(path)
			if err != nil {
				return err
			}
			defer w.Close()

			regenerate()
			log.InfoContext(ctx, "watching", "path", path)
			return w.Run(ctx, debounce, regenerate)
		},
	}

	opts.bind(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "quiet period before a burst of saves triggers one run")

	return cmd
}

// fileWatcher reports changes to a single file. It watches the parent
// directory because editors often replace a file instead of writing it.
type fileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &fileWatcher{path: abs, watcher: w}, nil
}

// Run calls onChange once per burst of writes to the file, until ctx is done.
func (fw *fileWatcher) Run(ctx context.Context, debounce time.Duration, onChange func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != fw.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", fw.path, err)
		}
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
