package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
	Save     bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-extract lineage when SQL files change",
		Long: `Extract the lineage of a directory, then watch it and extract again whenever
a file matching the configured glob is written or created. Bursts of changes
are collapsed into one extraction after the debounce interval.`,
		Example: `  # Watch the models directory and save every extraction
  sqllineage watch models/ --save

  # Wait a full second after the last change
  sqllineage watch models/ --debounce 1s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 0, "Delay after the last change before extracting (default from config)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Persist every extraction to the state database")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	cc := NewCommandContext(cmd)

	dir := cc.defaultPaths(args)[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	debounce := cc.Cfg.Watch.Debounce
	if cmd.Flags().Changed("debounce") {
		debounce = opts.Debounce
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{cc: cc, dir: dir, save: opts.Save}
	w.extract(ctx)

	cc.Renderer.Muted(fmt.Sprintf("watching %s for %s changes (ctrl-c to stop)", dir, cc.Cfg.Glob))
	return w.watch(ctx, debounce)
}

// watcher re-extracts a directory on change.
type watcher struct {
	cc   *CommandContext
	dir  string
	save bool

	mu sync.Mutex
}

// extract resolves the directory with a fresh extractor, so a file that
// is deleted or rewritten no longer contributes stale tables.
func (w *watcher) extract(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ext, err := w.cc.NewExtractor()
	if err != nil {
		w.cc.Logger.Error("extract failed", "error", err)
		return
	}
	result, err := ext.ExtractFiles(ctx, w.dir, w.cc.Cfg.Glob)
	if err != nil {
		w.cc.Logger.Error("extract failed", "dir", w.dir, "error", err)
		w.cc.Renderer.Warning(err.Error())
		return
	}

	id := time.Now().Format(time.TimeOnly)
	if w.save {
		store, cleanup, err := w.cc.OpenStore()
		if err != nil {
			w.cc.Logger.Error("open state failed", "error", err)
			return
		}
		defer cleanup()
		run, err := store.SaveResult(ctx, w.dir, result)
		if err != nil {
			w.cc.Logger.Error("save failed", "error", err)
			return
		}
		id = run.ID
	}
	w.cc.Renderer.Success("extracted " + describeRun(id, result))
}

func (w *watcher) watch(ctx context.Context, debounce time.Duration) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := watchDirRecursive(fw, w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(fw, event.Name); err != nil {
						w.cc.Logger.Warn("failed to watch directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !shouldReload(event, w.cc.Cfg.Glob) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			name := event.Name
			timer = time.AfterFunc(debounce, func() {
				w.cc.Logger.Debug("file changed, re-extracting", "file", name)
				w.extract(ctx)
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.cc.Logger.Error("watcher error", "error", err)
		}
	}
}

// shouldReload reports whether event changes a file matching glob.
func shouldReload(event fsnotify.Event, glob string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ok, err := filepath.Match(glob, base)
	return err == nil && ok
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
// Hidden directories are skipped.
func watchDirRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
