// Package loader discovers SQL files on disk and reads them concurrently.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultGlob matches the files Discover picks up when no glob is given.
const DefaultGlob = "*.sql"

// DefaultConcurrency bounds concurrent reads when ReadAll is given no limit.
const DefaultConcurrency = 8

// File is the content of one discovered file.
type File struct {
	Path    string
	Content string
}

// Discover walks dir recursively and returns the files whose base name
// matches glob, sorted by path. Hidden files and directories are skipped.
func Discover(dir, glob string) ([]string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", glob, err)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden entries, but never the root itself
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if ok, _ := filepath.Match(glob, d.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ReadAll reads every path with at most limit reads in flight. The result
// follows the order of paths regardless of completion order. The first
// read error cancels the remaining reads.
func ReadAll(ctx context.Context, paths []string, limit int) ([]File, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	files := make([]File, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, path := range paths {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path) //nolint:gosec // G304: paths come from Discover or the command line
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			files[i] = File{Path: path, Content: string(content)}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
