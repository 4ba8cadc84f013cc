package graph

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// CollectorOptions narrows the set of collected files. The zero value walks
// the whole subtree.
type CollectorOptions struct {
	// ExcludeDirs are directory base names that are never descended into.
	ExcludeDirs []string

	// ExcludeGlobs are patterns matched against the slash-separated path
	// relative to the root and against the base name.
	ExcludeGlobs []string

	// RespectGitignore applies the root's .gitignore, if present.
	RespectGitignore bool
}

// Collector walks a directory tree and returns the source files in it.
// Symbolic links are never followed, so the walk cannot cycle.
type Collector struct {
	opts    CollectorOptions
	exclude []glob.Glob
	logger  *slog.Logger
}

// NewCollector compiles opts into a Collector. A nil logger uses slog.Default.
func NewCollector(opts CollectorOptions, logger *slog.Logger) (*Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	matchers := make([]glob.Glob, 0, len(opts.ExcludeGlobs))
	for _, p := range opts.ExcludeGlobs {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude glob %q: %w", p, err)
		}
		matchers = append(matchers, g)
	}
	return &Collector{opts: opts, exclude: matchers, logger: logger}, nil
}

// Collect returns the source files under root with default options.
func Collect(root string) []string {
	c, _ := NewCollector(CollectorOptions{}, nil)
	return c.Collect(root)
}

// Collect returns every file under root ending in SourceExt, in walk order.
// A missing or unreadable root yields an empty slice.
func (c *Collector) Collect(root string) []string {
	files := []string{}

	info, err := os.Stat(root)
	if err != nil {
		c.logger.Error("cannot access root", slog.String("root", root), slog.Any("error", err))
		return files
	}
	if !info.IsDir() {
		c.logger.Error("root is not a directory", slog.String("root", root))
		return files
	}

	excludeDirs := make(map[string]bool, len(c.opts.ExcludeDirs))
	for _, d := range c.opts.ExcludeDirs {
		excludeDirs[d] = true
	}
	gi := c.loadGitignore(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if excludeDirs[d.Name()] || c.excluded(rel, d.Name()) || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), SourceExt) {
			return nil
		}
		if c.excluded(rel, d.Name()) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		c.logger.Error("walk failed", slog.String("root", root), slog.Any("error", walkErr))
	}
	return files
}

func (c *Collector) excluded(rel, name string) bool {
	for _, m := range c.exclude {
		if m.Match(rel) || m.Match(name) {
			return true
		}
	}
	return false
}

func (c *Collector) loadGitignore(root string) *ignore.GitIgnore {
	if !c.opts.RespectGitignore {
		return nil
	}
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		c.logger.Warn("ignoring unreadable .gitignore", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	return gi
}
