// Package filesystem provides a source adapter that indexes text files
// from a local directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// DefaultPatterns are the glob patterns indexed when none are configured.
const DefaultPatterns = "*.md,*.txt,*.html"

// mimeByExtension maps file extensions to content types.
var mimeByExtension = map[string]string{
	".md":   "text/markdown",
	".txt":  "text/plain",
	".html": "text/html",
	".json": "application/json",
	".csv":  "text/csv",
}

// Adapter indexes files under a configured root directory.
type Adapter struct {
	connectors.Base

	root     string
	patterns []string
}

// New creates a filesystem adapter from source configuration.
// Config keys: "path" (required root directory) and "patterns"
// (comma-separated globs, default DefaultPatterns).
func New(config map[string]string) *Adapter {
	patterns := config["patterns"]
	if patterns == "" {
		patterns = DefaultPatterns
	}
	return &Adapter{
		root:     config["path"],
		patterns: strings.Split(patterns, ","),
	}
}

// Type returns the source type identifier.
func (a *Adapter) Type() string {
	return domain.SourceFilesystem
}

// IsConfigured reports whether a root path is set. Pure configuration
// check; does not touch the filesystem.
func (a *Adapter) IsConfigured() bool {
	return a.root != ""
}

// Initialize verifies the root directory exists and is readable.
func (a *Adapter) Initialize(ctx context.Context) error {
	return a.Init(ctx, func(context.Context) error {
		if !a.IsConfigured() {
			return fmt.Errorf("%w: path is required", domain.ErrNotConfigured)
		}
		info, err := os.Stat(a.root)
		if err != nil {
			return domain.NewError(domain.KindSource, "stat root", err).
				WithContext("path", a.root)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, a.root)
		}
		return nil
	})
}

// ListDocuments walks the root directory and returns one document per
// matching file. The cursor is the last returned relative path;
// listing resumes strictly after it.
func (a *Adapter) ListDocuments(ctx context.Context, opts driven.ListOptions) ([]domain.SourceDocument, error) {
	if a.IsClosed() {
		return nil, domain.ErrAdapterClosed
	}
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	var paths []string
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !a.matches(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, domain.NewError(domain.KindSource, "walk root", err).
			WithContext("path", a.root)
	}
	sort.Strings(paths)

	docs := make([]domain.SourceDocument, 0, len(paths))
	for _, rel := range paths {
		if opts.Cursor != "" && rel <= opts.Cursor {
			continue
		}
		docs = append(docs, domain.SourceDocument{
			ID:         rel,
			Name:       filepath.Base(rel),
			SourcePath: rel,
			MIMEType:   mimeFor(rel),
			Metadata: map[string]any{
				"partition": domain.PartitionDocuments,
				"absolute":  filepath.Join(a.root, filepath.FromSlash(rel)),
			},
		})
		if opts.Limit > 0 && len(docs) >= opts.Limit {
			break
		}
	}
	return docs, nil
}

// Download reads the file contents for a listed document.
func (a *Adapter) Download(_ context.Context, doc *domain.SourceDocument) ([]byte, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(doc.SourcePath)))
	if err != nil {
		return nil, domain.NewError(domain.KindSource, "read file", err).
			WithContext("source_path", doc.SourcePath)
	}
	return data, nil
}

// Close releases resources.
func (a *Adapter) Close() error {
	a.MarkClosed()
	return nil
}

func (a *Adapter) matches(name string) bool {
	for _, pattern := range a.patterns {
		if ok, _ := filepath.Match(strings.TrimSpace(pattern), name); ok {
			return true
		}
	}
	return false
}

func mimeFor(path string) string {
	if mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "text/plain"
}
