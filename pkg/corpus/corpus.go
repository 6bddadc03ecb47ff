// Package corpus abstracts the document store the index is built from. The
// index only needs to list documents once at build time and read individual
// document bodies on demand during context assembly.
package corpus

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Document is one raw corpus entry as listed by a Source.
type Document struct {
	// Ref is the opaque content handle later passed to ReadContent.
	Ref string
	// Path is the source-relative path, used to infer domain and category
	// when a document carries no frontmatter.
	Path string
	// Raw is the full document text including frontmatter.
	Raw string
}

// Source lists corpus documents and serves their content on demand.
// Implementations must be safe for concurrent ReadContent calls.
type Source interface {
	List(ctx context.Context) ([]Document, error)
	ReadContent(ctx context.Context, ref string) (string, error)
}

const defaultIncludePattern = "**/*.md"

// FSSource reads a corpus from one or more directory trees.
type FSSource struct {
	roots        []string
	includes     []string
	readAttempts uint
}

// FSOption configures an FSSource.
type FSOption func(*FSSource) error

// WithRoots sets the corpus root directories.
func WithRoots(roots ...string) FSOption {
	return func(s *FSSource) error {
		if len(roots) == 0 {
			return errors.New("at least one corpus root must be specified")
		}
		s.roots = roots
		return nil
	}
}

// WithIncludes sets the glob patterns selecting corpus files within each root.
func WithIncludes(patterns ...string) FSOption {
	return func(s *FSSource) error {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.Errorf("invalid include pattern %q", p)
			}
		}
		s.includes = patterns
		return nil
	}
}

// WithReadAttempts sets how many times a content read is attempted before the
// document is reported unavailable.
func WithReadAttempts(attempts uint) FSOption {
	return func(s *FSSource) error {
		if attempts == 0 {
			return errors.New("read attempts must be at least 1")
		}
		s.readAttempts = attempts
		return nil
	}
}

// NewFSSource creates a filesystem corpus source.
func NewFSSource(opts ...FSOption) (*FSSource, error) {
	s := &FSSource{
		includes:     []string{defaultIncludePattern},
		readAttempts: 2,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if len(s.roots) == 0 {
		return nil, errors.New("corpus source has no roots configured")
	}
	return s, nil
}

// List walks every root and returns the matching documents in stable path
// order. A missing root is an error: an index built from a mistyped path
// should fail loudly, not come up empty.
func (s *FSSource) List(ctx context.Context) ([]Document, error) {
	var docs []Document

	for _, root := range s.roots {
		if _, err := os.Stat(root); err != nil {
			return nil, errors.Wrapf(err, "corpus root %q not readable", root)
		}

		seen := map[string]bool{}
		var paths []string
		for _, pattern := range s.includes {
			matches, err := doublestar.Glob(os.DirFS(root), pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "globbing %q under %q", pattern, root)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					paths = append(paths, m)
				}
			}
		}
		sort.Strings(paths)

		for _, rel := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			full := filepath.Join(root, rel)
			info, err := os.Stat(full)
			if err != nil {
				return nil, errors.Wrapf(err, "stating corpus file %q", full)
			}
			if info.IsDir() {
				continue
			}

			raw, err := os.ReadFile(full)
			if err != nil {
				return nil, errors.Wrapf(err, "reading corpus file %q", full)
			}

			docs = append(docs, Document{
				Ref:  full,
				Path: filepath.ToSlash(rel),
				Raw:  string(raw),
			})
		}
	}

	return docs, nil
}

// ReadContent reads a document body by its ref, retrying transient failures.
// The caller bounds the total time via ctx; retries stop once ctx is done.
func (s *FSSource) ReadContent(ctx context.Context, ref string) (string, error) {
	var content string
	err := retry.Do(
		func() error {
			raw, err := os.ReadFile(ref)
			if err != nil {
				return err
			}
			content = string(raw)
			return nil
		},
		retry.Attempts(s.readAttempts),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			// A deleted document will not reappear between attempts.
			return !errors.Is(err, fs.ErrNotExist)
		}),
	)
	if err != nil {
		return "", errors.Wrapf(err, "reading content for %q", ref)
	}
	return content, nil
}

// StaticSource serves a fixed in-memory document set. It backs tests and
// embedded corpora.
type StaticSource struct {
	docs map[string]Document
	// order preserves insertion order for List.
	order []string
}

// NewStaticSource creates a StaticSource from the given documents. Refs
// default to the document path when unset.
func NewStaticSource(docs ...Document) *StaticSource {
	s := &StaticSource{docs: make(map[string]Document, len(docs))}
	for _, d := range docs {
		if d.Ref == "" {
			d.Ref = d.Path
		}
		if _, exists := s.docs[d.Ref]; !exists {
			s.order = append(s.order, d.Ref)
		}
		s.docs[d.Ref] = d
	}
	return s
}

// List returns the documents in insertion order.
func (s *StaticSource) List(_ context.Context) ([]Document, error) {
	out := make([]Document, 0, len(s.order))
	for _, ref := range s.order {
		out = append(out, s.docs[ref])
	}
	return out, nil
}

// ReadContent returns the stored raw text for ref.
func (s *StaticSource) ReadContent(_ context.Context, ref string) (string, error) {
	d, ok := s.docs[ref]
	if !ok {
		return "", errors.Errorf("no content for ref %q", ref)
	}
	return d.Raw, nil
}
