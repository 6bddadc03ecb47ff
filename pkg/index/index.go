// Package index builds and serves the in-memory catalog of skill documents.
// An Index is immutable once built and safe to share across concurrent
// route() calls; rebuilds produce a fresh Index that the Store swaps in
// atomically.
package index

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// ErrNotFound is returned by Get for ids absent from the index.
var ErrNotFound = errors.New("skill not found")

// BuildError is the all-or-nothing index build failure. It aggregates every
// offending document so one rebuild surfaces all problems at once.
type BuildError struct {
	errs *multierror.Error
}

func (e *BuildError) Error() string {
	return errors.Wrap(e.errs, "index build failed").Error()
}

// Unwrap exposes the aggregated per-document errors.
func (e *BuildError) Unwrap() error {
	return e.errs
}

// Failures returns the individual per-document errors.
func (e *BuildError) Failures() []error {
	return e.errs.WrappedErrors()
}

// Index is the immutable catalog of skill documents.
type Index struct {
	docs  map[string]*routing.SkillDocument
	order []string
	src   corpus.Source
}

// Build scans the corpus source and constructs a complete index. Any document
// that yields no derivable identity, carries an unknown domain tag, or
// collides on id fails the whole build; a partially-usable index is never
// returned.
func Build(ctx context.Context, source corpus.Source) (*Index, error) {
	raw, err := source.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing corpus")
	}

	idx := &Index{
		docs: make(map[string]*routing.SkillDocument, len(raw)),
		src:  source,
	}

	var merr *multierror.Error
	for _, doc := range raw {
		skill, err := normalizeDocument(doc)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "document %q", doc.Path))
			continue
		}

		if _, exists := idx.docs[skill.ID]; exists {
			merr = multierror.Append(merr, errors.Errorf("document %q: duplicate skill id %q", doc.Path, skill.ID))
			continue
		}

		idx.docs[skill.ID] = skill
		idx.order = append(idx.order, skill.ID)
	}

	if merr != nil {
		logger.G(ctx).WithField("failures", merr.Len()).Error("index build failed")
		return nil, &BuildError{errs: merr}
	}

	logger.G(ctx).WithField("documents", len(idx.order)).Debug("index built")
	return idx, nil
}

// Get returns the document with the given id, or an error wrapping
// ErrNotFound.
func (i *Index) Get(id string) (*routing.SkillDocument, error) {
	doc, ok := i.docs[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "skill %q", id)
	}
	return doc, nil
}

// Has reports whether the id exists in the index.
func (i *Index) Has(id string) bool {
	_, ok := i.docs[id]
	return ok
}

// All returns every document in stable insertion order.
func (i *Index) All() []*routing.SkillDocument {
	out := make([]*routing.SkillDocument, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.docs[id])
	}
	return out
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	return len(i.order)
}

// Domains returns the distinct domains present in the index, sorted.
func (i *Index) Domains() []routing.Domain {
	seen := map[routing.Domain]bool{}
	var out []routing.Domain
	for _, id := range i.order {
		d := i.docs[id].Domain
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// ReadContent resolves a document's content ref through the corpus source.
// The caller bounds retrieval time via ctx.
func (i *Index) ReadContent(ctx context.Context, ref string) (string, error) {
	return i.src.ReadContent(ctx, ref)
}
