// Package assembler turns a resolved skill selection into a bounded context
// bundle. Content retrieval is the only I/O of the routing pipeline; every
// read is bounded by a per-document timeout and a failed read degrades that
// one entry instead of the whole request.
package assembler

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

const (
	// DefaultBudgetChars is the default context bundle size limit.
	DefaultBudgetChars = 24000
	// DefaultFetchTimeout bounds a single document content read.
	DefaultFetchTimeout = 2 * time.Second
	// minExcerptChars is the smallest useful excerpt; documents after the
	// first are skipped rather than squeezed below it.
	minExcerptChars = 256
)

// ContentUnavailableError reports that one selected document's content could
// not be retrieved. It never aborts assembly.
type ContentUnavailableError struct {
	SkillID string
	Cause   error
}

func (e *ContentUnavailableError) Error() string {
	return errors.Wrapf(e.Cause, "content unavailable for skill %q", e.SkillID).Error()
}

func (e *ContentUnavailableError) Unwrap() error {
	return e.Cause
}

// Assembler builds context bundles.
type Assembler struct {
	budgetChars  int
	fetchTimeout time.Duration
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithBudgetChars overrides the bundle size limit.
func WithBudgetChars(budget int) Option {
	return func(a *Assembler) error {
		if budget < 1 {
			return errors.Errorf("budget must be positive, got %d", budget)
		}
		a.budgetChars = budget
		return nil
	}
}

// WithFetchTimeout overrides the per-document retrieval timeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(a *Assembler) error {
		if timeout <= 0 {
			return errors.Errorf("fetch timeout must be positive, got %v", timeout)
		}
		a.fetchTimeout = timeout
		return nil
	}
}

// New creates an Assembler.
func New(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		budgetChars:  DefaultBudgetChars,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// BudgetChars returns the configured bundle size limit.
func (a *Assembler) BudgetChars() int {
	return a.budgetChars
}

// Assemble retrieves content for each selected skill in order and packs it
// into the budget. The first selected document is always present, truncated
// if it alone exceeds the budget. Retrieval failures yield an entry flagged
// unavailable with empty text; the gap is recorded, never silently dropped.
func (a *Assembler) Assemble(ctx context.Context, selected []string, idx *index.Index) []routing.ContextEntry {
	if len(selected) == 0 {
		return nil
	}

	entries := make([]routing.ContextEntry, 0, len(selected))
	remaining := a.budgetChars

	for i, id := range selected {
		content, err := a.fetch(ctx, id, idx)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", id).Warn("skill content unavailable")
			entries = append(entries, routing.ContextEntry{
				SkillID:     id,
				Partial:     true,
				Unavailable: true,
			})
			continue
		}

		if i > 0 && remaining < minExcerptChars {
			logger.G(ctx).WithField("skill", id).Debug("context budget exhausted, dropping remaining documents")
			break
		}

		text := content
		partial := false
		if len(content) > remaining {
			text = truncateAtBoundary(content, remaining)
			partial = true
		}
		if i > 0 && text == "" {
			break
		}

		entries = append(entries, routing.ContextEntry{
			SkillID: id,
			Text:    text,
			Partial: partial,
		})
		remaining -= len(text)
	}

	return entries
}

func (a *Assembler) fetch(ctx context.Context, id string, idx *index.Index) (string, error) {
	doc, err := idx.Get(id)
	if err != nil {
		return "", &ContentUnavailableError{SkillID: id, Cause: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	content, err := idx.ReadContent(fetchCtx, doc.ContentRef)
	if err != nil {
		return "", &ContentUnavailableError{SkillID: id, Cause: err}
	}
	return content, nil
}

// truncateAtBoundary cuts text to at most limit characters at the nearest
// boundary below the limit: a paragraph break or a sentence end, whichever
// lies closer to the limit, never mid-sentence. A heading left dangling at
// the cut is stripped with its section.
func truncateAtBoundary(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}

	window := text[:limit]

	cut := strings.LastIndex(window, "\n\n")
	if i := strings.LastIndex(window, ". "); i >= 0 && i+1 > cut {
		cut = i + 1
	}
	if cut <= 0 {
		cut = strings.LastIndex(window, "\n")
	}
	if cut <= 0 {
		return window
	}

	return trimDanglingHeading(strings.TrimRight(window[:cut], "\n"))
}

// trimDanglingHeading removes a heading line the cut left without its body.
func trimDanglingHeading(s string) string {
	i := strings.LastIndex(s, "\n")
	if i < 0 {
		// A lone heading is still better than an empty excerpt.
		return s
	}
	if strings.HasPrefix(strings.TrimSpace(s[i+1:]), "#") {
		return strings.TrimRight(s[:i], "\n")
	}
	return s
}
