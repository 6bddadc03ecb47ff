package index

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/logger"
)

// Store holds the current index snapshot behind an atomic pointer. Readers
// always observe a complete index; Rebuild swaps in a fresh snapshot only
// after the build fully succeeds.
type Store struct {
	source  corpus.Source
	current atomic.Pointer[Index]
}

// NewStore builds the initial index and returns a store serving it.
func NewStore(ctx context.Context, source corpus.Source) (*Store, error) {
	s := &Store{source: source}
	if err := s.Rebuild(ctx); err != nil {
		return nil, errors.Wrap(err, "initial index build")
	}
	return s, nil
}

// Current returns the current snapshot. The returned index is immutable.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Rebuild constructs a fresh index and atomically swaps it in. On failure the
// previous snapshot keeps serving; the failure is logged and returned so the
// triggering process never mistakes a stale index for a fresh one.
func (s *Store) Rebuild(ctx context.Context) error {
	idx, err := Build(ctx, s.source)
	if err != nil {
		if s.current.Load() != nil {
			logger.G(ctx).WithError(err).Warn("index rebuild failed, keeping previous snapshot")
		}
		return err
	}

	s.current.Store(idx)
	logger.G(ctx).WithField("documents", idx.Len()).Info("index snapshot swapped")
	return nil
}
