package index

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher triggers a full index rebuild when files under the corpus roots
// change. Events are debounced so a burst of writes causes one rebuild.
type Watcher struct {
	store    *Store
	roots    []string
	debounce time.Duration
}

// NewWatcher creates a corpus watcher over the given roots.
func NewWatcher(store *Store, roots []string) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, errors.New("watcher needs at least one corpus root")
	}
	return &Watcher{
		store:    store,
		roots:    roots,
		debounce: defaultDebounce,
	}, nil
}

// Watch blocks until ctx is done, rebuilding the index after corpus changes,
// then returns nil. Rebuild failures are logged and the previous snapshot
// keeps serving.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating fsnotify watcher")
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories must be watched before their files change.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, event.Name); err != nil {
						logger.G(ctx).WithError(err).Warn("failed to watch new directory")
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("corpus watcher error")

		case <-fire:
			timer = nil
			fire = nil
			if err := w.store.Rebuild(ctx); err != nil {
				logger.G(ctx).WithError(err).Warn("corpus change rebuild failed")
			}
		}
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %q", path)
		}
		if !d.IsDir() {
			return nil
		}
		return errors.Wrapf(fsw.Add(path), "watching %q", path)
	})
}
