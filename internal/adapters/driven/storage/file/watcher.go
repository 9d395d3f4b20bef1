package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ChangeFeed = (*Watcher)(nil)

// Watcher reports artifact changes under a storage root. Atomic writes
// surface as a ChangeWritten for the final name. A change may be reported
// more than once.
type Watcher struct {
	root string
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string) *Watcher {
	return &Watcher{root: root}
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.ArtifactChange, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := w.addInitial(fsw); err != nil {
		fsw.Close()
		return nil, err
	}

	changes := make(chan domain.ArtifactChange, 64)
	go func() {
		defer close(changes)
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				pending := w.trackPolicyDir(fsw, event)
				if change := w.handleFsEvent(event); change != nil {
					pending = append(pending, *change)
				}
				for _, c := range pending {
					select {
					case changes <- c:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "err", err)
			}
		}
	}()

	return changes, nil
}

// addInitial watches both namespace directories and every existing policy directory.
func (w *Watcher) addInitial(fsw *fsnotify.Watcher) error {
	policies := filepath.Join(w.root, domain.NamespaceRoot(domain.NamespacePolicy))
	reports := filepath.Join(w.root, domain.NamespaceRoot(domain.NamespaceReport))

	for _, dir := range []string{policies, reports} {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	entries, err := os.ReadDir(policies)
	if err != nil {
		return fmt.Errorf("reading %s: %w", policies, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || domain.ValidateIdentifier(entry.Name()) != nil {
			continue
		}
		dir := filepath.Join(policies, entry.Name())
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

// trackPolicyDir starts watching a policy directory created after Watch
// began. Artifacts written before the watch was added are returned as
// changes so none are missed.
func (w *Watcher) trackPolicyDir(fsw *fsnotify.Watcher, event fsnotify.Event) []domain.ArtifactChange {
	if !event.Has(fsnotify.Create) {
		return nil
	}
	if filepath.Dir(event.Name) != filepath.Join(w.root, domain.NamespaceRoot(domain.NamespacePolicy)) {
		return nil
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return nil
	}
	if err := fsw.Add(event.Name); err != nil {
		logger.Warn("cannot watch policy directory", "path", event.Name, "err", err)
		return nil
	}

	entries, err := os.ReadDir(event.Name)
	if err != nil {
		return nil
	}
	var existing []domain.ArtifactChange
	for _, entry := range entries {
		created := fsnotify.Event{Name: filepath.Join(event.Name, entry.Name()), Op: fsnotify.Create}
		if change := w.handleFsEvent(created); change != nil {
			existing = append(existing, *change)
		}
	}
	return existing
}

// handleFsEvent maps a raw event to an artifact change, or nil if the
// path is not an artifact or the operation is not of interest.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *domain.ArtifactChange {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return nil
	}
	loc, ok := domain.ParsePath(filepath.ToSlash(rel))
	if !ok {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return &domain.ArtifactChange{Location: loc, Type: domain.ChangeWritten}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.ArtifactChange{Location: loc, Type: domain.ChangeRemoved}
	default:
		return nil
	}
}
