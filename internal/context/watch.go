package context

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Watcher watches every live context's Kconfig declaration tree in the
// background and signals the owning caller to Reparse via
// Invalidated, rather than mutating any Context state itself — the
// consuming handler does that serially, preserving the single-threaded
// request model of §5.
type Watcher struct {
	mgr         *Manager
	fsw         *fsnotify.Watcher
	debounce    time.Duration
	Invalidated chan int

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewWatcher creates a Watcher over mgr, not yet watching anything.
func NewWatcher(mgr *Manager, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		mgr:         mgr,
		fsw:         fsw,
		debounce:    debounce,
		Invalidated: make(chan int, 16),
	}, nil
}

// WatchRoot adds fsnotify watches over every directory reachable from
// root's own directory (Kconfig trees fan out via source directives
// into sibling/child directories, so the watch root is the directory
// containing the root file, not the file itself).
func (w *Watcher) WatchRoot(root string) error {
	dir := filepath.Dir(root)
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Start launches the event-processing goroutine, supervised by an
// errgroup so Stop can wait for clean shutdown.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	w.group = g
	g.Go(func() error {
		return w.run(gctx)
	})
}

// Stop cancels the event loop and waits for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	if w.group != nil {
		if gerr := w.group.Wait(); gerr != nil && gerr != context.Canceled {
			return gerr
		}
	}
	return err
}

func (w *Watcher) run(ctx context.Context) error {
	pending := make(map[int]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.scheduleInvalidation(ev.Name, pending)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// Errors from fsnotify are not fatal to the watch loop: a
			// transient failure reading one event shouldn't tear down
			// every context's invalidation signal.
		}
	}
}

// scheduleInvalidation debounces repeated events on the same path,
// firing one Invalidated signal per affected context after the quiet
// window elapses.
func (w *Watcher) scheduleInvalidation(path string, pending map[int]*time.Timer) {
	for _, ctxID := range w.mgr.contextsWatchingPath(path) {
		if t, ok := pending[ctxID]; ok {
			t.Stop()
		}
		id := ctxID
		pending[id] = time.AfterFunc(w.debounce, func() {
			select {
			case w.Invalidated <- id:
			default:
			}
		})
	}
}

// contextsWatchingPath returns every context whose root tree's
// directory is an ancestor of path, the set a Kconfig-tree edit under
// that directory should invalidate.
func (m *Manager) contextsWatchingPath(path string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, id := range m.order {
		ctx := m.contexts[id]
		rel, err := filepath.Rel(filepath.Dir(ctx.Root), path)
		if err == nil && rel != ".." && !hasParentPrefix(rel) {
			out = append(out, id)
		}
	}
	return out
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}
