package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventKind classifies a correlated filesystem change for the
// ingestion pipeline (C4) to act on.
type EventKind int

const (
	EventCreate EventKind = iota
	EventWrite
	EventRemove
	EventRename // soft-disable with a cookie, pending a matching re-appearance
	EventRestore
)

// Event is the debounced, cookie-correlated change handed to C4.
type Event struct {
	Kind   EventKind
	Path   string
	Cookie int64 // valid for EventRename/EventRestore
}

// Dispatch receives correlated, debounced watch events.
type Dispatch func(Event)

// Watcher wraps fsnotify with debounce and rename-cookie correlation,
// persisting the cookie<->path mapping via Store so correlation
// survives a process restart (spec §4.4 "files" source: "Unlinks...
// produce soft-disable with a cookie; matching re-appearance within a
// window re-enables the row").
type Watcher struct {
	logger *zap.Logger
	store  *Store
	fsw    *fsnotify.Watcher
	dir    string

	debounceDelay time.Duration
	renameWindow  time.Duration

	debounceMu  sync.Mutex
	debounceMap map[string]*time.Timer

	nextCookie int64

	dispatch Dispatch

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher. debounceDelay bounds how long a burst of
// events on the same path is coalesced; renameWindow bounds how long a
// disabled cookie waits for a matching re-appearance before it is
// treated as a genuine delete.
func New(logger *zap.Logger, store *Store, debounceDelay, renameWindow time.Duration, dispatch Dispatch) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}
	if renameWindow <= 0 {
		renameWindow = 5 * time.Second
	}
	return &Watcher{
		logger:        logger,
		store:         store,
		fsw:           fsw,
		debounceDelay: debounceDelay,
		renameWindow:  renameWindow,
		debounceMap:   make(map[string]*time.Timer),
		dispatch:      dispatch,
		stopCh:        make(chan struct{}),
	}, nil
}

// AddRecursive registers root and every subdirectory under it with the
// underlying fsnotify watcher (fsnotify is not recursive on Linux).
func (w *Watcher) AddRecursive(root string) error {
	w.dir = root
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Add registers a single directory.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Start launches the event-processing goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop closes the underlying fsnotify watcher and waits for the
// processing goroutine to exit (spec §5 "Clean shutdown").
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch: fsnotify error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op&fsnotify.Create == fsnotify.Create:
		w.handleCreate(ev.Name)
	case ev.Op&fsnotify.Write == fsnotify.Write:
		w.debounce(ev.Name, Event{Kind: EventWrite, Path: ev.Name})
	case ev.Op&fsnotify.Remove == fsnotify.Remove:
		w.handleRemove(ev.Name)
	case ev.Op&fsnotify.Rename == fsnotify.Rename:
		// fsnotify reports the source side of a rename as a Rename op
		// on the old name; the destination arrives as a separate
		// Create event, which handleCreate correlates against any
		// cookie pending within renameWindow.
		w.handleRemove(ev.Name)
	}
}

func (w *Watcher) handleRemove(path string) {
	cookie := atomic.AddInt64(&w.nextCookie, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.store.Put(ctx, cookie, cookie, path); err != nil {
		w.logger.Error("watch: persist pending rename", zap.Error(err), zap.String("path", path))
	}

	w.debounce(path, Event{Kind: EventRename, Path: path, Cookie: cookie})

	timer := time.AfterFunc(w.renameWindow, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if p, ok, _ := w.store.PathForCookie(ctx, cookie); ok && p == path {
			_ = w.store.DeleteByCookie(ctx, cookie)
		}
	})
	_ = timer
}

func (w *Watcher) handleCreate(path string) {
	base := filepath.Base(path)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if cookie, ok := w.findPendingCookie(ctx, base); ok {
		_ = w.store.DeleteByCookie(ctx, cookie)
		w.debounce(path, Event{Kind: EventRestore, Path: path, Cookie: cookie})
		return
	}

	w.debounce(path, Event{Kind: EventCreate, Path: path})
}

// findPendingCookie is a best-effort basename correlation: the
// original matched by the raw kernel cookie; Go's fsnotify does not
// expose one, so base-name matching against the set of recent
// removals is the closest portable approximation (see DESIGN.md).
func (w *Watcher) findPendingCookie(ctx context.Context, base string) (int64, bool) {
	cookie, _, ok, err := w.store.FindPendingByBase(ctx, base)
	if err != nil {
		w.logger.Error("watch: find pending cookie", zap.Error(err), zap.String("base", base))
		return 0, false
	}
	return cookie, ok
}

func (w *Watcher) debounce(path string, ev Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounceMap, path)
		w.debounceMu.Unlock()
		w.dispatch(ev)
	})
}
