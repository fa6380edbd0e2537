// Package watch tracks individual files and reports their invalidation.
//
// fsnotify watches directories; Registry watches the parent directory of
// every registered file and filters events down to exact registered paths.
// Any create, write, remove, rename or chmod of a registered file, or a
// rename/removal of its directory, is delivered once on Events as the file's
// cleaned absolute path. Renames are reported under the old name.
package watch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("watch registry closed")

type Registry struct {
	mu      sync.Mutex
	w       *fsnotify.Watcher
	files   map[string]int // path -> handle count
	dirs    map[string]int // dir -> number of watched files in it
	out     chan string
	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
	onError func(error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithErrorHandler receives watcher errors; they are dropped otherwise.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Registry) { r.onError = fn }
}

// NewRegistry starts the event loop. buffer sizes the Events channel.
func NewRegistry(buffer int, opts ...Option) (*Registry, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if buffer < 0 {
		buffer = 0
	}
	r := &Registry{
		w:     w,
		files: make(map[string]int),
		dirs:  make(map[string]int),
		out:   make(chan string, buffer),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(1)
	go r.loop()
	return r, nil
}

// Events delivers invalidated paths. The channel is closed by Close.
func (r *Registry) Events() <-chan string {
	return r.out
}

// Handle is one registration of a path; Release is idempotent.
type Handle struct {
	r    *Registry
	path string
	once sync.Once
}

func (h *Handle) Path() string { return h.path }

func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() { h.r.release(h.path) })
}

// Add starts watching path. The same path may be added several times; the
// watch stays active until every handle is released.
func (r *Registry) Add(path string) (*Handle, error) {
	abs, err := normalize(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	if r.files[abs] == 0 {
		dir := filepath.Dir(abs)
		if r.dirs[dir] == 0 {
			if err := r.w.Add(dir); err != nil {
				return nil, fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		r.dirs[dir]++
	}
	r.files[abs]++
	return &Handle{r: r, path: abs}, nil
}

// Watched reports whether path currently has an active watch.
func (r *Registry) Watched(path string) bool {
	abs, err := normalize(path)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.files[abs] > 0
}

func (r *Registry) release(abs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.files[abs] == 0 {
		return
	}
	r.files[abs]--
	if r.files[abs] > 0 {
		return
	}
	delete(r.files, abs)
	dir := filepath.Dir(abs)
	r.dirs[dir]--
	if r.dirs[dir] <= 0 {
		delete(r.dirs, dir)
		_ = r.w.Remove(dir)
	}
}

// Close stops the event loop and closes Events.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	err := r.w.Close()
	r.wg.Wait()
	close(r.out)
	return err
}

func (r *Registry) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.w.Events:
			if !ok {
				return
			}
			for _, p := range r.affected(ev) {
				select {
				case r.out <- p:
				case <-r.done:
					return
				}
			}
		case err, ok := <-r.w.Errors:
			if !ok {
				return
			}
			if r.onError != nil {
				r.onError(err)
			}
		}
	}
}

// affected maps one fsnotify event to the registered paths it invalidates.
func (r *Registry) affected(ev fsnotify.Event) []string {
	name := filepath.Clean(ev.Name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.files[name] > 0 {
		return []string{name}
	}
	// the watched directory itself went away or was renamed
	if r.dirs[name] > 0 && (ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove)) {
		var out []string
		for p := range r.files {
			if filepath.Dir(p) == name {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

func normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
