package watch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultBufferSize is the default capacity of the events channel.
const DefaultBufferSize = 256

// ErrPathUnavailable is returned by [New] when the root is missing, is not a
// directory, or cannot be read.
var ErrPathUnavailable = errors.New("path unavailable")

// ChangeEvent reports a changed regular file.
type ChangeEvent struct {
	// Path is the absolute path of the file.
	Path string
}

// Watcher emits a [ChangeEvent] for every regular file that changes directly
// inside its root directory.
type Watcher struct {
	notifier  Notifier
	closeErr  error
	logger    *slog.Logger
	events    chan ChangeEvent
	root      string
	ignore    []string
	dropped   atomic.Int64
	latency   time.Duration
	buffer    int
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// Opt configures a [Watcher].
type Opt func(*Watcher)

// WithNotifier replaces the default [FSNotifier].
func WithNotifier(n Notifier) Opt {
	return func(w *Watcher) {
		w.notifier = n
	}
}

// WithLatency sets the coalescing window of the default notifier.
func WithLatency(d time.Duration) Opt {
	return func(w *Watcher) {
		w.latency = d
	}
}

// WithIgnore drops files whose base name matches any of the given
// doublestar patterns, e.g. "*.crdownload" or ".DS_Store".
func WithIgnore(patterns ...string) Opt {
	return func(w *Watcher) {
		w.ignore = append(w.ignore, patterns...)
	}
}

// WithBufferSize sets the capacity of the events channel. Events arriving
// while it is full are dropped.
func WithBufferSize(n int) Opt {
	return func(w *Watcher) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Opt {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching root. The root must be an existing, readable
// directory; otherwise the returned error wraps [ErrPathUnavailable].
func New(root string, opts ...Opt) (*Watcher, error) {
	w := &Watcher{
		logger:  slog.Default(),
		latency: DefaultLatency,
		buffer:  DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range w.ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	abs, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	w.root = abs
	w.events = make(chan ChangeEvent, w.buffer)
	w.logger = w.logger.With(slog.String("root", abs))

	if w.notifier == nil {
		w.notifier = NewFSNotifier(w.latency, w.logger)
	}

	err = w.notifier.Start(abs, w.handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPathUnavailable, abs, err)
	}

	w.logger.Debug("watching directory", slog.Duration("latency", w.latency))

	return w, nil
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathUnavailable, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathUnavailable, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: not a directory", ErrPathUnavailable, abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathUnavailable, err)
	}

	_, err = f.Readdirnames(1)
	closeErr := f.Close()

	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %w", ErrPathUnavailable, err)
	}

	if closeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrPathUnavailable, closeErr)
	}

	return abs, nil
}

// Root returns the absolute path being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Events returns the channel of change events. It is closed by
// [Watcher.Close].
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Dropped returns the number of events dropped because the channel was full.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// Close stops the notifier and closes the events channel. It is safe to
// call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		err := w.notifier.Stop()
		if err != nil {
			w.closeErr = fmt.Errorf("stop notifier: %w", err)
		}

		w.mu.Lock()
		w.closed = true
		close(w.events)
		w.mu.Unlock()
	})

	return w.closeErr
}

func (w *Watcher) handle(path string) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.root, path)
	}

	logger := w.logger.With(slog.String("path", path))

	if w.ignored(path) {
		logger.Debug("ignoring file")

		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Debug("dropping event", slog.Any("err", err))

		return
	}

	if !info.Mode().IsRegular() {
		return
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	select {
	case w.events <- ChangeEvent{Path: path}:
	default:
		w.dropped.Add(1)
		logger.Warn("event buffer full, dropping event",
			slog.Int("buffer", cap(w.events)),
		)
	}
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, p := range w.ignore {
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}

	return false
}
