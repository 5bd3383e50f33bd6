package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultLatency is the default coalescing window of [FSNotifier].
const DefaultLatency = time.Second

// Notifier isolates a platform change notification backend.
type Notifier interface {
	// Start subscribes to changes anywhere under root. onEvent is called
	// with the absolute path of every changed entry, from a single
	// goroutine.
	Start(root string, onEvent func(path string)) error
	// Stop releases the subscription. No callbacks are made after it
	// returns. It is safe to call more than once.
	Stop() error
}

var errAlreadyStarted = errors.New("notifier already started")

// FSNotifier is a [Notifier] backed by fsnotify. Every directory below the
// root is watched, including directories created after [FSNotifier.Start].
// Raw events are collected for the duration of the latency window and
// delivered together, once per path, in arrival order.
type FSNotifier struct {
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
	latency time.Duration
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewFSNotifier creates a new [FSNotifier]. A latency of zero delivers every
// event as soon as it arrives.
func NewFSNotifier(latency time.Duration, logger *slog.Logger) *FSNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &FSNotifier{
		latency: latency,
		logger:  logger,
	}
}

func (n *FSNotifier) Start(root string, onEvent func(path string)) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.watcher != nil || n.stopped {
		return errAlreadyStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	n.watcher = watcher

	_, err = n.addTree(root)
	if err != nil {
		closeErr := watcher.Close()
		n.watcher = nil

		return errors.Join(fmt.Errorf("add path to watcher: %w", err), closeErr)
	}

	n.done = make(chan struct{})

	n.wg.Add(1)

	go n.run(onEvent)

	return nil
}

func (n *FSNotifier) Stop() error {
	n.mu.Lock()
	if n.stopped || n.watcher == nil {
		n.stopped = true
		n.mu.Unlock()

		return nil
	}

	n.stopped = true
	close(n.done)
	err := n.watcher.Close()
	n.mu.Unlock()

	n.wg.Wait()

	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}

func (n *FSNotifier) run(onEvent func(path string)) {
	defer n.wg.Done()

	var (
		pending []string
		seen    = map[string]struct{}{}
		flushC  <-chan time.Time
	)

	if n.latency > 0 {
		ticker := time.NewTicker(n.latency)
		defer ticker.Stop()

		flushC = ticker.C
	}

	flush := func() {
		for _, p := range pending {
			onEvent(p)
		}

		pending = pending[:0]
		clear(seen)
	}

	for {
		select {
		case <-n.done:
			return

		case evt, ok := <-n.watcher.Events:
			if !ok {
				return
			}

			for _, p := range n.track(evt) {
				if flushC == nil {
					onEvent(p)

					continue
				}

				if _, dup := seen[p]; dup {
					continue
				}

				seen[p] = struct{}{}
				pending = append(pending, p)
			}

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}

			n.logger.Error("watcher error", slog.Any("err", err))

		case <-flushC:
			flush()
		}
	}
}

// track keeps the watch list in step with the tree and returns the paths
// evt reports. A created directory is watched along with everything below
// it, and files already inside it are reported, since they may have been
// written before the watch was in place.
func (n *FSNotifier) track(evt fsnotify.Event) []string {
	switch {
	case evt.Has(fsnotify.Create):
		info, err := os.Lstat(evt.Name)
		if err != nil || !info.IsDir() {
			break
		}

		files, err := n.addTree(evt.Name)
		if err != nil {
			n.logger.Warn("watch new directory",
				slog.String("path", evt.Name),
				slog.Any("err", err),
			)
		}

		return append([]string{evt.Name}, files...)

	case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
		// Fails for anything but a watched directory. A renamed directory
		// is re-added under its new name by the matching Create.
		_ = n.watcher.Remove(evt.Name)
	}

	return []string{evt.Name}
}

// addTree watches root and every directory below it, returning the files
// found on the way. Subdirectories that cannot be read are skipped; only a
// failure on root itself is returned.
func (n *FSNotifier) addTree(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			n.logger.Debug("skipping directory", slog.String("path", path), slog.Any("err", err))

			return fs.SkipDir
		}

		if !d.IsDir() {
			if path != root {
				files = append(files, path)
			}

			return nil
		}

		err = n.watcher.Add(path)
		if err != nil {
			if path == root {
				return err //nolint:wrapcheck // Wrapped by the caller.
			}

			n.logger.Debug("skipping directory", slog.String("path", path), slog.Any("err", err))

			return fs.SkipDir
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by the caller.
	}

	return files, nil
}
