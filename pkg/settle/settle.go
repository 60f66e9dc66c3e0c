// Package settle waits for files written by external tools to stop changing.
package settle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

const (
	DefaultQuietPeriod = time.Second
	DefaultTimeout     = 2 * time.Minute
)

// ErrNotSettled is returned when a file is still missing or changing at the deadline.
var ErrNotSettled = errors.New("file did not settle")

// Waiter blocks until a file exists and has seen no writes for QuietPeriod.
type Waiter struct {
	QuietPeriod time.Duration
	Timeout     time.Duration
	logger      logger.Logger
}

// NewWaiter creates a Waiter with the default quiet period and timeout
func NewWaiter(log logger.Logger) *Waiter {
	return &Waiter{
		QuietPeriod: DefaultQuietPeriod,
		Timeout:     DefaultTimeout,
		logger:      logger.OrNop(log),
	}
}

type snapshot struct {
	size    int64
	modTime time.Time
	exists  bool
}

func stat(path string) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{size: info.Size(), modTime: info.ModTime(), exists: true}
}

// Wait returns once path exists and neither fsnotify events nor its size or
// modification time have changed for a full quiet period.
func (w *Waiter) Wait(ctx context.Context, path string) error {
	quiet := w.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path = filepath.Clean(path)
	var events <-chan fsnotify.Event
	var errs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Debug("fsnotify unavailable, polling instead", logger.WithField("error", err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			w.logger.Debug(fmt.Sprintf("Cannot watch %s, polling instead", filepath.Dir(path)), logger.WithField("error", err))
		} else {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	timer := time.NewTimer(quiet)
	defer timer.Stop()
	last := stat(path)

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %s", ErrNotSettled, path, timeout)
			}
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == path {
				resetTimer(timer, quiet)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("fsnotify error while settling", logger.WithField("error", err))

		case <-timer.C:
			cur := stat(path)
			if cur.exists && cur == last {
				w.logger.Debug(fmt.Sprintf("%s settled", path), logger.WithField("size", cur.size))
				return nil
			}
			last = cur
			timer.Reset(quiet)
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
