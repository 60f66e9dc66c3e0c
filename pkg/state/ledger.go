// Package state tracks what an export run changed so it can be undone, and
// records how the run ended.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// ErrAlreadyReverted is returned by Record once the ledger has been unwound.
var ErrAlreadyReverted = errors.New("ledger already reverted")

// RevertFunc undoes one side effect.
type RevertFunc func(ctx context.Context) error

type entry struct {
	name   string
	revert RevertFunc
}

// Ledger is an ordered list of reversible side effects applied by one run.
// It lives in memory only and is unwound at most once, newest first.
type Ledger struct {
	mu       sync.Mutex
	entries  []entry
	reverted bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record registers the undo action for a side effect that has just been applied.
func (l *Ledger) Record(name string, revert RevertFunc) error {
	if revert == nil {
		return fmt.Errorf("recording %q: nil revert func", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reverted {
		return fmt.Errorf("recording %q: %w", name, ErrAlreadyReverted)
	}
	l.entries = append(l.entries, entry{name: name, revert: revert})
	return nil
}

// Len returns the number of pending entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Names lists the pending entries in the order they were recorded.
func (l *Ledger) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.name
	}
	return names
}

// Reverted reports whether RevertAll has run.
func (l *Ledger) Reverted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reverted
}

// RevertAll runs every revert action in reverse order. Failures and panics
// are logged as warnings and never stop the remaining actions. Only the first
// call does anything; it returns the number of actions that failed.
func (l *Ledger) RevertAll(ctx context.Context, log logger.Logger) int {
	log = logger.OrNop(log)

	l.mu.Lock()
	if l.reverted {
		l.mu.Unlock()
		return 0
	}
	l.reverted = true
	entries := l.entries
	l.entries = nil
	l.mu.Unlock()

	failed := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := runRevert(ctx, e.revert); err != nil {
			failed++
			log.Warn(fmt.Sprintf("Failed to revert %s", e.name), logger.WithField("error", err))
			continue
		}
		log.Debug(fmt.Sprintf("Reverted %s", e.name))
	}
	return failed
}

func runRevert(ctx context.Context, fn RevertFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
