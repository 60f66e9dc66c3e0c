package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// Manager turns an interrupt into an orderly shutdown: handlers run in
// reverse registration order, then the context returned by Start is cancelled
// so any running tool gets killed.
type Manager struct {
	logger           logger.Logger
	shutdownHandlers []func()
	stop             chan struct{}
	cancel           context.CancelFunc
	once             sync.Once
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		logger: logger.OrNop(log),
	}
}

// RegisterShutdownHandler adds a shutdown handler
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// Start begins listening for signals. The returned context is cancelled on
// the first signal, or when ctx itself ends.
func (m *Manager) Start(ctx context.Context) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ctx
	}
	m.running = true
	m.stop = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer signal.Stop(sigChan)

		select {
		case <-m.stop:
			return
		case <-ctx.Done():
		case sig := <-sigChan:
			m.logger.Warn("Received signal, shutting down", logger.WithField("signal", sig))
		}
		m.handleShutdown()
	}()

	return runCtx
}

// Stop releases the signal handler without running shutdown handlers.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	cancel := m.cancel
	m.mu.Unlock()

	m.wg.Wait()
	if cancel != nil {
		cancel()
	}
}

// IsRunning checks if the process manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Shutdown runs the shutdown handlers now. Later calls do nothing.
func (m *Manager) Shutdown() {
	m.handleShutdown()
}

func (m *Manager) handleShutdown() {
	m.once.Do(func() {
		m.logger.Info("Initiating graceful shutdown...")

		m.mu.Lock()
		handlers := make([]func(), len(m.shutdownHandlers))
		copy(handlers, m.shutdownHandlers)
		cancel := m.cancel
		m.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i]()
		}
	})
}
