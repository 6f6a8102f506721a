// Package process provides process lifecycle utilities for long running commands
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdexport/gdexport/pkg/logger"
)

// DefaultHeartbeatInterval is used when SetHeartbeat is given no interval
const DefaultHeartbeatInterval = 10 * time.Second

// Manager cancels a context on interrupt and runs shutdown handlers once
type Manager struct {
	logger            logger.Logger
	shutdownHandlers  []func()
	heartbeatFunc     func()
	heartbeatInterval time.Duration

	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	shutdown sync.Once
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		logger:            log,
		heartbeatInterval: DefaultHeartbeatInterval,
	}
}

// RegisterShutdownHandler adds a shutdown handler. Handlers run in reverse order.
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// SetHeartbeat sets a function called periodically while the manager runs
func (m *Manager) SetHeartbeat(fn func(), interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeatFunc = fn
	if interval > 0 {
		m.heartbeatInterval = interval
	}
}

// Start watches for SIGINT, SIGTERM and SIGHUP. The returned context is cancelled
// when a signal arrives, when ctx ends or when Stop is called.
func (m *Manager) Start(ctx context.Context) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	if m.running {
		cancel()
		return ctx
	}
	m.running = true
	m.cancel = cancel

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer signal.Stop(sigChan)

		select {
		case <-ctx.Done():
		case sig := <-sigChan:
			m.logger.Info("Received signal", logger.WithField("signal", sig))
			cancel()
		}
		m.handleShutdown()
	}()

	if m.heartbeatFunc != nil {
		m.startHeartbeat(ctx, m.heartbeatFunc, m.heartbeatInterval)
	}
	return ctx
}

// Stop cancels the managed context and waits for the shutdown handlers
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

// IsRunning checks if the process manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) handleShutdown() {
	m.shutdown.Do(func() {
		m.logger.Debug("Shutting down")

		m.mu.Lock()
		handlers := make([]func(), len(m.shutdownHandlers))
		copy(handlers, m.shutdownHandlers)
		m.running = false
		m.mu.Unlock()

		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i]()
		}
	})
}

func (m *Manager) startHeartbeat(ctx context.Context, fn func(), interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// IsAlive reports whether a process with the given PID is running
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
