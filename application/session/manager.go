package session

import (
	"context"
	"sync"

	"specmap/application/ports"
)

// Manager keeps at most one session active at a time. Opening or starting
// a session flushes and replaces the current one, matching a single-user
// editor where switching projects closes the old canvas.
type Manager struct {
	mu     sync.Mutex
	deps   Deps
	active *Controller
}

// NewManager creates a session manager.
func NewManager(deps Deps) *Manager {
	deps.fillDefaults()
	return &Manager{deps: deps}
}

// StartNew closes any active session and begins a fresh one.
func (m *Manager) StartNew(ctx context.Context, templateID, title, folderID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeActive(ctx); err != nil {
		m.deps.Logger.Warn("closing previous session failed: " + err.Error())
	}
	c := NewController(m.deps)
	if err := c.StartNew(templateID, title, folderID); err != nil {
		return nil, err
	}
	m.active = c
	return c, nil
}

// Open closes any active session and resumes a persisted one.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.SessionID() == sessionID {
		return m.active, nil
	}
	if err := m.closeActive(ctx); err != nil {
		m.deps.Logger.Warn("closing previous session failed: " + err.Error())
	}
	c := NewController(m.deps)
	if err := c.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	m.active = c
	return c, nil
}

// Active returns the current controller, or nil when none.
func (m *Manager) Active() *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// List returns session summaries from the store.
func (m *Manager) List(ctx context.Context, filter ports.ListFilter) ([]ports.SessionSummary, error) {
	return m.deps.Store.List(ctx, filter)
}

// Delete removes a persisted session, closing it first when it is the
// active one.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.SessionID() == sessionID {
		if err := m.closeActive(ctx); err != nil {
			m.deps.Logger.Warn("closing session before delete failed: " + err.Error())
		}
	}
	return m.deps.Store.Delete(ctx, sessionID)
}

// Close flushes and drops the active session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeActive(ctx)
}

func (m *Manager) closeActive(ctx context.Context) error {
	if m.active == nil {
		return nil
	}
	err := m.active.Close(ctx)
	m.active = nil
	return err
}
