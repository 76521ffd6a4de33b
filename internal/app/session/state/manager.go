package state

import (
	"sync"
	"time"
)

// Info is a copy of the session state.
type Info struct {
	SessionID     string
	Phase         Phase
	StartedAt     time.Time
	Import        ImportStatus
	ImportSource  string
	ImportedCount int
	ImportError   string
}

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase
	startedAt time.Time

	// Last playlist import
	importStatus ImportStatus
	importSource string
	importCount  int
	importError  string
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseStarting,
	}
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// SetPhase sets the session phase. Entering PhaseActive records the start time.
func (m *Manager) SetPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == PhaseActive && m.startedAt.IsZero() {
		m.startedAt = time.Now()
	}
	m.phase = p
}

// IsActive returns true while the session accepts commands.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseActive
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// StartImport marks a playlist import as running.
func (m *Manager) StartImport(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importStatus = ImportRunning
	m.importSource = source
	m.importCount = 0
	m.importError = ""
}

// FinishImport records the outcome of the running import.
func (m *Manager) FinishImport(count int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.importStatus = ImportFailed
		m.importError = err.Error()
		return
	}
	m.importStatus = ImportDone
	m.importCount = count
}

// Info returns a copy of the session state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		SessionID:     m.sessionID,
		Phase:         m.phase,
		StartedAt:     m.startedAt,
		Import:        m.importStatus,
		ImportSource:  m.importSource,
		ImportedCount: m.importCount,
		ImportError:   m.importError,
	}
}
