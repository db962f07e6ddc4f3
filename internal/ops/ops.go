// Package ops tracks long-running operations for client-side polling.
//
// Records move accepted -> running -> completed|failed, with canceled
// reachable from any non-terminal state. Cancellation is advisory: it sets a
// monotonic flag the driving worker is expected to check; it never preempts
// work already in flight. Records are kept for the life of the process.
package ops

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Operation states.
const (
	StateAccepted  = "accepted"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCanceled  = "canceled"
)

// Record is a snapshot of one tracked operation. Result and Error are
// mutually exclusive, set on the terminal transition.
type Record struct {
	ID              string         `json:"operation_id"`
	Kind            string         `json:"kind"`
	Status          string         `json:"state"`
	Result          map[string]any `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	CancelRequested bool           `json:"cancel_requested"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Manager is the operation table. One coarse lock guards all access;
// contention is expected to be low.
type Manager struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewManager returns an empty operation table.
func NewManager() *Manager {
	return &Manager{records: make(map[string]*Record)}
}

// Create registers a new operation in the accepted state and returns a copy.
func (m *Manager) Create(kind string, metadata map[string]any) Record {
	rec := &Record{
		ID:       ulid.Make().String(),
		Kind:     kind,
		Status:   StateAccepted,
		Metadata: metadata,
	}

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()

	return *rec
}

// Start marks the operation running. Unknown ids are ignored.
func (m *Manager) Start(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[id]; ok {
		rec.Status = StateRunning
	}
}

// Complete marks the operation completed with its result payload.
func (m *Manager) Complete(id string, result map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[id]; ok {
		rec.Status = StateCompleted
		rec.Result = result
	}
}

// Fail marks the operation failed with an error message.
func (m *Manager) Fail(id string, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[id]; ok {
		rec.Status = StateFailed
		rec.Error = errMsg
	}
}

// RequestCancel flips the cancel flag and, when the operation has not yet
// reached a terminal state, marks it canceled. It reports whether the id
// was known. The flag never resets.
func (m *Manager) RequestCancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return false
	}

	rec.CancelRequested = true
	if rec.Status == StateAccepted || rec.Status == StateRunning {
		rec.Status = StateCanceled
	}

	return true
}

// CancelRequested reports the cancel flag for the id.
func (m *Manager) CancelRequested(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]

	return ok && rec.CancelRequested
}

// Get returns a copy of the record for the id.
func (m *Manager) Get(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, false
	}

	return *rec, true
}
