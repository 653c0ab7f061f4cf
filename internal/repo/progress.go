package repo

import (
	"sync"

	"github.com/endfieldpass/backend/internal/model"
)

// ProgressTracker keeps per-session ingestion progress in process memory.
// Progress is advisory UI state, so it is intentionally not durable and is
// kept separate from the session store.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[int]model.Progress
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		entries: make(map[int]model.Progress),
	}
}

// ProgressUpdate carries partial changes to a progress snapshot. Nil fields
// leave the stored value untouched.
type ProgressUpdate struct {
	Status   *string
	Progress *int
	Message  *string
	Error    *string
}

// Set merges an update into the stored snapshot. Percent values are clamped
// to the 0..100 range so a buggy producer cannot break the polling clients.
func (t *ProgressTracker) Set(sessionID int, update ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.entries[sessionID]
	if update.Status != nil {
		entry.Status = *update.Status
	}
	if update.Progress != nil {
		entry.Progress = *update.Progress
		if entry.Progress < 0 {
			entry.Progress = 0
		}
		if entry.Progress > 100 {
			entry.Progress = 100
		}
	}
	if update.Message != nil {
		entry.Message = *update.Message
	}
	if update.Error != nil {
		entry.Error = *update.Error
	}
	t.entries[sessionID] = entry
}

// Get returns the snapshot for a session. Unknown sessions yield the zero
// snapshot, which polling clients render as "not started".
func (t *ProgressTracker) Get(sessionID int) model.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[sessionID]
}
