package repo

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/endfieldpass/backend/internal/constant"
)

func TestProgressTrackerClamp(t *testing.T) {
	tracker := NewProgressTracker()

	tracker.Set(1, ProgressUpdate{Status: lo.ToPtr(constant.SessionStatusRunning), Progress: lo.ToPtr(-5)})
	assert.Equal(t, 0, tracker.Get(1).Progress)

	tracker.Set(1, ProgressUpdate{Status: lo.ToPtr(constant.SessionStatusRunning), Progress: lo.ToPtr(250)})
	assert.Equal(t, 100, tracker.Get(1).Progress)
}

func TestProgressTrackerUnknownSession(t *testing.T) {
	tracker := NewProgressTracker()

	snapshot := tracker.Get(99)
	assert.Empty(t, snapshot.Status)
	assert.Zero(t, snapshot.Progress)
}

func TestProgressTrackerMergesPartialUpdates(t *testing.T) {
	tracker := NewProgressTracker()

	tracker.Set(1, ProgressUpdate{
		Status:   lo.ToPtr(constant.SessionStatusRunning),
		Progress: lo.ToPtr(40),
		Message:  lo.ToPtr("Fetching Banner."),
	})
	tracker.Set(1, ProgressUpdate{Progress: lo.ToPtr(60)})

	snapshot := tracker.Get(1)
	assert.Equal(t, constant.SessionStatusRunning, snapshot.Status)
	assert.Equal(t, 60, snapshot.Progress)
	assert.Equal(t, "Fetching Banner.", snapshot.Message)

	tracker.Set(1, ProgressUpdate{
		Status: lo.ToPtr(constant.SessionStatusError),
		Error:  lo.ToPtr("upstream timed out"),
	})

	snapshot = tracker.Get(1)
	assert.Equal(t, constant.SessionStatusError, snapshot.Status)
	assert.Equal(t, 60, snapshot.Progress)
	assert.Equal(t, "upstream timed out", snapshot.Error)
}
