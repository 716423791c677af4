package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Frames(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	assert.Zero(t, snap.FrameCount)
	assert.Zero(t, snap.MinFrameTimeNs)
	assert.Zero(t, snap.AvgFPS())
	assert.Zero(t, snap.CurrentFPS())

	m.RecordFrame(10 * time.Millisecond)
	m.RecordFrame(30 * time.Millisecond)
	m.RecordFrame(20 * time.Millisecond)

	snap = m.Snapshot()
	assert.Equal(t, uint64(3), snap.FrameCount)
	assert.Equal(t, int64(10*time.Millisecond), snap.MinFrameTimeNs)
	assert.Equal(t, int64(30*time.Millisecond), snap.MaxFrameTimeNs)
	assert.Equal(t, int64(20*time.Millisecond), snap.AvgFrameTimeNs)
	assert.InDelta(t, 50.0, snap.AvgFPS(), 0.001)
	assert.InDelta(t, 50.0, snap.CurrentFPS(), 0.001)
}

func TestMetrics_CountersAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordEvent()
	m.RecordEvent()
	m.RecordReload()
	m.RecordFrame(time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.EventCount)
	assert.Equal(t, uint64(1), snap.Reloads)

	m.Reset()
	snap = m.Snapshot()
	assert.Zero(t, snap.EventCount)
	assert.Zero(t, snap.Reloads)
	assert.Zero(t, snap.FrameCount)
	assert.Zero(t, snap.MinFrameTimeNs)
}
