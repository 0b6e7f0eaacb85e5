package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()
	assert.Empty(t, snap.PerType)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.TaskStarted("scrape")
	c.TaskStarted("scrape")
	c.TaskStarted("scrape")
	c.TaskStarted("url_update")

	c.TaskFinished("scrape", models.StatusCompleted, 100*time.Millisecond)
	c.TaskFinished("scrape", models.StatusFailed, 50*time.Millisecond)
	c.TaskFinished("scrape", models.StatusCancelled, 30*time.Millisecond)
	c.TaskFinished("url_update", models.StatusCompleted, 200*time.Millisecond)

	snap := c.Snapshot()

	scrape, ok := snap.PerType["scrape"]
	require.True(t, ok)
	assert.Equal(t, int64(3), scrape.Started)
	assert.Equal(t, int64(1), scrape.Completed)
	assert.Equal(t, int64(1), scrape.Failed)
	assert.Equal(t, int64(1), scrape.Cancelled)
	assert.Equal(t, int64(3), scrape.FinishedCount)

	update, ok := snap.PerType["url_update"]
	require.True(t, ok)
	assert.Equal(t, int64(1), update.Started)
	assert.Equal(t, int64(1), update.Completed)
	assert.Equal(t, int64(1), update.FinishedCount)
}

func TestCollector_Timings(t *testing.T) {
	c := NewCollector()

	c.TaskStarted("scrape")
	c.TaskStarted("scrape")
	c.TaskStarted("scrape")
	c.TaskFinished("scrape", models.StatusCompleted, 100*time.Millisecond)
	c.TaskFinished("scrape", models.StatusCompleted, 300*time.Millisecond)
	c.TaskFinished("scrape", models.StatusFailed, 200*time.Millisecond)

	snap := c.Snapshot().PerType["scrape"]
	assert.Equal(t, int64(600), snap.TotalTimeMs)
	assert.InDelta(t, 200.0, snap.AvgTimeMs, 0.001)
	assert.Equal(t, int64(100), snap.MinTimeMs)
	assert.Equal(t, int64(300), snap.MaxTimeMs)
}

func TestCollector_NoFinishedTasks(t *testing.T) {
	c := NewCollector()
	c.TaskStarted("scrape")

	snap := c.Snapshot().PerType["scrape"]
	assert.Equal(t, int64(1), snap.Started)
	assert.Equal(t, int64(0), snap.FinishedCount)
	// The min-time sentinel must not leak into the snapshot.
	assert.Equal(t, int64(0), snap.MinTimeMs)
	assert.Equal(t, float64(0), snap.AvgTimeMs)
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.TaskStarted("scrape")
				c.TaskFinished("scrape", models.StatusCompleted, time.Millisecond)
				c.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot().PerType["scrape"]
	assert.Equal(t, int64(500), snap.Started)
	assert.Equal(t, int64(500), snap.Completed)
}
