// Package metrics provides in-memory runtime statistics for task
// execution.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
)

// TypeMetrics holds aggregated metrics for a single task type.
type TypeMetrics struct {
	Started   int64
	Completed int64
	Failed    int64
	Cancelled int64

	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// TypeSnapshot provides computed stats from raw metrics.
type TypeSnapshot struct {
	Started   int64
	Completed int64
	Failed    int64
	Cancelled int64

	FinishedCount int64
	TotalTimeMs   int64
	AvgTimeMs     float64
	MinTimeMs     int64
	MaxTimeMs     int64
}

// Snapshot represents the full runner statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	PerType       map[string]TypeSnapshot
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	types     map[string]*TypeMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		types:     make(map[string]*TypeMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for a task
// type. Caller must hold write lock.
func (c *Collector) getOrCreate(taskType string) *TypeMetrics {
	m, ok := c.types[taskType]
	if !ok {
		m = &TypeMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.types[taskType] = m
	}
	return m
}

// TaskStarted records a task dispatch.
func (c *Collector) TaskStarted(taskType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(taskType).Started++
}

// TaskFinished records a terminal transition and the task's run time.
func (c *Collector) TaskFinished(taskType string, status models.TaskStatus, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(taskType)
	switch status {
	case models.StatusCompleted:
		m.Completed++
	case models.StatusFailed:
		m.Failed++
	case models.StatusCancelled:
		m.Cancelled++
	}

	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotType creates a snapshot for a task type, returning a zero
// value if no data.
func snapshotType(m *TypeMetrics) TypeSnapshot {
	snap := TypeSnapshot{
		Started:   m.Started,
		Completed: m.Completed,
		Failed:    m.Failed,
		Cancelled: m.Cancelled,
	}
	snap.FinishedCount = m.Completed + m.Failed + m.Cancelled
	if snap.FinishedCount == 0 {
		return snap
	}

	snap.TotalTimeMs = m.TotalTime.Milliseconds()
	snap.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(snap.FinishedCount)
	snap.MinTimeMs = m.MinTime.Milliseconds()
	snap.MaxTimeMs = m.MaxTime.Milliseconds()
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	perType := make(map[string]TypeSnapshot, len(c.types))
	for taskType, m := range c.types {
		perType[taskType] = snapshotType(m)
	}

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		PerType:       perType,
	}
}
