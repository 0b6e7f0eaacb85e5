// Package sched manages scheduled dataset-update tasks: named schedule
// records persisted in a YAML file, plus an in-process cron daemon that
// re-enters the task tracker the same way an external cron job invoking
// the CLI would.
package sched

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Schedule types understood by CronExprFor.
const (
	ScheduleDaily    = "daily"
	ScheduleWeekly   = "weekly"
	ScheduleBiweekly = "biweekly"
	ScheduleMonthly  = "monthly"
	ScheduleCustom   = "custom"
)

// Schedule describes a recurring dataset-update task.
type Schedule struct {
	ID           string    `yaml:"id"`
	TaskType     string    `yaml:"task_type"`
	SourceType   string    `yaml:"source_type"` // "directory", "repository", ...
	SourceName   string    `yaml:"source_name"`
	DatasetName  string    `yaml:"dataset_name"`
	DatasetPath  string    `yaml:"dataset_path,omitempty"`
	ScheduleType string    `yaml:"schedule_type"`
	CronExpr     string    `yaml:"cron_expr"`
	CreatedAt    time.Time `yaml:"created_at"`
}

// Description renders the schedule for display.
func (s Schedule) Description() string {
	return fmt.Sprintf("%s %q from %s (%s: %s)", s.TaskType, s.DatasetName, s.SourceName, s.ScheduleType, s.CronExpr)
}

// CronExprFor maps a named schedule type to a five-field cron
// expression. For ScheduleCustom the caller supplies the expression.
func CronExprFor(scheduleType string) (string, error) {
	switch strings.ToLower(scheduleType) {
	case ScheduleDaily:
		return "0 2 * * *", nil
	case ScheduleWeekly:
		return "0 3 * * 0", nil
	case ScheduleBiweekly:
		return "0 3 1,15 * *", nil
	case ScheduleMonthly:
		return "0 4 1 * *", nil
	default:
		return "", fmt.Errorf("unknown schedule type: %s", scheduleType)
	}
}

// ValidateCronExpr checks a five-field cron expression.
func ValidateCronExpr(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

// Manager persists schedules in a YAML file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a manager backed by the YAML file at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// List returns all schedules. A missing file means no schedules.
func (m *Manager) List() ([]Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// Get returns the schedule with the given id, or nil if unknown.
func (m *Manager) Get(id string) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.load()
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		if schedules[i].ID == id {
			return &schedules[i], nil
		}
	}
	return nil, nil
}

// Create validates and stores a new schedule, returning its id. For
// non-custom schedule types the cron expression is derived; for
// ScheduleCustom the caller-provided expression is validated.
func (m *Manager) Create(s Schedule) (string, error) {
	if s.TaskType == "" || s.SourceName == "" || s.DatasetName == "" {
		return "", fmt.Errorf("task type, source name and dataset name are required")
	}

	if err := resolveCron(&s); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.load()
	if err != nil {
		return "", err
	}

	s.ID = uuid.New().String()[:8]
	s.CreatedAt = time.Now().UTC()
	schedules = append(schedules, s)

	if err := m.save(schedules); err != nil {
		return "", err
	}
	return s.ID, nil
}

// UpdateSchedule changes the schedule type (and cron expression, for
// custom schedules) of an existing record. Returns false if the id is
// unknown.
func (m *Manager) UpdateSchedule(id, scheduleType, cronExpr string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.load()
	if err != nil {
		return false, err
	}

	for i := range schedules {
		if schedules[i].ID != id {
			continue
		}
		schedules[i].ScheduleType = scheduleType
		schedules[i].CronExpr = cronExpr
		if err := resolveCron(&schedules[i]); err != nil {
			return false, err
		}
		if err := m.save(schedules); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Delete removes a schedule. Returns false if the id is unknown.
func (m *Manager) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.load()
	if err != nil {
		return false, err
	}

	kept := schedules[:0]
	found := false
	for _, s := range schedules {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return false, nil
	}
	return true, m.save(kept)
}

func resolveCron(s *Schedule) error {
	if strings.ToLower(s.ScheduleType) == ScheduleCustom {
		if s.CronExpr == "" {
			return fmt.Errorf("custom schedule requires a cron expression")
		}
		if err := ValidateCronExpr(s.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.CronExpr, err)
		}
		return nil
	}

	expr, err := CronExprFor(s.ScheduleType)
	if err != nil {
		return err
	}
	s.CronExpr = expr
	return nil
}

// scheduleFile is the on-disk envelope.
type scheduleFile struct {
	Schedules []Schedule `yaml:"schedules"`
}

func (m *Manager) load() ([]Schedule, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schedules: %w", err)
	}

	var doc scheduleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schedules: %w", err)
	}
	return doc.Schedules, nil
}

func (m *Manager) save(schedules []Schedule) error {
	data, err := yaml.Marshal(scheduleFile{Schedules: schedules})
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create schedules directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	return nil
}
