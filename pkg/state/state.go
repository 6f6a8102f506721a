// Package state records the outcome of past exports so that "gdexport status"
// can report them
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/process"
	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/types"
)

// ExportRecord is the persistent state of a project's exports
type ExportRecord struct {
	Project      string             `json:"project"`
	RunID        string             `json:"runId"`
	Status       types.ExportStatus `json:"status"`
	Phase        string             `json:"phase,omitempty"`
	Platforms    []types.Platform   `json:"platforms"`
	OutputDir    string             `json:"outputDir"`
	Compressed   bool               `json:"compressed,omitempty"`
	StartedAt    time.Time          `json:"startedAt"`
	Duration     time.Duration      `json:"duration,omitempty"`
	ExportCount  int                `json:"exportCount"`
	FailureCount int                `json:"failureCount"`
	Errors       []string           `json:"errors,omitempty"`
	ProcessID    int                `json:"processId"`
	Heartbeat    time.Time          `json:"heartbeat"`
}

// Manager reads and writes export records below a project directory
type Manager struct {
	stateDir string
	logger   logger.Logger
	mu       sync.RWMutex
	records  map[string]*ExportRecord
}

// NewManager creates a manager storing records in <root>/.gdexport/state
func NewManager(root string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	stateDir := filepath.Join(root, ".gdexport", "state")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		log.Error("Failed to create state directory", logger.WithField("error", err))
	}
	return &Manager{
		stateDir: stateDir,
		logger:   log,
		records:  make(map[string]*ExportRecord),
	}
}

// Begin records that an export of project started
func (m *Manager) Begin(project, runID string, req types.ExportRequest) (*ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := &ExportRecord{
		Project:    project,
		RunID:      runID,
		Status:     types.ExportStatusPending,
		Platforms:  append([]types.Platform(nil), req.Platforms...),
		OutputDir:  req.OutputDir,
		Compressed: req.CompressIfPossible,
		StartedAt:  time.Now(),
		ProcessID:  os.Getpid(),
		Heartbeat:  time.Now(),
	}

	// Counters survive across runs
	if existing, err := m.load(project); err == nil {
		record.ExportCount = existing.ExportCount
		record.FailureCount = existing.FailureCount
	}

	if err := m.save(record); err != nil {
		return nil, fmt.Errorf("failed to save export state: %w", err)
	}
	m.records[project] = record
	return record, nil
}

// Finish records the outcome of the running export of project
func (m *Manager) Finish(project string, status types.ExportStatus, phase string, duration time.Duration, errs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[project]
	if !ok {
		var err error
		if record, err = m.load(project); err != nil {
			return fmt.Errorf("export state not found: %s", project)
		}
		m.records[project] = record
	}

	// An interrupted run is already counted
	counted := record.Status != types.ExportStatusPending
	record.Status = status
	record.Phase = phase
	record.Duration = duration
	record.Errors = errs
	record.Heartbeat = time.Now()
	if counted {
		return m.save(record)
	}
	switch status {
	case types.ExportStatusSucceeded:
		record.ExportCount++
	case types.ExportStatusFailed:
		record.FailureCount++
	}
	return m.save(record)
}

// PhaseInterrupted is recorded for runs stopped by a signal
const PhaseInterrupted = "Interrupted"

// Interrupt marks the pending export of project as failed. It does nothing when no
// export of project is in progress in this process.
func (m *Manager) Interrupt(project string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[project]
	if !ok || record.Status != types.ExportStatusPending {
		return nil
	}
	record.Status = types.ExportStatusFailed
	record.Phase = PhaseInterrupted
	record.Duration = time.Since(record.StartedAt)
	record.Errors = append(record.Errors, "export interrupted")
	record.Heartbeat = time.Now()
	record.FailureCount++
	return m.save(record)
}

// Read returns the record of project
func (m *Manager) Read(project string) (*ExportRecord, error) {
	m.mu.RLock()
	if record, ok := m.records[project]; ok {
		m.mu.RUnlock()
		return record, nil
	}
	m.mu.RUnlock()
	return m.load(project)
}

// Remove deletes the record of project
func (m *Manager) Remove(project string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, project)
	if err := os.Remove(m.path(project)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// IsRunning reports whether another live process is exporting project
func (m *Manager) IsRunning(project string) (bool, error) {
	record, err := m.load(project)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if record.Status != types.ExportStatusPending || record.ProcessID == os.Getpid() {
		return false, nil
	}
	// A record without a recent heartbeat belongs to a crashed process
	if time.Since(record.Heartbeat) > 30*time.Second {
		return false, nil
	}
	return process.IsAlive(record.ProcessID), nil
}

// Touch refreshes the heartbeat of the running export of project
func (m *Manager) Touch(project string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[project]
	if !ok || record.Status != types.ExportStatusPending {
		return nil
	}
	record.Heartbeat = time.Now()
	return m.save(record)
}

// Discover returns every stored record, sorted by project name
func (m *Manager) Discover() ([]*ExportRecord, error) {
	files, err := os.ReadDir(m.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var records []*ExportRecord
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		record, err := m.readFile(filepath.Join(m.stateDir, file.Name()))
		if err != nil {
			m.logger.Warn("Failed to load state file",
				logger.WithField("file", file.Name()),
				logger.WithField("error", err))
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Project < records[j].Project })
	return records, nil
}

func (m *Manager) path(project string) string {
	return filepath.Join(m.stateDir, resources.SanitizeFilename(project)+".json")
}

func (m *Manager) load(project string) (*ExportRecord, error) {
	return m.readFile(m.path(project))
}

func (m *Manager) readFile(path string) (*ExportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record ExportRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &record, nil
}

func (m *Manager) save(record *ExportRecord) error {
	stateFile := m.path(record.Project)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tempFile, stateFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}
