// SPDX-License-Identifier: MIT

// Package health aggregates named component checks into the /health
// surface. A degraded component is reported in details while the
// service keeps serving; only a dead server flips success to false.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status grades one component check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker probes one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) CheckResult
}

func (c CheckerFunc) Name() string                          { return c.CheckerName }
func (c CheckerFunc) Check(ctx context.Context) CheckResult { return c.Fn(ctx) }

// Report is the aggregate outcome of a health pass.
type Report struct {
	Status    Status                 `json:"status"`
	Running   bool                   `json:"server_running"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Manager holds the registered checkers and the server-running flag.
type Manager struct {
	mu       sync.RWMutex
	version  string
	running  bool
	checkers []Checker
}

// NewManager creates a manager. The server is considered not running
// until SetRunning(true).
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// Register adds a component checker.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// SetRunning flips the server-running flag. Startup sets it once the
// listener accepts; shutdown clears it before draining.
func (m *Manager) SetRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = running
}

// Running reports the server-running flag.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Check runs every registered checker and folds the results.
func (m *Manager) Check(ctx context.Context) Report {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	running := m.running
	version := m.version
	m.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Running:   running,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
	if !running {
		report.Status = StatusUnhealthy
	}
	if len(checkers) == 0 {
		return report
	}

	report.Checks = make(map[string]CheckResult, len(checkers))
	for _, c := range checkers {
		result := m.run(ctx, c)
		report.Checks[c.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	if !running {
		report.Status = StatusUnhealthy
	}
	return report
}

// run contains checker panics so one broken probe cannot take down the
// health endpoint.
func (m *Manager) run(ctx context.Context, c Checker) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("checker panicked: %v", r),
			}
		}
	}()
	return c.Check(ctx)
}
