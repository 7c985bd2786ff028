// Package memory provides in-memory persistence for development/testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/seoscout/marketintel/internal/intel"
)

// ReportStore keeps audits and reports in process memory.
type ReportStore struct {
	mu      sync.RWMutex
	audits  map[string]intel.Audit
	reports map[string]intel.Report
}

// NewReportStore constructs a ReportStore.
func NewReportStore() *ReportStore {
	return &ReportStore{
		audits:  make(map[string]intel.Audit),
		reports: make(map[string]intel.Report),
	}
}

// CreateAudit stores a new audit in queued status.
func (s *ReportStore) CreateAudit(_ context.Context, audit intel.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.audits[audit.ID]; exists {
		return errors.New("audit already exists")
	}
	s.audits[audit.ID] = audit
	return nil
}

// UpdateAuditStatus updates the lifecycle state for an audit.
func (s *ReportStore) UpdateAuditStatus(_ context.Context, auditID string, status intel.AuditStatus, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	audit, ok := s.audits[auditID]
	if !ok {
		return intel.ErrAuditNotFound
	}
	audit.Status = status
	audit.ErrorText = errText
	now := time.Now().UTC()
	if status == intel.AuditStatusRunning && audit.Started == nil {
		audit.Started = pointerTime(now)
	}
	if isTerminal(status) {
		audit.Finished = pointerTime(now)
	}
	s.audits[auditID] = audit
	return nil
}

// SaveReport stores the structured report for an audit.
func (s *ReportStore) SaveReport(_ context.Context, report intel.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.AuditID] = report
	return nil
}

// GetAudit fetches an audit by ID.
func (s *ReportStore) GetAudit(_ context.Context, auditID string) (intel.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.audits[auditID]
	if !ok {
		return intel.Audit{}, intel.ErrAuditNotFound
	}
	return audit, nil
}

// GetReport fetches the report for an audit.
func (s *ReportStore) GetReport(_ context.Context, auditID string) (intel.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[auditID]
	if !ok {
		return intel.Report{}, intel.ErrReportNotFound
	}
	return report, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}

func isTerminal(status intel.AuditStatus) bool {
	switch status {
	case intel.AuditStatusSucceeded, intel.AuditStatusFailed, intel.AuditStatusCanceled:
		return true
	default:
		return false
	}
}
