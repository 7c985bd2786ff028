// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seoscout/marketintel/internal/intel"
)

// ReportStoreConfig controls the Postgres connection pool.
type ReportStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// db is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ReportStore persists audit rows and their structured reports.
type ReportStore struct {
	pool db
}

// NewReportStore creates a Postgres-backed ReportStore using the provided config.
func NewReportStore(ctx context.Context, cfg ReportStoreConfig) (*ReportStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ReportStore{pool: pool}, nil
}

// NewReportStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewReportStoreWithPool(pool db) (*ReportStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ReportStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *ReportStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateAudit inserts the audit row in its initial state.
func (s *ReportStore) CreateAudit(ctx context.Context, audit intel.Audit) error {
	if audit.ID == "" {
		return fmt.Errorf("audit id is required")
	}
	requestJSON, err := json.Marshal(audit.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	query := `
INSERT INTO audits (id, status, submitted_at, request)
VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, audit.ID, string(audit.Status), audit.Submitted, requestJSON); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// UpdateAuditStatus transitions an audit's lifecycle state. Moving to
// running stamps started_at; any terminal status stamps finished_at.
func (s *ReportStore) UpdateAuditStatus(ctx context.Context, auditID string, status intel.AuditStatus, errText string) error {
	var query string
	switch status {
	case intel.AuditStatusRunning:
		query = `
UPDATE audits SET status = $2, error_text = $3, started_at = now()
WHERE id = $1`
	case intel.AuditStatusSucceeded, intel.AuditStatusFailed, intel.AuditStatusCanceled:
		query = `
UPDATE audits SET status = $2, error_text = $3, finished_at = now()
WHERE id = $1`
	default:
		query = `
UPDATE audits SET status = $2, error_text = $3
WHERE id = $1`
	}
	tag, err := s.pool.Exec(ctx, query, auditID, string(status), errText)
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("audit %s not found", auditID)
	}
	return nil
}

// SaveReport upserts the structured report for an audit.
func (s *ReportStore) SaveReport(ctx context.Context, report intel.Report) error {
	if report.AuditID == "" {
		return fmt.Errorf("audit id is required")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	query := `
INSERT INTO reports (audit_id, report, generated_at)
VALUES ($1, $2, $3)
ON CONFLICT (audit_id) DO UPDATE
SET report = EXCLUDED.report, generated_at = EXCLUDED.generated_at`
	if _, err := s.pool.Exec(ctx, query, report.AuditID, reportJSON, report.GeneratedAt); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetAudit fetches one audit row by id.
func (s *ReportStore) GetAudit(ctx context.Context, auditID string) (intel.Audit, error) {
	query := `
SELECT id, status, submitted_at, started_at, finished_at, error_text, request
FROM audits WHERE id = $1`

	var (
		audit       intel.Audit
		status      string
		errText     *string
		requestJSON []byte
	)
	row := s.pool.QueryRow(ctx, query, auditID)
	if err := row.Scan(&audit.ID, &status, &audit.Submitted, &audit.Started, &audit.Finished, &errText, &requestJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return intel.Audit{}, intel.ErrAuditNotFound
		}
		return intel.Audit{}, fmt.Errorf("select audit: %w", err)
	}
	audit.Status = intel.AuditStatus(status)
	if errText != nil {
		audit.ErrorText = *errText
	}
	if err := json.Unmarshal(requestJSON, &audit.Request); err != nil {
		return intel.Audit{}, fmt.Errorf("unmarshal request: %w", err)
	}
	return audit, nil
}

// GetReport fetches the structured report for an audit.
func (s *ReportStore) GetReport(ctx context.Context, auditID string) (intel.Report, error) {
	query := `SELECT report FROM reports WHERE audit_id = $1`

	var reportJSON []byte
	row := s.pool.QueryRow(ctx, query, auditID)
	if err := row.Scan(&reportJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return intel.Report{}, intel.ErrReportNotFound
		}
		return intel.Report{}, fmt.Errorf("select report: %w", err)
	}
	var report intel.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return intel.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}
