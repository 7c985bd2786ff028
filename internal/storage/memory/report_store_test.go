package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seoscout/marketintel/internal/intel"
)

func TestReportStoreAuditLifecycle(t *testing.T) {
	t.Parallel()

	store := NewReportStore()
	ctx := context.Background()

	audit := intel.Audit{
		ID:        "a-1",
		Status:    intel.AuditStatusQueued,
		Submitted: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Request:   intel.AuditRequest{Domain: "acmeplumbing.com", Service: "plumbing"},
	}
	require.NoError(t, store.CreateAudit(ctx, audit))
	require.Error(t, store.CreateAudit(ctx, audit))

	require.NoError(t, store.UpdateAuditStatus(ctx, "a-1", intel.AuditStatusRunning, ""))
	got, err := store.GetAudit(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, intel.AuditStatusRunning, got.Status)
	require.NotNil(t, got.Started)
	require.Nil(t, got.Finished)

	require.NoError(t, store.UpdateAuditStatus(ctx, "a-1", intel.AuditStatusSucceeded, ""))
	got, err = store.GetAudit(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, intel.AuditStatusSucceeded, got.Status)
	require.NotNil(t, got.Finished)
}

func TestReportStoreFailureKeepsErrorText(t *testing.T) {
	t.Parallel()

	store := NewReportStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAudit(ctx, intel.Audit{ID: "a-2", Status: intel.AuditStatusQueued}))
	require.NoError(t, store.UpdateAuditStatus(ctx, "a-2", intel.AuditStatusFailed, "quota exceeded"))

	got, err := store.GetAudit(ctx, "a-2")
	require.NoError(t, err)
	require.Equal(t, "quota exceeded", got.ErrorText)
}

func TestReportStoreMissingAudit(t *testing.T) {
	t.Parallel()

	store := NewReportStore()
	ctx := context.Background()

	_, err := store.GetAudit(ctx, "missing")
	require.ErrorIs(t, err, intel.ErrAuditNotFound)
	require.ErrorIs(t, store.UpdateAuditStatus(ctx, "missing", intel.AuditStatusRunning, ""), intel.ErrAuditNotFound)
}

func TestReportStoreSaveAndGetReport(t *testing.T) {
	t.Parallel()

	store := NewReportStore()
	ctx := context.Background()

	_, err := store.GetReport(ctx, "a-3")
	require.ErrorIs(t, err, intel.ErrReportNotFound)

	report := intel.Report{AuditID: "a-3", Domain: "acmeplumbing.com", Service: "plumbing"}
	require.NoError(t, store.SaveReport(ctx, report))

	got, err := store.GetReport(ctx, "a-3")
	require.NoError(t, err)
	require.Equal(t, "acmeplumbing.com", got.Domain)
}
