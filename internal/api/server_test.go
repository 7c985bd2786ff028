package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/dispatcher"
	"github.com/seoscout/marketintel/internal/intel"
	queuemem "github.com/seoscout/marketintel/internal/queue/memory"
	storemem "github.com/seoscout/marketintel/internal/storage/memory"
)

type fixedID struct{ id string }

func (g fixedID) NewID() (string, error) { return g.id, nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*Server, *storemem.ReportStore, *queuemem.Queue) {
	t.Helper()
	store := storemem.NewReportStore()
	queue := queuemem.NewQueue(8)
	disp := dispatcher.New(queue, nil)
	srv := NewServer(
		store,
		disp,
		fixedID{id: "audit-1"},
		fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
	return srv, store, queue
}

func TestSubmitAuditAccepted(t *testing.T) {
	t.Parallel()

	srv, store, queue := newTestServer(t)
	body, err := json.Marshal(intel.AuditRequest{
		Domain:   "https://www.AcmePlumbing.com/",
		Service:  "Plumbing",
		Location: "Gilbert, AZ",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/audits", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "audit-1", resp["audit_id"])
	require.Equal(t, "queued", resp["status"])

	audit, err := store.GetAudit(t.Context(), "audit-1")
	require.NoError(t, err)
	require.Equal(t, intel.AuditStatusQueued, audit.Status)
	require.Equal(t, "acmeplumbing.com", audit.Request.Domain)
	require.Equal(t, "plumbing", audit.Request.Service)

	item, err := queue.Dequeue(t.Context())
	require.NoError(t, err)
	require.Equal(t, "audit-1", item.AuditID)
	require.Equal(t, 1, item.Attempt)
}

func TestSubmitAuditValidation(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad json", body: "{", want: "invalid JSON"},
		{name: "missing domain", body: `{"service":"plumbing"}`, want: "domain is required"},
		{name: "missing service", body: `{"domain":"acmeplumbing.com"}`, want: "service is required"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/v1/audits", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestGetAudit(t *testing.T) {
	t.Parallel()

	srv, store, _ := newTestServer(t)
	require.NoError(t, store.CreateAudit(t.Context(), intel.Audit{
		ID:     "a-9",
		Status: intel.AuditStatusRunning,
		Request: intel.AuditRequest{
			Domain:  "acmeplumbing.com",
			Service: "plumbing",
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/audits/a-9", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var audit intel.Audit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	require.Equal(t, intel.AuditStatusRunning, audit.Status)
	require.Equal(t, "acmeplumbing.com", audit.Request.Domain)
}

func TestGetAuditNotFound(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/audits/missing", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport(t *testing.T) {
	t.Parallel()

	srv, store, _ := newTestServer(t)
	require.NoError(t, store.SaveReport(t.Context(), intel.Report{
		AuditID:      "a-9",
		Domain:       "acmeplumbing.com",
		Service:      "plumbing",
		MarketLeader: "bestplumbing.com",
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/audits/a-9/report", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report intel.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, "bestplumbing.com", report.MarketLeader)
}

func TestGetReportNotFound(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/audits/missing/report", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
