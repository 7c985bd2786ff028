package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/metrics"
	"github.com/seoscout/marketintel/internal/report"
)

// WorkerConfig controls Worker behavior.
type WorkerConfig struct {
	ContentType    string
	ArtifactPrefix string
	Topic          string
}

// Worker consumes queued audits and executes the pipeline, persisting the
// report and publishing a completion event.
type Worker struct {
	queue     intel.Queue
	store     intel.ReportStore
	artifacts intel.ArtifactStore
	publisher intel.Publisher
	engine    *Engine
	clock     intel.Clock
	cfg       WorkerConfig
	logger    *zap.Logger
}

// NewWorker constructs a Worker. Artifact store and publisher may be nil;
// the corresponding steps are skipped.
func NewWorker(
	queue intel.Queue,
	store intel.ReportStore,
	artifacts intel.ArtifactStore,
	publisher intel.Publisher,
	engine *Engine,
	clock intel.Clock,
	cfg WorkerConfig,
	logger *zap.Logger,
) *Worker {
	if cfg.ContentType == "" {
		cfg.ContentType = "text/markdown; charset=utf-8"
	}
	return &Worker{
		queue:     queue,
		store:     store,
		artifacts: artifacts,
		publisher: publisher,
		engine:    engine,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued audit", zap.String("audit_id", item.AuditID))
		w.processAudit(ctx, item)
	}
}

func (w *Worker) processAudit(ctx context.Context, item intel.QueueItem) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	started := w.clock.Now()

	if err := w.store.UpdateAuditStatus(ctx, item.AuditID, intel.AuditStatusRunning, ""); err != nil {
		w.logger.Error("update audit status failed", zap.String("audit_id", item.AuditID), zap.Error(err))
		return
	}

	rep, err := w.engine.Run(ctx, item.AuditID, item.Request)
	if err != nil {
		status := intel.AuditStatusFailed
		if ctx.Err() != nil {
			status = intel.AuditStatusCanceled
		}
		w.finish(ctx, item.AuditID, status, err.Error(), started)
		return
	}

	if err := w.store.SaveReport(ctx, rep); err != nil {
		w.logger.Error("save report failed", zap.String("audit_id", item.AuditID), zap.Error(err))
		w.finish(ctx, item.AuditID, intel.AuditStatusFailed, err.Error(), started)
		return
	}

	artifactURI, err := w.saveArtifact(ctx, rep)
	if err != nil {
		// The structured report is already persisted; a lost rendering is
		// not a failed audit.
		w.logger.Warn("save artifact failed", zap.String("audit_id", item.AuditID), zap.Error(err))
	}

	w.publishResult(ctx, rep, artifactURI)
	w.finish(ctx, item.AuditID, intel.AuditStatusSucceeded, "", started)
}

func (w *Worker) saveArtifact(ctx context.Context, rep intel.Report) (string, error) {
	if w.artifacts == nil {
		return "", nil
	}
	path := w.buildArtifactPath(rep.AuditID)
	uri, err := w.artifacts.PutObject(ctx, path, w.cfg.ContentType, report.Render(rep))
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return uri, nil
}

func (w *Worker) buildArtifactPath(auditID string) string {
	prefix := strings.Trim(w.cfg.ArtifactPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/report.md", auditID)
	}
	return fmt.Sprintf("%s/%s/report.md", prefix, auditID)
}

func (w *Worker) publishResult(ctx context.Context, rep intel.Report, artifactURI string) {
	if w.cfg.Topic == "" || w.publisher == nil {
		return
	}
	payload := map[string]any{
		"audit_id":      rep.AuditID,
		"domain":        rep.Domain,
		"service":       rep.Service,
		"market_leader": rep.MarketLeader,
		"gap_keywords":  len(rep.Gap),
		"artifact_uri":  artifactURI,
		"timestamp":     w.clock.Now().Format(time.RFC3339),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		w.logger.Error("publish audit event failed", zap.String("audit_id", rep.AuditID), zap.Error(err))
		return
	}
	w.logger.Info("audit published",
		zap.String("audit_id", rep.AuditID),
		zap.String("domain", rep.Domain),
		zap.String("artifact_uri", artifactURI),
	)
}

func (w *Worker) finish(ctx context.Context, auditID string, status intel.AuditStatus, errText string, started time.Time) {
	if err := w.store.UpdateAuditStatus(ctx, auditID, status, errText); err != nil {
		w.logger.Error("final audit status update failed", zap.String("audit_id", auditID), zap.Error(err))
	}
	metrics.ObserveAudit(string(status), w.clock.Now().Sub(started))
}
