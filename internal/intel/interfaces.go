package intel

import (
	"context"
	"time"
)

// DataSource is the uniform contract over the primary SEO data provider.
// Every call is a single idempotent read. Implementations return the typed
// errors from errors.go; callers degrade failures to empty collections.
type DataSource interface {
	Search(ctx context.Context, keyword string, locale Locale, kind ResultKind, maxResults int) ([]SERPResult, error)
	SearchVolumes(ctx context.Context, keywords []string, locale Locale) ([]KeywordRecord, error)
	RankedKeywords(ctx context.Context, domain string, locale Locale, limit int) ([]KeywordRecord, error)
	Overview(ctx context.Context, domain string, locale Locale) (DomainOverview, error)
	Difficulty(ctx context.Context, keywords []string, locale Locale) ([]DifficultyScore, error)
}

// FallbackSource is the secondary provider consulted when the primary
// returns sparse ranked-keyword data for a domain.
type FallbackSource interface {
	RankedKeywords(ctx context.Context, domain string) ([]KeywordRecord, error)
}

// SiteProber fetches the subject's homepage for the on-page snapshot.
type SiteProber interface {
	Snapshot(ctx context.Context, domain string) (SiteSnapshot, error)
}

// ReportStore persists audit and report rows.
type ReportStore interface {
	CreateAudit(ctx context.Context, audit Audit) error
	UpdateAuditStatus(ctx context.Context, auditID string, status AuditStatus, errText string) error
	SaveReport(ctx context.Context, report Report) error
	GetAudit(ctx context.Context, auditID string) (Audit, error)
	GetReport(ctx context.Context, auditID string) (Report, error)
}

// ArtifactStore writes rendered report text and returns a URI.
type ArtifactStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for audit jobs.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces audit IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
