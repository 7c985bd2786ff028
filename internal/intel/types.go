// Package intel defines core types shared across the audit pipeline.
package intel

import "time"

// CompetitionLevel is the paid-competition bucket reported by the keyword data source.
type CompetitionLevel string

// Competition levels as reported by the provider. Empty means unknown.
const (
	CompetitionLow    CompetitionLevel = "LOW"
	CompetitionMedium CompetitionLevel = "MEDIUM"
	CompetitionHigh   CompetitionLevel = "HIGH"
)

// Locale is a resolved city/region/country triple used to scope data source queries.
type Locale struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Name renders the locale in the provider's location_name format,
// e.g. "Gilbert,Arizona,United States". A locale with no region renders
// as the bare city.
func (l Locale) Name() string {
	if l.Region == "" {
		return l.City
	}
	country := l.Country
	if country == "" {
		country = "United States"
	}
	return l.City + "," + l.Region + "," + country
}

// KeywordRecord is a single ranked or candidate search term.
// Zero values mean "unknown": a Rank of 0 means the domain holds no
// tracked position, a CPC of 0 means no bid data.
type KeywordRecord struct {
	Term            string           `json:"term"`
	SearchVolume    int              `json:"search_volume"`
	CPC             float64          `json:"cpc,omitempty"`
	Competition     CompetitionLevel `json:"competition,omitempty"`
	Rank            int              `json:"rank,omitempty"`
	TrafficEstimate float64          `json:"traffic_estimate,omitempty"`
}

// ResultKind selects which SERP surface a search queries.
type ResultKind string

// Supported SERP surfaces.
const (
	ResultKindLocal   ResultKind = "local"
	ResultKindOrganic ResultKind = "organic"
)

// SERPResult is one entry from a local-pack or organic search.
type SERPResult struct {
	Rank        int     `json:"rank"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Domain      string  `json:"domain"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Reviews     int     `json:"reviews,omitempty"`
}

// DomainOverview holds aggregate visibility metrics for one domain.
type DomainOverview struct {
	TotalKeywords    int     `json:"total_keywords"`
	EstimatedTraffic float64 `json:"estimated_traffic"`
	TrafficValue     float64 `json:"traffic_value"`
}

// DomainProfile is the enriched picture of one competitor or subject domain.
// It is built fresh per audit run and never persisted on its own.
type DomainProfile struct {
	Domain                  string          `json:"domain"`
	TotalRankedKeywords     int             `json:"total_ranked_keywords"`
	EstimatedMonthlyTraffic float64         `json:"estimated_monthly_traffic"`
	EstimatedTrafficValue   float64         `json:"estimated_traffic_value"`
	TopKeywords             []KeywordRecord `json:"top_keywords"`
	DiscoveredInLocales     []string        `json:"discovered_in_locales,omitempty"`
	LargeChain              bool            `json:"large_chain,omitempty"`
	UsedFallbackSource      bool            `json:"used_fallback_source,omitempty"`
}

// GapKeyword is a keyword a competitor ranks for that the subject does not.
type GapKeyword struct {
	KeywordRecord
	SourceDomain string `json:"source_domain"`
	SourceRank   int    `json:"source_rank,omitempty"`
}

// PillarBucket groups keywords under one service sub-topic.
type PillarBucket struct {
	Name                string           `json:"name"`
	Members             []KeywordRecord  `json:"members"`
	TotalVolume         int              `json:"total_volume"`
	AverageCPC          float64          `json:"average_cpc"`
	DominantCompetition CompetitionLevel `json:"dominant_competition,omitempty"`
	AnnualAdValue       float64          `json:"annual_ad_value"`
}

// DifficultyScore is a 0-100 ranking-difficulty estimate for one term.
type DifficultyScore struct {
	Term       string `json:"term"`
	Difficulty int    `json:"difficulty"`
}

// SiteSnapshot captures the on-page basics of the subject's homepage.
type SiteSnapshot struct {
	URL             string   `json:"url"`
	StatusCode      int      `json:"status_code"`
	Title           string   `json:"title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Headings        []string `json:"headings,omitempty"`
}

// AuditRequest is the caller-supplied input for one audit run.
type AuditRequest struct {
	Domain            string   `json:"domain"`
	Service           string   `json:"service"`
	Location          string   `json:"location"`
	CompetitorDomains []string `json:"competitor_domains,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// AuditStatus represents the lifecycle state of an audit job.
type AuditStatus string

// Audit status values persisted in the report store.
const (
	AuditStatusQueued    AuditStatus = "queued"
	AuditStatusRunning   AuditStatus = "running"
	AuditStatusSucceeded AuditStatus = "succeeded"
	AuditStatusFailed    AuditStatus = "failed"
	AuditStatusCanceled  AuditStatus = "canceled"
)

// Audit is the metadata persisted for each submitted audit request.
type Audit struct {
	ID        string       `json:"id"`
	Status    AuditStatus  `json:"status"`
	Submitted time.Time    `json:"submitted_at"`
	Started   *time.Time   `json:"started_at,omitempty"`
	Finished  *time.Time   `json:"finished_at,omitempty"`
	ErrorText string       `json:"error_text,omitempty"`
	Request   AuditRequest `json:"request"`
}

// Report is the full structured output of one audit run.
type Report struct {
	AuditID      string            `json:"audit_id"`
	Domain       string            `json:"domain"`
	Service      string            `json:"service"`
	Locales      []Locale          `json:"locales,omitempty"`
	Subject      DomainProfile     `json:"subject"`
	Competitors  []DomainProfile   `json:"competitors,omitempty"`
	Chains       []DomainProfile   `json:"chains,omitempty"`
	MarketLeader string            `json:"market_leader,omitempty"`
	Gap          []GapKeyword      `json:"gap,omitempty"`
	Pillars      []PillarBucket    `json:"pillars,omitempty"`
	SeedVolumes  []KeywordRecord   `json:"seed_volumes,omitempty"`
	Difficulty   []DifficultyScore `json:"difficulty,omitempty"`
	Snapshot     *SiteSnapshot     `json:"snapshot,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// QueueItem wraps an audit ready to run.
type QueueItem struct {
	AuditID   string
	Request   AuditRequest
	Attempt   int
	Submitted int64
}
