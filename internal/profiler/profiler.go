// Package profiler enriches discovered competitor domains with traffic and
// ranked-keyword data.
package profiler

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoscout/marketintel/internal/intel"
)

// SparseThreshold is the ranked-keyword count below which the fallback
// source is consulted.
const SparseThreshold = 3

// DefaultKeywordLimit bounds the ranked-keyword sample per domain.
const DefaultKeywordLimit = 200

// Target is one domain to profile, carrying the discovery breadth signal.
type Target struct {
	Domain     string
	Locales    []string
	LargeChain bool
}

// Profiler fetches per-domain overview and keyword data concurrently
// across all targets.
type Profiler struct {
	source       intel.DataSource
	fallback     intel.FallbackSource
	curve        intel.CTRCurve
	keywordLimit int
	logger       *zap.Logger
}

// New builds a Profiler. The fallback source may be nil, in which case
// sparse results stand as-is.
func New(source intel.DataSource, fallback intel.FallbackSource, logger *zap.Logger) *Profiler {
	return &Profiler{
		source:       source,
		fallback:     fallback,
		curve:        intel.DefaultCTRCurve,
		keywordLimit: DefaultKeywordLimit,
		logger:       logger,
	}
}

// WithKeywordLimit overrides the ranked-keyword sample size per domain.
func (p *Profiler) WithKeywordLimit(n int) *Profiler {
	if n > 0 {
		p.keywordLimit = n
	}
	return p
}

// Profile fetches every target concurrently and returns profiles sorted
// descending by estimated monthly traffic. A failed fetch degrades that
// one domain to an empty profile; the others proceed.
func (p *Profiler) Profile(ctx context.Context, targets []Target, loc intel.Locale) []intel.DomainProfile {
	if len(targets) == 0 {
		return nil
	}

	profiles := make([]intel.DomainProfile, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			profiles[i] = p.profileOne(gctx, target, loc)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].EstimatedMonthlyTraffic > profiles[j].EstimatedMonthlyTraffic
	})
	return profiles
}

// MarketLeader returns the top profile by traffic that is not a large
// chain, or "" when none qualifies.
func MarketLeader(profiles []intel.DomainProfile) string {
	for _, prof := range profiles {
		if !prof.LargeChain {
			return prof.Domain
		}
	}
	return ""
}

func (p *Profiler) profileOne(ctx context.Context, target Target, loc intel.Locale) intel.DomainProfile {
	domain := intel.NormalizeDomain(target.Domain)
	profile := intel.DomainProfile{
		Domain:              domain,
		DiscoveredInLocales: target.Locales,
		LargeChain:          target.LargeChain,
	}

	overview, err := p.source.Overview(ctx, domain, loc)
	if err != nil {
		p.logDegrade("overview fetch failed", domain, err)
		overview = intel.DomainOverview{}
	}

	records, err := p.source.RankedKeywords(ctx, domain, loc, p.keywordLimit)
	if err != nil {
		p.logDegrade("ranked keywords fetch failed", domain, err)
		records = nil
	}

	if len(records) < SparseThreshold && p.fallback != nil {
		fbRecords, fbErr := p.fallback.RankedKeywords(ctx, domain)
		switch {
		case fbErr != nil:
			p.logDegrade("fallback fetch failed", domain, fbErr)
		case len(fbRecords) > 0:
			// The secondary source replaces, never merges: it is assumed
			// more accurate for small local domains.
			records = fbRecords
			profile.UsedFallbackSource = true
		}
	}
	if len(records) > p.keywordLimit {
		records = records[:p.keywordLimit]
	}

	for i := range records {
		if records[i].TrafficEstimate == 0 && records[i].Rank > 0 && records[i].SearchVolume > 0 {
			records[i].TrafficEstimate = p.curve.EstimateTraffic(records[i].SearchVolume, records[i].Rank)
		}
	}
	profile.TopKeywords = records

	profile.TotalRankedKeywords = overview.TotalKeywords
	profile.EstimatedMonthlyTraffic = overview.EstimatedTraffic
	profile.EstimatedTrafficValue = overview.TrafficValue
	if profile.TotalRankedKeywords == 0 {
		profile.TotalRankedKeywords = len(records)
	}
	if profile.EstimatedMonthlyTraffic == 0 {
		for _, rec := range records {
			profile.EstimatedMonthlyTraffic += rec.TrafficEstimate
		}
	}
	if profile.EstimatedTrafficValue == 0 {
		for _, rec := range records {
			profile.EstimatedTrafficValue += rec.TrafficEstimate * rec.CPC
		}
	}
	return profile
}

func (p *Profiler) logDegrade(msg, domain string, err error) {
	if intel.IsDegradable(err) {
		p.logger.Warn(msg, zap.String("domain", domain), zap.Error(err))
		return
	}
	p.logger.Error(msg, zap.String("domain", domain), zap.Error(err))
}
