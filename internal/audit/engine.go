// Package audit orchestrates the research pipeline for one audit run:
// locale expansion, competitor discovery, traffic profiling, keyword gap,
// pillar classification, and the homepage snapshot.
package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoscout/marketintel/internal/discovery"
	"github.com/seoscout/marketintel/internal/gap"
	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/locale"
	"github.com/seoscout/marketintel/internal/pillar"
	"github.com/seoscout/marketintel/internal/profiler"
)

// DefaultSeedCount is how many seed keywords feed the volume and
// difficulty lookups.
const DefaultSeedCount = 10

// ErrDomainRequired is the one input validation error the engine raises.
// Everything else degrades.
var ErrDomainRequired = errors.New("audit: domain is required")

// Config tunes the pipeline.
type Config struct {
	NearbyLocales int
	SeedCount     int
}

// Engine runs the full research pipeline. It is read-only with respect to
// any durable store; persisting the result belongs to the caller.
type Engine struct {
	source    intel.DataSource
	discovery *discovery.Engine
	profiler  *profiler.Profiler
	prober    intel.SiteProber
	clock     intel.Clock
	cfg       Config
	logger    *zap.Logger
}

// New builds an Engine. The prober may be nil, in which case the report
// carries no homepage snapshot.
func New(
	source intel.DataSource,
	disc *discovery.Engine,
	prof *profiler.Profiler,
	prober intel.SiteProber,
	clock intel.Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if cfg.NearbyLocales <= 0 {
		cfg.NearbyLocales = locale.DefaultNearbyCount
	}
	if cfg.SeedCount <= 0 {
		cfg.SeedCount = DefaultSeedCount
	}
	return &Engine{
		source:    source,
		discovery: disc,
		profiler:  prof,
		prober:    prober,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one audit and returns the assembled report. A missing
// subject domain is the only hard failure; every external fetch degrades
// to partial data.
func (e *Engine) Run(ctx context.Context, auditID string, req intel.AuditRequest) (intel.Report, error) {
	domain := intel.NormalizeDomain(req.Domain)
	if domain == "" {
		return intel.Report{}, ErrDomainRequired
	}

	locales := locale.Expand(req.Location, e.cfg.NearbyLocales)
	locales = append(locales, locale.ExtractCities(req.Notes, locales)...)
	var primary intel.Locale
	if len(locales) > 0 {
		primary = locales[0]
	}

	targets := e.competitorTargets(ctx, domain, req, locales)

	subjectProfiles := e.profiler.Profile(ctx, []profiler.Target{{Domain: domain}}, primary)
	subject := subjectProfiles[0]

	all := e.profiler.Profile(ctx, targets, primary)
	var competitors, chains []intel.DomainProfile
	for _, prof := range all {
		if prof.LargeChain {
			chains = append(chains, prof)
		} else {
			competitors = append(competitors, prof)
		}
	}

	gaps := gap.Compute(subject.TopKeywords, competitors)

	seeds := intel.ServiceKeywordSeeds(req.Service, primary.City, e.cfg.SeedCount)
	var seedVolumes []intel.KeywordRecord
	var difficulty []intel.DifficultyScore
	var snapshot *intel.SiteSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := e.source.SearchVolumes(gctx, seeds, primary)
		if err != nil {
			e.logDegrade(auditID, "seed volume lookup failed", err)
			return nil
		}
		seedVolumes = records
		return nil
	})
	g.Go(func() error {
		scores, err := e.source.Difficulty(gctx, seeds, primary)
		if err != nil {
			e.logDegrade(auditID, "difficulty lookup failed", err)
			return nil
		}
		difficulty = scores
		return nil
	})
	if e.prober != nil {
		g.Go(func() error {
			snap, err := e.prober.Snapshot(gctx, domain)
			if err != nil {
				e.logDegrade(auditID, "homepage probe failed", err)
				return nil
			}
			snapshot = &snap
			return nil
		})
	}
	_ = g.Wait()

	pillars := pillar.Classify(req.Service, pillarInput(seedVolumes, gaps))

	return intel.Report{
		AuditID:      auditID,
		Domain:       domain,
		Service:      req.Service,
		Locales:      locales,
		Subject:      subject,
		Competitors:  competitors,
		Chains:       chains,
		MarketLeader: profiler.MarketLeader(competitors),
		Gap:          gaps,
		Pillars:      pillars,
		SeedVolumes:  seedVolumes,
		Difficulty:   difficulty,
		Snapshot:     snapshot,
		GeneratedAt:  e.clock.Now(),
	}, nil
}

// competitorTargets resolves the profiling targets: explicit competitor
// domains win; otherwise discovery runs across the locale set.
func (e *Engine) competitorTargets(
	ctx context.Context,
	subject string,
	req intel.AuditRequest,
	locales []intel.Locale,
) []profiler.Target {
	if len(req.CompetitorDomains) > 0 {
		chains := intel.DefaultLargeChains()
		seen := map[string]struct{}{subject: {}}
		var targets []profiler.Target
		for _, raw := range req.CompetitorDomains {
			domain := intel.NormalizeDomain(raw)
			if domain == "" {
				continue
			}
			if _, dup := seen[domain]; dup {
				continue
			}
			seen[domain] = struct{}{}
			targets = append(targets, profiler.Target{
				Domain:     domain,
				LargeChain: chains.Matches(domain),
			})
		}
		return targets
	}

	result := e.discovery.Discover(ctx, req.Service, locales)
	targets := make([]profiler.Target, 0, len(result.Locals)+len(result.Chains))
	for _, c := range result.Locals {
		if c.Domain == subject {
			continue
		}
		targets = append(targets, profiler.Target{Domain: c.Domain, Locales: c.Locales})
	}
	for _, c := range result.Chains {
		targets = append(targets, profiler.Target{Domain: c.Domain, Locales: c.Locales, LargeChain: true})
	}
	return targets
}

// pillarInput merges seed volume records with gap keywords, preferring the
// seed record when a term appears in both.
func pillarInput(seeds []intel.KeywordRecord, gaps []intel.GapKeyword) []intel.KeywordRecord {
	seen := make(map[string]struct{}, len(seeds))
	records := make([]intel.KeywordRecord, 0, len(seeds)+len(gaps))
	for _, rec := range seeds {
		term := intel.NormalizeTerm(rec.Term)
		if term == "" {
			continue
		}
		seen[term] = struct{}{}
		records = append(records, rec)
	}
	for _, g := range gaps {
		if _, dup := seen[g.Term]; dup {
			continue
		}
		records = append(records, g.KeywordRecord)
	}
	return records
}

func (e *Engine) logDegrade(auditID, msg string, err error) {
	if intel.IsDegradable(err) {
		e.logger.Warn(msg, zap.String("audit_id", auditID), zap.Error(err))
		return
	}
	e.logger.Error(msg, zap.String("audit_id", auditID), zap.Error(err))
}
