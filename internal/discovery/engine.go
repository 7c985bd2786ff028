// Package discovery finds genuine local competitor domains for a service
// across a set of locales.
package discovery

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoscout/marketintel/internal/intel"
)

// Defaults for the per-locale keep count and the final candidate cap.
const (
	DefaultPerLocale      = 4
	DefaultMaxCompetitors = 7
)

const searchDepth = 10

// Config tunes the engine. Zero values take the defaults above.
type Config struct {
	PerLocale      int
	MaxCompetitors int
}

// Candidate is a discovered competitor domain with its breadth signal.
type Candidate struct {
	Domain  string
	Locales []string
	Rating  float64
	Reviews int
}

// Result separates local competitors from national franchise chains.
// Locals are sorted by dominance; Chains keep encounter order and are
// never framed as the market leader.
type Result struct {
	Locals []Candidate
	Chains []Candidate
}

// Engine fans discovery searches out across locales and aggregates the
// filtered results into a dominance-ranked candidate list.
type Engine struct {
	source     intel.DataSource
	exclusions *intel.DomainMatcher
	chains     *intel.DomainMatcher
	cfg        Config
	logger     *zap.Logger
}

// New builds an Engine with the static exclusion and chain lists.
func New(source intel.DataSource, cfg Config, logger *zap.Logger) *Engine {
	if cfg.PerLocale <= 0 {
		cfg.PerLocale = DefaultPerLocale
	}
	if cfg.MaxCompetitors <= 0 {
		cfg.MaxCompetitors = DefaultMaxCompetitors
	}
	return &Engine{
		source:     source,
		exclusions: intel.DefaultExclusions(),
		chains:     intel.DefaultLargeChains(),
		cfg:        cfg,
		logger:     logger,
	}
}

// Discover searches "{service} {city}" in every locale concurrently and
// returns the aggregated candidates. A failed locale degrades to zero
// results for that locale; the others proceed.
func (e *Engine) Discover(ctx context.Context, service string, locales []intel.Locale) Result {
	if service == "" || len(locales) == 0 {
		return Result{}
	}

	perLocale := make([][]Candidate, len(locales))
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locales {
		g.Go(func() error {
			perLocale[i] = e.searchLocale(gctx, service, loc)
			return nil
		})
	}
	// Goroutines report failures by leaving their slot empty.
	_ = g.Wait()

	return e.aggregate(perLocale)
}

// searchLocale issues the local-pack and organic searches for one locale
// and returns the first PerLocale filtered domains in provider order.
func (e *Engine) searchLocale(ctx context.Context, service string, loc intel.Locale) []Candidate {
	keyword := service + " " + loc.City

	local, err := e.source.Search(ctx, keyword, loc, intel.ResultKindLocal, searchDepth)
	if err != nil {
		e.logDegrade("local search failed", loc, err)
		local = nil
	}
	organic, err := e.source.Search(ctx, keyword, loc, intel.ResultKindOrganic, searchDepth)
	if err != nil {
		e.logDegrade("organic search failed", loc, err)
		organic = nil
	}

	seen := make(map[string]struct{})
	var kept []Candidate
	for _, res := range append(local, organic...) {
		if len(kept) >= e.cfg.PerLocale {
			break
		}
		domain := intel.NormalizeDomain(res.Domain)
		if domain == "" || e.exclusions.Matches(domain) {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		kept = append(kept, Candidate{
			Domain:  domain,
			Locales: []string{loc.City},
			Rating:  res.Rating,
			Reviews: res.Reviews,
		})
	}
	return kept
}

// aggregate unions the per-locale candidate sets, ranks local domains by
// how many distinct locales they appeared in, and truncates to the cap.
// Ties retain encounter order; the sort must stay stable for that.
func (e *Engine) aggregate(perLocale [][]Candidate) Result {
	byDomain := make(map[string]*Candidate)
	var order []string
	for _, candidates := range perLocale {
		for _, c := range candidates {
			existing, ok := byDomain[c.Domain]
			if !ok {
				copied := c
				byDomain[c.Domain] = &copied
				order = append(order, c.Domain)
				continue
			}
			existing.Locales = append(existing.Locales, c.Locales...)
			if existing.Rating == 0 {
				existing.Rating = c.Rating
				existing.Reviews = c.Reviews
			}
		}
	}

	var locals, chains []Candidate
	for _, domain := range order {
		c := *byDomain[domain]
		if e.chains.Matches(domain) {
			chains = append(chains, c)
		} else {
			locals = append(locals, c)
		}
	}

	sort.SliceStable(locals, func(i, j int) bool {
		return len(locals[i].Locales) > len(locals[j].Locales)
	})
	if len(locals) > e.cfg.MaxCompetitors {
		locals = locals[:e.cfg.MaxCompetitors]
	}
	return Result{Locals: locals, Chains: chains}
}

func (e *Engine) logDegrade(msg string, loc intel.Locale, err error) {
	if intel.IsDegradable(err) {
		e.logger.Warn(msg, zap.String("locale", loc.Name()), zap.Error(err))
		return
	}
	e.logger.Error(msg, zap.String("locale", loc.Name()), zap.Error(err))
}
