package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/discovery"
	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/profiler"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// stubSource serves the whole pipeline from canned data.
type stubSource struct {
	serp       map[string][]intel.SERPResult
	ranked     map[string][]intel.KeywordRecord
	overviews  map[string]intel.DomainOverview
	volumes    []intel.KeywordRecord
	difficulty []intel.DifficultyScore
}

func (s *stubSource) Search(_ context.Context, _ string, loc intel.Locale, kind intel.ResultKind, _ int) ([]intel.SERPResult, error) {
	return s.serp[loc.City+"|"+string(kind)], nil
}

func (s *stubSource) SearchVolumes(context.Context, []string, intel.Locale) ([]intel.KeywordRecord, error) {
	return s.volumes, nil
}

func (s *stubSource) RankedKeywords(_ context.Context, domain string, _ intel.Locale, _ int) ([]intel.KeywordRecord, error) {
	return s.ranked[domain], nil
}

func (s *stubSource) Overview(_ context.Context, domain string, _ intel.Locale) (intel.DomainOverview, error) {
	return s.overviews[domain], nil
}

func (s *stubSource) Difficulty(context.Context, []string, intel.Locale) ([]intel.DifficultyScore, error) {
	return s.difficulty, nil
}

type stubProber struct {
	snap intel.SiteSnapshot
	err  error
}

func (s *stubProber) Snapshot(context.Context, string) (intel.SiteSnapshot, error) {
	return s.snap, s.err
}

func newEngine(src *stubSource, prober intel.SiteProber) *Engine {
	logger := zap.NewNop()
	return New(
		src,
		discovery.New(src, discovery.Config{}, logger),
		profiler.New(src, nil, logger),
		prober,
		fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Config{},
		logger,
	)
}

func serp(domains ...string) []intel.SERPResult {
	out := make([]intel.SERPResult, len(domains))
	for i, d := range domains {
		out[i] = intel.SERPResult{Rank: i + 1, Domain: d}
	}
	return out
}

func TestRunRequiresDomain(t *testing.T) {
	t.Parallel()

	e := newEngine(&stubSource{}, nil)
	_, err := e.Run(context.Background(), "a-1", intel.AuditRequest{Service: "plumbing"})
	require.ErrorIs(t, err, ErrDomainRequired)
}

func TestRunFullPipeline(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		serp: map[string][]intel.SERPResult{
			"Gilbert|local":  serp("bestplumbing.com", "rotorooter.com", "yelp.com"),
			"Chandler|local": serp("bestplumbing.com"),
		},
		ranked: map[string][]intel.KeywordRecord{
			"acmeplumbing.com": {
				{Term: "plumber gilbert az", SearchVolume: 320, Rank: 6},
				{Term: "gilbert plumbing company", SearchVolume: 40, Rank: 9},
				{Term: "acme plumbing", SearchVolume: 30, Rank: 1},
			},
			"bestplumbing.com": {
				{Term: "plumber gilbert az", SearchVolume: 320, Rank: 1},
				{Term: "emergency plumber gilbert az", SearchVolume: 90, CPC: 12.50, Rank: 3},
				{Term: "water heater repair gilbert", SearchVolume: 140, CPC: 9.75, Rank: 2},
			},
			"rotorooter.com": {
				{Term: "drain cleaning", SearchVolume: 5000, Rank: 4},
				{Term: "rooter service", SearchVolume: 800, Rank: 1},
				{Term: "sewer repair", SearchVolume: 900, Rank: 5},
			},
		},
		overviews: map[string]intel.DomainOverview{
			"bestplumbing.com": {TotalKeywords: 412, EstimatedTraffic: 1530, TrafficValue: 8900},
			"rotorooter.com":   {TotalKeywords: 90000, EstimatedTraffic: 250000, TrafficValue: 1200000},
		},
		volumes: []intel.KeywordRecord{
			{Term: "plumbing gilbert", SearchVolume: 320, CPC: 14.2, Competition: intel.CompetitionHigh},
		},
		difficulty: []intel.DifficultyScore{{Term: "plumbing gilbert", Difficulty: 42}},
	}
	prober := &stubProber{snap: intel.SiteSnapshot{URL: "https://acmeplumbing.com", StatusCode: 200, Title: "Acme"}}
	e := newEngine(src, prober)

	rep, err := e.Run(context.Background(), "a-1", intel.AuditRequest{
		Domain:   "https://www.acmeplumbing.com/",
		Service:  "plumbing",
		Location: "Gilbert, AZ",
	})
	require.NoError(t, err)

	require.Equal(t, "a-1", rep.AuditID)
	require.Equal(t, "acmeplumbing.com", rep.Domain)
	require.Len(t, rep.Locales, 5)
	require.Equal(t, "Gilbert", rep.Locales[0].City)

	require.Equal(t, "acmeplumbing.com", rep.Subject.Domain)
	require.Len(t, rep.Subject.TopKeywords, 3)

	// The chain is profiled but kept out of the competitor table and the
	// market-leader framing.
	require.Len(t, rep.Competitors, 1)
	require.Equal(t, "bestplumbing.com", rep.Competitors[0].Domain)
	require.Len(t, rep.Chains, 1)
	require.Equal(t, "rotorooter.com", rep.Chains[0].Domain)
	require.Equal(t, "bestplumbing.com", rep.MarketLeader)

	// Gap excludes the shared term and keeps competitor-only rankings.
	terms := make([]string, len(rep.Gap))
	for i, g := range rep.Gap {
		terms[i] = g.Term
	}
	require.Equal(t, []string{"water heater repair gilbert", "emergency plumber gilbert az"}, terms)

	require.NotEmpty(t, rep.Pillars)
	require.Equal(t, src.volumes, rep.SeedVolumes)
	require.Equal(t, src.difficulty, rep.Difficulty)
	require.NotNil(t, rep.Snapshot)
	require.Equal(t, "Acme", rep.Snapshot.Title)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), rep.GeneratedAt)
}

func TestRunExplicitCompetitorsSkipDiscovery(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"rival.com": {{Term: "a"}, {Term: "b"}, {Term: "c"}},
		},
	}
	e := newEngine(src, nil)

	rep, err := e.Run(context.Background(), "a-2", intel.AuditRequest{
		Domain:            "acmeplumbing.com",
		Service:           "plumbing",
		Location:          "Gilbert, AZ",
		CompetitorDomains: []string{"www.rival.com", "rival.com", "acmeplumbing.com", "rotorooter.com"},
	})
	require.NoError(t, err)

	require.Len(t, rep.Competitors, 1)
	require.Equal(t, "rival.com", rep.Competitors[0].Domain)
	require.Len(t, rep.Chains, 1)
	require.Equal(t, "rotorooter.com", rep.Chains[0].Domain)
}

func TestRunNotesExtendLocales(t *testing.T) {
	t.Parallel()

	e := newEngine(&stubSource{}, nil)
	rep, err := e.Run(context.Background(), "a-3", intel.AuditRequest{
		Domain:   "acmeplumbing.com",
		Service:  "plumbing",
		Location: "Gilbert, AZ",
		Notes:    "Owner also wants to grow in Boise, ID next year.",
	})
	require.NoError(t, err)

	last := rep.Locales[len(rep.Locales)-1]
	require.Equal(t, "Boise", last.City)
	require.Equal(t, "Idaho", last.Region)
}

func TestRunDegradesWhenEverythingFails(t *testing.T) {
	t.Parallel()

	e := newEngine(&stubSource{}, &stubProber{err: &intel.TransportError{Err: context.DeadlineExceeded}})
	rep, err := e.Run(context.Background(), "a-4", intel.AuditRequest{
		Domain:   "acmeplumbing.com",
		Service:  "plumbing",
		Location: "Smalltown, ZZ",
	})
	require.NoError(t, err)
	require.Empty(t, rep.Competitors)
	require.Empty(t, rep.Gap)
	require.Nil(t, rep.Snapshot)
	require.Len(t, rep.Locales, 1)
}
