package profiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/intel"
)

type stubSource struct {
	overviews map[string]intel.DomainOverview
	ranked    map[string][]intel.KeywordRecord
	errs      map[string]error
}

func (s *stubSource) Search(context.Context, string, intel.Locale, intel.ResultKind, int) ([]intel.SERPResult, error) {
	return nil, nil
}

func (s *stubSource) SearchVolumes(context.Context, []string, intel.Locale) ([]intel.KeywordRecord, error) {
	return nil, nil
}

func (s *stubSource) RankedKeywords(_ context.Context, domain string, _ intel.Locale, _ int) ([]intel.KeywordRecord, error) {
	if err, ok := s.errs["ranked|"+domain]; ok {
		return nil, err
	}
	return s.ranked[domain], nil
}

func (s *stubSource) Overview(_ context.Context, domain string, _ intel.Locale) (intel.DomainOverview, error) {
	if err, ok := s.errs["overview|"+domain]; ok {
		return intel.DomainOverview{}, err
	}
	return s.overviews[domain], nil
}

func (s *stubSource) Difficulty(context.Context, []string, intel.Locale) ([]intel.DifficultyScore, error) {
	return nil, nil
}

type stubFallback struct {
	records map[string][]intel.KeywordRecord
	err     error
	calls   []string
}

func (s *stubFallback) RankedKeywords(_ context.Context, domain string) ([]intel.KeywordRecord, error) {
	s.calls = append(s.calls, domain)
	if s.err != nil {
		return nil, s.err
	}
	return s.records[domain], nil
}

var loc = intel.Locale{City: "Gilbert", Region: "Arizona", Country: "United States"}

func TestProfileSortsByTraffic(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		overviews: map[string]intel.DomainOverview{
			"small.com": {TotalKeywords: 40, EstimatedTraffic: 120},
			"big.com":   {TotalKeywords: 400, EstimatedTraffic: 2200},
		},
		ranked: map[string][]intel.KeywordRecord{
			"small.com": {{Term: "a", SearchVolume: 10, Rank: 1}, {Term: "b"}, {Term: "c"}},
			"big.com":   {{Term: "d", SearchVolume: 10, Rank: 1}, {Term: "e"}, {Term: "f"}},
		},
	}
	p := New(src, nil, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "small.com"}, {Domain: "big.com"}}, loc)
	require.Len(t, profiles, 2)
	require.Equal(t, "big.com", profiles[0].Domain)
	require.Equal(t, 2200.0, profiles[0].EstimatedMonthlyTraffic)
}

func TestProfileSparseTriggersFallbackReplace(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"tiny.com": {{Term: "only one", SearchVolume: 20, Rank: 5}},
		},
	}
	fb := &stubFallback{records: map[string][]intel.KeywordRecord{
		"tiny.com": {
			{Term: "plumber gilbert", SearchVolume: 260, Rank: 2},
			{Term: "drain cleaning gilbert", SearchVolume: 90, Rank: 4},
		},
	}}
	p := New(src, fb, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "tiny.com"}}, loc)
	require.Equal(t, []string{"tiny.com"}, fb.calls)
	require.True(t, profiles[0].UsedFallbackSource)
	// Replacement, not merge: the sparse primary record is gone.
	require.Len(t, profiles[0].TopKeywords, 2)
	require.Equal(t, "plumber gilbert", profiles[0].TopKeywords[0].Term)
}

func TestProfileSparseFallbackEmptyKeepsPrimary(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"tiny.com": {{Term: "only one", SearchVolume: 20, Rank: 5}},
		},
	}
	fb := &stubFallback{}
	p := New(src, fb, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "tiny.com"}}, loc)
	require.False(t, profiles[0].UsedFallbackSource)
	require.Len(t, profiles[0].TopKeywords, 1)
}

func TestProfileDenseSkipsFallback(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"dense.com": {{Term: "a"}, {Term: "b"}, {Term: "c"}},
		},
	}
	fb := &stubFallback{}
	p := New(src, fb, zap.NewNop())

	p.Profile(context.Background(), []Target{{Domain: "dense.com"}}, loc)
	require.Empty(t, fb.calls)
}

func TestProfileBackfillsTrafficFromCTRCurve(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"acme.com": {
				{Term: "rank one", SearchVolume: 100, Rank: 1},
				{Term: "provider value", SearchVolume: 100, Rank: 1, TrafficEstimate: 55},
				{Term: "deep rank", SearchVolume: 100, Rank: 15},
				{Term: "beyond tail", SearchVolume: 100, Rank: 25},
				{Term: "no rank", SearchVolume: 100},
			},
		},
	}
	p := New(src, nil, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "acme.com"}}, loc)
	kw := profiles[0].TopKeywords
	require.Equal(t, 28.0, kw[0].TrafficEstimate)
	// A nonzero provider value is never overwritten.
	require.Equal(t, 55.0, kw[1].TrafficEstimate)
	require.Equal(t, 1.0, kw[2].TrafficEstimate)
	require.Zero(t, kw[3].TrafficEstimate)
	require.Zero(t, kw[4].TrafficEstimate)
}

func TestProfileDegradesPerDomain(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		overviews: map[string]intel.DomainOverview{
			"good.com": {EstimatedTraffic: 300},
		},
		ranked: map[string][]intel.KeywordRecord{
			"good.com": {{Term: "a"}, {Term: "b"}, {Term: "c"}},
		},
		errs: map[string]error{
			"overview|bad.com": &intel.TransportError{Err: errors.New("timeout")},
			"ranked|bad.com":   &intel.RemoteError{Code: 50000, Message: "internal"},
		},
	}
	p := New(src, nil, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "bad.com"}, {Domain: "good.com"}}, loc)
	require.Len(t, profiles, 2)
	require.Equal(t, "good.com", profiles[0].Domain)
	require.Equal(t, "bad.com", profiles[1].Domain)
	require.Empty(t, profiles[1].TopKeywords)
}

func TestMarketLeaderSkipsChains(t *testing.T) {
	t.Parallel()

	profiles := []intel.DomainProfile{
		{Domain: "rotorooter.com", LargeChain: true, EstimatedMonthlyTraffic: 9000},
		{Domain: "acmeplumbing.com", EstimatedMonthlyTraffic: 400},
	}
	require.Equal(t, "acmeplumbing.com", MarketLeader(profiles))
	require.Empty(t, MarketLeader(nil))
}

func TestProfileDerivesMetricsWhenOverviewEmpty(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		ranked: map[string][]intel.KeywordRecord{
			"acme.com": {
				{Term: "a", SearchVolume: 100, Rank: 1, CPC: 10},
				{Term: "b", SearchVolume: 200, Rank: 2, CPC: 5},
				{Term: "c"},
			},
		},
	}
	p := New(src, nil, zap.NewNop())

	profiles := p.Profile(context.Background(), []Target{{Domain: "acme.com"}}, loc)
	prof := profiles[0]
	require.Equal(t, 3, prof.TotalRankedKeywords)
	// 100*0.28 + 200*0.15 = 58 visits; value = 28*10 + 30*5 = 430.
	require.InDelta(t, 58.0, prof.EstimatedMonthlyTraffic, 0.001)
	require.InDelta(t, 430.0, prof.EstimatedTrafficValue, 0.001)
}
