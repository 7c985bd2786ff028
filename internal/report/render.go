// Package report renders the assembled audit data into fixed-shape text
// blocks. Rendering is pure formatting: given identical input the output
// is byte-stable.
package report

import (
	"fmt"
	"strings"

	"github.com/seoscout/marketintel/internal/intel"
)

// Caps on how many rows each rendered table shows. The underlying report
// struct keeps the full data.
const (
	maxGapRows        = 25
	maxKeywordRows    = 10
	maxDifficultyRows = 15
)

// Render produces the market intelligence report as markdown text.
func Render(r intel.Report) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Market Intelligence Report: %s\n\n", r.Domain)
	fmt.Fprintf(&b, "- Service: %s\n", r.Service)
	if len(r.Locales) > 0 {
		cities := make([]string, len(r.Locales))
		for i, loc := range r.Locales {
			cities[i] = loc.City
		}
		fmt.Fprintf(&b, "- Market area: %s\n", strings.Join(cities, ", "))
	}
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	writeSubject(&b, r.Subject)
	writeCompetitors(&b, r)
	writeChains(&b, r.Chains)
	writeGap(&b, r.Gap)
	writePillars(&b, r.Pillars)
	writeSeedVolumes(&b, r.SeedVolumes)
	writeDifficulty(&b, r.Difficulty)
	writeSnapshot(&b, r.Snapshot)

	return []byte(b.String())
}

func writeSubject(b *strings.Builder, subject intel.DomainProfile) {
	fmt.Fprintf(b, "\n## Subject: %s\n\n", subject.Domain)
	writeProfileStats(b, subject)
	if len(subject.TopKeywords) > 0 {
		fmt.Fprintf(b, "\nTop ranked keywords:\n\n")
		writeKeywordTable(b, subject.TopKeywords, maxKeywordRows)
	}
}

func writeCompetitors(b *strings.Builder, r intel.Report) {
	if len(r.Competitors) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Local Competitors\n\n")
	if r.MarketLeader != "" {
		fmt.Fprintf(b, "Market leader: **%s**\n\n", r.MarketLeader)
	}
	fmt.Fprintf(b, "| Domain | Ranked Keywords | Est. Monthly Traffic | Est. Traffic Value | Locales |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|\n")
	for _, c := range r.Competitors {
		fmt.Fprintf(b, "| %s | %d | %.1f | $%.2f | %s |\n",
			c.Domain, c.TotalRankedKeywords, c.EstimatedMonthlyTraffic,
			c.EstimatedTrafficValue, strings.Join(c.DiscoveredInLocales, ", "))
	}
}

func writeChains(b *strings.Builder, chains []intel.DomainProfile) {
	if len(chains) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## National & Regional Chains\n\n")
	fmt.Fprintf(b, "Chains appear in local results but are excluded from the market-leader comparison.\n\n")
	for _, c := range chains {
		fmt.Fprintf(b, "- %s (est. monthly traffic %.1f)\n", c.Domain, c.EstimatedMonthlyTraffic)
	}
}

func writeGap(b *strings.Builder, gaps []intel.GapKeyword) {
	if len(gaps) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Keyword Gap\n\n")
	fmt.Fprintf(b, "Keywords competitors rank for that the subject does not:\n\n")
	fmt.Fprintf(b, "| Keyword | Volume | CPC | Held By | Their Rank |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|\n")
	for i, g := range gaps {
		if i >= maxGapRows {
			break
		}
		fmt.Fprintf(b, "| %s | %d | %s | %s | %s |\n",
			g.Term, g.SearchVolume, cpcCell(g.CPC), g.SourceDomain, rankCell(g.SourceRank))
	}
}

func writePillars(b *strings.Builder, pillars []intel.PillarBucket) {
	if len(pillars) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Service Pillars\n\n")
	fmt.Fprintf(b, "Annual ad value is an estimate (assumed 10%% click capture at average CPC).\n\n")
	fmt.Fprintf(b, "| Pillar | Keywords | Total Volume | Avg CPC | Competition | Est. Annual Ad Value |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|\n")
	for _, p := range pillars {
		fmt.Fprintf(b, "| %s | %d | %d | %s | %s | $%.2f |\n",
			p.Name, len(p.Members), p.TotalVolume, cpcCell(p.AverageCPC),
			competitionCell(p.DominantCompetition), p.AnnualAdValue)
	}
}

func writeSeedVolumes(b *strings.Builder, seeds []intel.KeywordRecord) {
	if len(seeds) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Seed Keyword Volumes\n\n")
	writeKeywordTable(b, seeds, len(seeds))
}

func writeDifficulty(b *strings.Builder, scores []intel.DifficultyScore) {
	if len(scores) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Keyword Difficulty\n\n")
	fmt.Fprintf(b, "| Keyword | Difficulty (0-100) |\n")
	fmt.Fprintf(b, "|---|---|\n")
	for i, s := range scores {
		if i >= maxDifficultyRows {
			break
		}
		fmt.Fprintf(b, "| %s | %d |\n", s.Term, s.Difficulty)
	}
}

func writeSnapshot(b *strings.Builder, snap *intel.SiteSnapshot) {
	if snap == nil {
		return
	}
	fmt.Fprintf(b, "\n## Homepage Snapshot\n\n")
	fmt.Fprintf(b, "- URL: %s\n", snap.URL)
	fmt.Fprintf(b, "- Status: %d\n", snap.StatusCode)
	if snap.Title != "" {
		fmt.Fprintf(b, "- Title: %s\n", snap.Title)
	}
	if snap.MetaDescription != "" {
		fmt.Fprintf(b, "- Meta description: %s\n", snap.MetaDescription)
	}
	for _, h := range snap.Headings {
		fmt.Fprintf(b, "- H1: %s\n", h)
	}
}

func writeProfileStats(b *strings.Builder, p intel.DomainProfile) {
	fmt.Fprintf(b, "- Ranked keywords: %d\n", p.TotalRankedKeywords)
	fmt.Fprintf(b, "- Est. monthly traffic: %.1f\n", p.EstimatedMonthlyTraffic)
	fmt.Fprintf(b, "- Est. traffic value: $%.2f\n", p.EstimatedTrafficValue)
	if p.UsedFallbackSource {
		fmt.Fprintf(b, "- Keyword data from secondary source\n")
	}
}

func writeKeywordTable(b *strings.Builder, records []intel.KeywordRecord, limit int) {
	fmt.Fprintf(b, "| Keyword | Volume | CPC | Rank | Est. Traffic |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|\n")
	for i, rec := range records {
		if i >= limit {
			break
		}
		fmt.Fprintf(b, "| %s | %d | %s | %s | %.1f |\n",
			rec.Term, rec.SearchVolume, cpcCell(rec.CPC), rankCell(rec.Rank), rec.TrafficEstimate)
	}
}

func cpcCell(cpc float64) string {
	if cpc == 0 {
		return "-"
	}
	return fmt.Sprintf("$%.2f", cpc)
}

func rankCell(rank int) string {
	if rank == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", rank)
}

func competitionCell(level intel.CompetitionLevel) string {
	if level == "" {
		return "-"
	}
	return string(level)
}
