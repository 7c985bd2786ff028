// Package pillar groups keyword records into service sub-topic buckets and
// derives per-bucket value estimates.
package pillar

import (
	"strings"

	"github.com/seoscout/marketintel/internal/intel"
)

// rule maps a pillar name to its trigger substrings. A rule with no
// triggers is a catch-all.
type rule struct {
	name     string
	triggers []string
}

// categoryTriggers resolves a free-text service description to a rule-set
// key. First match wins; order matters because descriptions like
// "drain cleaning" must hit plumbing before cleaning.
var categoryTriggers = []struct {
	category string
	keywords []string
}{
	{"plumbing", []string{"plumb", "drain", "sewer", "pipe", "water heater"}},
	{"hvac", []string{"hvac", "air condition", "heating", "cooling", "furnace", "heat pump"}},
	{"electrical", []string{"electric", "panel", "wiring", "ev charger"}},
	{"roofing", []string{"roof", "shingle", "gutter"}},
	{"landscaping", []string{"landscap", "lawn", "tree", "irrigation"}},
	{"pest_control", []string{"pest", "termite", "exterminat", "scorpion"}},
	{"cleaning", []string{"clean", "maid", "janitorial"}},
}

// categoryRules holds the ordered pillar rules per service category. The
// last rule in every list is the empty-trigger catch-all, so classification
// always covers every keyword.
var categoryRules = map[string][]rule{
	"plumbing": {
		{"Water Heater", []string{"water heater", "tankless", "water softener"}},
		{"Drain & Sewer", []string{"drain", "sewer", "rooter", "clog", "hydro jet"}},
		{"Emergency Plumbing", []string{"emergency", "24 hour", "24/7", "burst"}},
		{"Leak Detection & Repipe", []string{"leak", "repipe", "slab"}},
		{"Repair & Installation", []string{"repair", "install", "replacement"}},
		{"General Plumbing", nil},
	},
	"hvac": {
		{"AC Repair & Installation", []string{"ac ", "air condition", "cooling"}},
		{"Heating & Furnace", []string{"heat", "furnace"}},
		{"Emergency HVAC", []string{"emergency", "24 hour", "24/7"}},
		{"Ducts & Air Quality", []string{"duct", "air quality", "filter"}},
		{"Maintenance & Tune-Up", []string{"tune", "maintenance", "service plan"}},
		{"General HVAC", nil},
	},
	"electrical": {
		{"Panel & Service Upgrades", []string{"panel", "200 amp", "service upgrade"}},
		{"EV Chargers", []string{"ev charger", "car charger", "tesla"}},
		{"Emergency Electrical", []string{"emergency", "24 hour", "24/7"}},
		{"Lighting & Fixtures", []string{"lighting", "light", "fan", "fixture"}},
		{"Wiring & Rewiring", []string{"wiring", "rewir", "outlet", "switch"}},
		{"General Electrical", nil},
	},
	"roofing": {
		{"Roof Replacement", []string{"replacement", "new roof", "re-roof"}},
		{"Roof Repair", []string{"repair", "leak"}},
		{"Storm & Insurance", []string{"storm", "hail", "insurance", "wind"}},
		{"Tile & Shingle", []string{"tile", "shingle", "flat roof", "foam"}},
		{"General Roofing", nil},
	},
	"landscaping": {
		{"Lawn Care", []string{"lawn", "mow", "fertiliz", "weed"}},
		{"Tree Service", []string{"tree", "stump", "trimming"}},
		{"Irrigation", []string{"irrigation", "sprinkler", "drip"}},
		{"Hardscape & Design", []string{"paver", "turf", "design", "hardscape"}},
		{"General Landscaping", nil},
	},
	"pest_control": {
		{"Termite Control", []string{"termite"}},
		{"Scorpion & Spider", []string{"scorpion", "spider"}},
		{"Rodent Control", []string{"rodent", "rat", "mice", "mouse"}},
		{"General Pest Control", nil},
	},
	"cleaning": {
		{"Deep & Move-Out Cleaning", []string{"deep", "move out", "move-out"}},
		{"Carpet & Tile", []string{"carpet", "tile", "grout", "upholstery"}},
		{"Commercial & Janitorial", []string{"commercial", "office", "janitorial"}},
		{"General Cleaning", nil},
	},
	"general": {
		{"Emergency Services", []string{"emergency", "24 hour", "24/7"}},
		{"Repair & Installation", []string{"repair", "install", "replacement"}},
		{"General Services", nil},
	},
}

// DetectCategory resolves a free-text service description to a known
// category key, defaulting to "general".
func DetectCategory(service string) string {
	lowered := strings.ToLower(service)
	for _, entry := range categoryTriggers {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.category
			}
		}
	}
	return "general"
}

// Classify assigns every keyword record to exactly one pillar for the
// service's category. A keyword lands in the first pillar whose trigger
// list contains a substring of the lowercased term; the trailing catch-all
// guarantees total coverage. Empty buckets are omitted from the output.
func Classify(service string, records []intel.KeywordRecord) []intel.PillarBucket {
	rules := categoryRules[DetectCategory(service)]

	buckets := make([]intel.PillarBucket, len(rules))
	for i, r := range rules {
		buckets[i].Name = r.name
	}

	for _, rec := range records {
		term := strings.ToLower(rec.Term)
		idx := len(rules) - 1
		for i, r := range rules {
			if matchesRule(term, r) {
				idx = i
				break
			}
		}
		buckets[idx].Members = append(buckets[idx].Members, rec)
	}

	var out []intel.PillarBucket
	for _, b := range buckets {
		if len(b.Members) == 0 {
			continue
		}
		finalize(&b)
		out = append(out, b)
	}
	return out
}

func matchesRule(term string, r rule) bool {
	if len(r.triggers) == 0 {
		return true
	}
	for _, trig := range r.triggers {
		if strings.Contains(term, trig) {
			return true
		}
	}
	return false
}

// finalize computes the derived bucket stats: total volume, mean CPC over
// records with a nonzero CPC, modal competition level, and the annual ad
// value estimate.
func finalize(b *intel.PillarBucket) {
	var cpcSum float64
	var cpcCount int
	competitionCounts := make(map[intel.CompetitionLevel]int)
	var competitionOrder []intel.CompetitionLevel

	for _, rec := range b.Members {
		b.TotalVolume += rec.SearchVolume
		if rec.CPC > 0 {
			cpcSum += rec.CPC
			cpcCount++
		}
		if rec.Competition != "" {
			if competitionCounts[rec.Competition] == 0 {
				competitionOrder = append(competitionOrder, rec.Competition)
			}
			competitionCounts[rec.Competition]++
		}
	}

	if cpcCount > 0 {
		b.AverageCPC = cpcSum / float64(cpcCount)
	}
	best := 0
	for _, level := range competitionOrder {
		if competitionCounts[level] > best {
			best = competitionCounts[level]
			b.DominantCompetition = level
		}
	}
	b.AnnualAdValue = intel.AnnualAdValue(b.TotalVolume, b.AverageCPC, intel.DefaultAdCaptureRate)
}
