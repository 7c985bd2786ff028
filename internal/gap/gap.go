// Package gap computes the keywords competitors rank for that the subject
// domain does not.
package gap

import (
	"sort"

	"github.com/seoscout/marketintel/internal/intel"
)

// Compute returns every competitor keyword whose normalized term is absent
// from the subject's own ranked set. When multiple competitors hold the
// same term, the occurrence with the higher search volume wins; ties keep
// the first seen. Output is sorted descending by search volume.
func Compute(subject []intel.KeywordRecord, competitors []intel.DomainProfile) []intel.GapKeyword {
	owned := make(map[string]struct{}, len(subject))
	for _, rec := range subject {
		if term := intel.NormalizeTerm(rec.Term); term != "" {
			owned[term] = struct{}{}
		}
	}

	byTerm := make(map[string]intel.GapKeyword)
	var order []string
	for _, comp := range competitors {
		for _, rec := range comp.TopKeywords {
			term := intel.NormalizeTerm(rec.Term)
			if term == "" {
				continue
			}
			if _, ok := owned[term]; ok {
				continue
			}
			candidate := intel.GapKeyword{
				KeywordRecord: rec,
				SourceDomain:  comp.Domain,
				SourceRank:    rec.Rank,
			}
			candidate.Term = term

			existing, seen := byTerm[term]
			if !seen {
				byTerm[term] = candidate
				order = append(order, term)
				continue
			}
			if candidate.SearchVolume > existing.SearchVolume {
				byTerm[term] = candidate
			}
		}
	}

	gaps := make([]intel.GapKeyword, 0, len(order))
	for _, term := range order {
		gaps = append(gaps, byTerm[term])
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].SearchVolume > gaps[j].SearchVolume
	})
	return gaps
}
