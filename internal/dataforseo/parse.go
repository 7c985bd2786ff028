package dataforseo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/seoscout/marketintel/internal/intel"
)

// The provider nests everything two to four levels deep. Each parse
// function owns one endpoint's shape and reports a MalformedResponseError
// naming the first missing piece.

type serpResultPage struct {
	Items []serpItem `json:"items"`
}

type serpItem struct {
	Type      string `json:"type"`
	RankGroup int    `json:"rank_group"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	// Maps results carry the site under contact_url instead of url.
	ContactURL  string `json:"contact_url"`
	Description string `json:"description"`
	Rating      *struct {
		Value      float64 `json:"value"`
		VotesCount int     `json:"votes_count"`
	} `json:"rating"`
}

func parseSERP(t *task, kind intel.ResultKind, maxResults int) ([]intel.SERPResult, error) {
	if len(t.Result) == 0 {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result"}
	}
	var page serpResultPage
	if err := json.Unmarshal(t.Result[0], &page); err != nil {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result[0].items"}
	}

	wantType := "organic"
	if kind == intel.ResultKindLocal {
		wantType = "maps_search"
	}

	results := make([]intel.SERPResult, 0, maxResults)
	for _, item := range page.Items {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		if !matchesSERPType(item.Type, wantType) {
			continue
		}
		url := item.URL
		if url == "" {
			url = item.ContactURL
		}
		domain := item.Domain
		if domain == "" {
			domain = intel.NormalizeDomain(url)
		}
		if domain == "" {
			continue
		}
		res := intel.SERPResult{
			Rank:        item.RankGroup,
			Title:       item.Title,
			URL:         url,
			Domain:      intel.NormalizeDomain(domain),
			Description: item.Description,
		}
		if item.Rating != nil {
			res.Rating = item.Rating.Value
			res.Reviews = item.Rating.VotesCount
		}
		results = append(results, res)
	}
	return results, nil
}

// matchesSERPType accepts the handful of item type labels the provider
// uses for each surface.
func matchesSERPType(itemType, want string) bool {
	switch want {
	case "organic":
		return itemType == "organic"
	default:
		return itemType == "maps_search" || strings.HasPrefix(itemType, "maps_")
	}
}

type volumeItem struct {
	Keyword      string   `json:"keyword"`
	SearchVolume *int     `json:"search_volume"`
	CPC          *float64 `json:"cpc"`
	Competition  *string  `json:"competition"`
}

func parseVolumes(t *task) ([]intel.KeywordRecord, error) {
	if len(t.Result) == 0 {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result"}
	}
	// This endpoint returns keyword objects directly, not an items wrapper.
	records := make([]intel.KeywordRecord, 0, len(t.Result))
	for i, raw := range t.Result {
		var item volumeItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &intel.MalformedResponseError{Missing: "tasks[0].result[" + strconv.Itoa(i) + "]"}
		}
		if item.Keyword == "" {
			continue
		}
		rec := intel.KeywordRecord{Term: intel.NormalizeTerm(item.Keyword)}
		if item.SearchVolume != nil {
			rec.SearchVolume = *item.SearchVolume
		}
		if item.CPC != nil {
			rec.CPC = *item.CPC
		}
		if item.Competition != nil {
			rec.Competition = intel.CompetitionLevel(strings.ToUpper(*item.Competition))
		}
		records = append(records, rec)
	}
	return records, nil
}

type rankedResultPage struct {
	Items []struct {
		KeywordData *struct {
			Keyword     string `json:"keyword"`
			KeywordInfo *struct {
				SearchVolume *int     `json:"search_volume"`
				CPC          *float64 `json:"cpc"`
				Competition  *string  `json:"competition_level"`
			} `json:"keyword_info"`
		} `json:"keyword_data"`
		RankedSERPElement *struct {
			SERPItem *struct {
				RankGroup int      `json:"rank_group"`
				ETV       *float64 `json:"etv"`
			} `json:"serp_item"`
		} `json:"ranked_serp_element"`
	} `json:"items"`
}

func parseRankedKeywords(t *task) ([]intel.KeywordRecord, error) {
	if len(t.Result) == 0 {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result"}
	}
	var page rankedResultPage
	if err := json.Unmarshal(t.Result[0], &page); err != nil {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result[0].items"}
	}

	records := make([]intel.KeywordRecord, 0, len(page.Items))
	for _, item := range page.Items {
		if item.KeywordData == nil || item.KeywordData.Keyword == "" {
			continue
		}
		rec := intel.KeywordRecord{Term: intel.NormalizeTerm(item.KeywordData.Keyword)}
		if info := item.KeywordData.KeywordInfo; info != nil {
			if info.SearchVolume != nil {
				rec.SearchVolume = *info.SearchVolume
			}
			if info.CPC != nil {
				rec.CPC = *info.CPC
			}
			if info.Competition != nil {
				rec.Competition = intel.CompetitionLevel(strings.ToUpper(*info.Competition))
			}
		}
		if elem := item.RankedSERPElement; elem != nil && elem.SERPItem != nil {
			rec.Rank = elem.SERPItem.RankGroup
			if elem.SERPItem.ETV != nil {
				rec.TrafficEstimate = *elem.SERPItem.ETV
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

type overviewResultPage struct {
	Items []struct {
		Metrics *struct {
			Organic *struct {
				Count *int     `json:"count"`
				ETV   *float64 `json:"etv"`
				Cost  *float64 `json:"estimated_paid_traffic_cost"`
			} `json:"organic"`
		} `json:"metrics"`
	} `json:"items"`
}

func parseOverview(t *task) (intel.DomainOverview, error) {
	if len(t.Result) == 0 {
		return intel.DomainOverview{}, &intel.MalformedResponseError{Missing: "tasks[0].result"}
	}
	var page overviewResultPage
	if err := json.Unmarshal(t.Result[0], &page); err != nil {
		return intel.DomainOverview{}, &intel.MalformedResponseError{Missing: "tasks[0].result[0].items"}
	}
	if len(page.Items) == 0 || page.Items[0].Metrics == nil || page.Items[0].Metrics.Organic == nil {
		return intel.DomainOverview{}, &intel.MalformedResponseError{Missing: "items[0].metrics.organic"}
	}

	organic := page.Items[0].Metrics.Organic
	var overview intel.DomainOverview
	if organic.Count != nil {
		overview.TotalKeywords = *organic.Count
	}
	if organic.ETV != nil {
		overview.EstimatedTraffic = *organic.ETV
	}
	if organic.Cost != nil {
		overview.TrafficValue = *organic.Cost
	}
	return overview, nil
}

type difficultyResultPage struct {
	Items []struct {
		Keyword    string `json:"keyword"`
		Difficulty *int   `json:"keyword_difficulty"`
	} `json:"items"`
}

func parseDifficulty(t *task) ([]intel.DifficultyScore, error) {
	if len(t.Result) == 0 {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result"}
	}
	var page difficultyResultPage
	if err := json.Unmarshal(t.Result[0], &page); err != nil {
		return nil, &intel.MalformedResponseError{Missing: "tasks[0].result[0].items"}
	}

	scores := make([]intel.DifficultyScore, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Keyword == "" || item.Difficulty == nil {
			continue
		}
		scores = append(scores, intel.DifficultyScore{
			Term:       intel.NormalizeTerm(item.Keyword),
			Difficulty: *item.Difficulty,
		})
	}
	return scores, nil
}
