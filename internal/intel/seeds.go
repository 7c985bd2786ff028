package intel

import "strings"

// ServiceKeywordSeeds builds the seed keyword list for a service + city
// pair, used for market-baseline volume lookups. Count caps the list;
// values <= 0 or past the template count return the full set.
func ServiceKeywordSeeds(service, city string, count int) []string {
	s := strings.TrimSpace(strings.ToLower(service))
	c := strings.TrimSpace(strings.ToLower(city))
	if s == "" {
		return nil
	}

	seeds := []string{
		s + " " + c,
		"best " + s + " " + c,
		"emergency " + s + " " + c,
		s + " near me",
		"local " + s + " " + c,
		s + " company " + c,
		"affordable " + s + " " + c,
		"licensed " + s + " " + c,
		"24 hour " + s + " " + c,
		s + " service " + c,
	}
	if c == "" {
		trimmed := seeds[:0]
		for _, seed := range seeds {
			trimmed = append(trimmed, strings.TrimSpace(seed))
		}
		seeds = trimmed
	}
	if count > 0 && count < len(seeds) {
		seeds = seeds[:count]
	}
	return seeds
}
