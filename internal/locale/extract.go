package locale

import (
	"regexp"
	"strings"

	"github.com/seoscout/marketintel/internal/intel"
)

// cityMention matches "City, ST" style references inside free text, with
// up to three capitalized words in the city.
var cityMention = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+){0,2}),\s*([A-Z]{2})\b`)

// ExtractCities scans free-text notes for additional "City, ST" mentions
// whose state code is real and whose city is not already in known. Order
// of first appearance is preserved.
func ExtractCities(notes string, known []intel.Locale) []intel.Locale {
	if strings.TrimSpace(notes) == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(known))
	for _, loc := range known {
		seen[strings.ToLower(loc.City)] = struct{}{}
	}

	var found []intel.Locale
	for _, match := range cityMention.FindAllStringSubmatch(notes, -1) {
		city, code := match[1], match[2]
		if _, ok := stateNames[code]; !ok {
			continue
		}
		key := strings.ToLower(city)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		found = append(found, Resolve(city+", "+code))
	}
	return found
}
