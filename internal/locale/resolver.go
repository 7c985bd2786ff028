// Package locale resolves free-text locations into canonical locales and
// expands them with nearby metro cities for broader competitor discovery.
package locale

import (
	"regexp"
	"strings"

	"github.com/seoscout/marketintel/internal/intel"
)

// DefaultNearbyCount bounds how many locales one discovery pass queries.
const DefaultNearbyCount = 5

var splitPattern = regexp.MustCompile(`[,\s]+`)

// stateNames expands two-letter USPS codes to full state names.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// metroNeighbors maps "city|st" (lowercase) to the surrounding metro cities,
// nearest first. The table is static and read-only.
var metroNeighbors = map[string][]string{
	"phoenix|az":     {"Scottsdale", "Glendale", "Tempe", "Peoria", "Chandler"},
	"mesa|az":        {"Gilbert", "Chandler", "Tempe", "Queen Creek", "Apache Junction"},
	"chandler|az":    {"Gilbert", "Mesa", "Tempe", "Queen Creek", "Phoenix"},
	"gilbert|az":     {"Chandler", "Mesa", "Queen Creek", "Tempe", "Phoenix"},
	"tempe|az":       {"Chandler", "Mesa", "Phoenix", "Scottsdale", "Gilbert"},
	"scottsdale|az":  {"Phoenix", "Tempe", "Paradise Valley", "Mesa", "Fountain Hills"},
	"queen creek|az": {"Gilbert", "San Tan Valley", "Chandler", "Mesa", "Florence"},
	"glendale|az":    {"Peoria", "Phoenix", "Surprise", "Avondale", "Goodyear"},
	"tucson|az":      {"Oro Valley", "Marana", "Sahuarita", "Vail", "Catalina Foothills"},

	"dallas|tx":      {"Plano", "Irving", "Garland", "Richardson", "Mesquite"},
	"fort worth|tx":  {"Arlington", "Keller", "Burleson", "Haltom City", "Benbrook"},
	"houston|tx":     {"Pasadena", "Sugar Land", "Pearland", "Katy", "Spring"},
	"san antonio|tx": {"New Braunfels", "Schertz", "Converse", "Boerne", "Seguin"},
	"austin|tx":      {"Round Rock", "Cedar Park", "Pflugerville", "Georgetown", "Leander"},

	"atlanta|ga":   {"Marietta", "Decatur", "Sandy Springs", "Roswell", "Smyrna"},
	"charlotte|nc": {"Concord", "Gastonia", "Huntersville", "Matthews", "Mint Hill"},
	"tampa|fl":     {"Brandon", "Clearwater", "St. Petersburg", "Riverview", "Wesley Chapel"},
	"orlando|fl":   {"Kissimmee", "Winter Park", "Sanford", "Apopka", "Altamonte Springs"},
	"miami|fl":     {"Hialeah", "Coral Gables", "Miami Beach", "Doral", "Kendall"},

	"denver|co":    {"Aurora", "Lakewood", "Littleton", "Arvada", "Westminster"},
	"las vegas|nv": {"Henderson", "North Las Vegas", "Summerlin", "Paradise", "Spring Valley"},
	"seattle|wa":   {"Bellevue", "Renton", "Kent", "Kirkland", "Everett"},
	"portland|or":  {"Beaverton", "Gresham", "Hillsboro", "Tigard", "Lake Oswego"},
	"san diego|ca": {"Chula Vista", "El Cajon", "Oceanside", "Escondido", "La Mesa"},
	"nashville|tn": {"Franklin", "Murfreesboro", "Hendersonville", "Brentwood", "Smyrna"},
	"kansas city|mo": {"Overland Park", "Independence", "Olathe", "Lee's Summit", "Shawnee"},
	"columbus|oh":  {"Dublin", "Westerville", "Hilliard", "Grove City", "Gahanna"},
	"indianapolis|in": {"Carmel", "Fishers", "Greenwood", "Noblesville", "Avon"},
	"minneapolis|mn": {"St. Paul", "Bloomington", "Plymouth", "Maple Grove", "Eden Prairie"},
}

// Resolve parses a free-text location such as "Gilbert, AZ" into a Locale.
// Two-letter region codes expand to full state names; unknown codes pass
// through title-cased. A bare city resolves with an empty region.
func Resolve(raw string) intel.Locale {
	parts := fields(raw)
	if len(parts) == 0 {
		return intel.Locale{}
	}
	if len(parts) == 1 {
		return intel.Locale{City: titleCase(parts[0]), Country: "United States"}
	}

	city := titleCase(strings.Join(parts[:len(parts)-1], " "))
	regionCode := strings.ToUpper(parts[len(parts)-1])
	region, ok := stateNames[regionCode]
	if !ok {
		region = titleCase(regionCode)
	}
	return intel.Locale{City: city, Region: region, Country: "United States"}
}

// Expand returns the locales a discovery pass should query for a raw
// location: the resolved locale first, then nearby metro cities, capped at
// n (default DefaultNearbyCount). An unknown city yields just itself —
// degraded mode, not an error.
func Expand(raw string, n int) []intel.Locale {
	if n <= 0 {
		n = DefaultNearbyCount
	}
	primary := Resolve(raw)
	if primary.City == "" {
		return nil
	}
	locales := []intel.Locale{primary}

	key := metroKey(raw)
	for _, city := range metroNeighbors[key] {
		if len(locales) >= n {
			break
		}
		locales = append(locales, intel.Locale{
			City:    city,
			Region:  primary.Region,
			Country: primary.Country,
		})
	}
	return locales
}

// metroKey builds the (city, region-code) lookup key from raw input.
func metroKey(raw string) string {
	parts := fields(raw)
	if len(parts) < 2 {
		return ""
	}
	city := strings.ToLower(strings.Join(parts[:len(parts)-1], " "))
	code := strings.ToLower(parts[len(parts)-1])
	if len(code) != 2 {
		// Accept full state names in the region slot, e.g. "Gilbert, Arizona".
		for abbr, name := range stateNames {
			if strings.EqualFold(name, parts[len(parts)-1]) {
				code = strings.ToLower(abbr)
				break
			}
		}
	}
	return city + "|" + code
}

func fields(raw string) []string {
	var parts []string
	for _, p := range splitPattern.Split(strings.TrimSpace(raw), -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
