package intel

import "strings"

// DomainMatcher stores exact hosts, suffix wildcards, and substring
// patterns used to filter discovered domains.
type DomainMatcher struct {
	exact      map[string]struct{}
	suffixes   []string
	substrings []string
}

// NewDomainMatcher builds a matcher from domain patterns ("yelp.com",
// "*.example.com") and bare substrings.
func NewDomainMatcher(patterns, substrings []string) *DomainMatcher {
	m := &DomainMatcher{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			m.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			m.addSuffix(strings.TrimPrefix(value, "."))
		default:
			m.exact[value] = struct{}{}
		}
	}
	for _, raw := range substrings {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value != "" {
			m.substrings = append(m.substrings, value)
		}
	}
	return m
}

func (m *DomainMatcher) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range m.suffixes {
		if existing == suffix {
			return
		}
	}
	m.suffixes = append(m.suffixes, suffix)
}

// Matches reports whether the host hits any exact, suffix, or substring
// pattern. The host is normalized first, so callers may pass raw URLs.
func (m *DomainMatcher) Matches(host string) bool {
	if m == nil {
		return false
	}
	host = NormalizeDomain(host)
	if host == "" {
		return false
	}
	if _, ok := m.exact[host]; ok {
		return true
	}
	for _, suffix := range m.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	for _, sub := range m.substrings {
		if strings.Contains(host, sub) {
			return true
		}
	}
	return false
}

// excludedDomains are directories, aggregators, and platforms that show up
// in local SERPs but are never genuine local competitors.
var excludedDomains = []string{
	"yelp.com",
	"angi.com",
	"angieslist.com",
	"homeadvisor.com",
	"thumbtack.com",
	"houzz.com",
	"porch.com",
	"bbb.org",
	"yellowpages.com",
	"mapquest.com",
	"facebook.com",
	"instagram.com",
	"nextdoor.com",
	"craigslist.org",
	"reddit.com",
	"wikipedia.org",
	"google.com",
	"expertise.com",
	"threebestrated.com",
	"checkbook.org",
	"chamberofcommerce.com",
	"superpages.com",
}

// excludedSubstrings knock out directory-style hosts the exact list misses.
var excludedSubstrings = []string{
	"directory",
	"listings",
	"top10",
	"bestpros",
}

// largeChainDomains are national or regional franchise operators. They are
// tracked separately and never framed as the local market leader.
var largeChainDomains = []string{
	"rotorooter.com",
	"mrrooter.com",
	"benjaminfranklinplumbing.com",
	"mrelectric.com",
	"onehourheatandair.com",
	"aireserv.com",
	"servicemasterrestore.com",
	"horizonservices.com",
	"michaelandson.com",
	"ars.com",
	"trugreen.com",
	"terminix.com",
	"orkin.com",
}

// DefaultExclusions returns the matcher for non-competitor domains.
func DefaultExclusions() *DomainMatcher {
	return NewDomainMatcher(excludedDomains, excludedSubstrings)
}

// DefaultLargeChains returns the matcher for national franchise chains.
func DefaultLargeChains() *DomainMatcher {
	return NewDomainMatcher(largeChainDomains, nil)
}
