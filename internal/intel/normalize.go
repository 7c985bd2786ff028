package intel

import "strings"

// NormalizeDomain reduces a URL or hostname to a bare lowercase domain:
// scheme, "www." prefix, path, and trailing slashes are stripped.
// Normalizing twice yields the same result as once.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	if d == "" {
		return ""
	}
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	return strings.Trim(d, "/")
}

// NormalizeTerm lowercases and trims a keyword term. Records whose term
// normalizes to the empty string are discarded upstream.
func NormalizeTerm(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}
