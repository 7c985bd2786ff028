package intel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.AcmePlumbing.com/":       "acmeplumbing.com",
		"http://acmeplumbing.com/services/":   "acmeplumbing.com",
		"www.acmeplumbing.com":                "acmeplumbing.com",
		"acmeplumbing.com":                    "acmeplumbing.com",
		"ACMEPLUMBING.COM:8080":               "acmeplumbing.com",
		"  https://acmeplumbing.com?ref=ad  ": "acmeplumbing.com",
		"":                                    "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeDomain(in), "input %q", in)
	}
}

func TestNormalizeDomainIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.Example.com/path/",
		"example.com",
		"WWW.EXAMPLE.COM",
	}
	for _, in := range inputs {
		once := NormalizeDomain(in)
		require.Equal(t, once, NormalizeDomain(once))
	}
}

func TestNormalizeTerm(t *testing.T) {
	t.Parallel()

	require.Equal(t, "drain cleaning gilbert", NormalizeTerm("  Drain Cleaning Gilbert "))
	require.Equal(t, "", NormalizeTerm("   "))
}
