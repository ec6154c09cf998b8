package router_test

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstreamUDP(addr string) config.Upstream {
	return config.Upstream{Kind: config.KindUDP, Addr: mustAddrPort(addr)}
}

func TestRouter_exactBeatsSuffix(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"example.com"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternDomain, Names: []string{"www.example.com"}},
		Upstream: upstreamUDP("8.8.8.8:53"),
	}, 1)

	up, ok := r.Search("www.example.com", dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("8.8.8.8:53"), *up)
}

func TestRouter_typedBeatsUntypedAtSameDepth(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternDomain, Names: []string{"www.example.com"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)
	r.AddRule(config.Rule{
		Pattern: config.Pattern{
			Kind:    config.PatternDomain,
			Names:   []string{"www.example.com"},
			Records: []uint16{dns.TypeA},
		},
		Upstream: upstreamUDP("8.8.8.8:53"),
	}, 1)

	up, ok := r.Search("www.example.com", dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("8.8.8.8:53"), *up)

	up, ok = r.Search("www.example.com", dns.TypeAAAA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("1.1.1.1:53"), *up)
}

func TestRouter_longestSuffixWins(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"com"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"example.com"}},
		Upstream: upstreamUDP("8.8.8.8:53"),
	}, 1)

	up, ok := r.Search("www.example.com", dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("8.8.8.8:53"), *up)
}

func TestRouter_earlierRuleWinsOnTie(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"example.com"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"example.com"}},
		Upstream: upstreamUDP("8.8.8.8:53"),
	}, 1)

	up, ok := r.Search("www.example.com", dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("1.1.1.1:53"), *up)
}

func TestRouter_typedSuffixDeeperThanUntypedSuffixWins(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternSuffix, Names: []string{"example.com"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)
	r.AddRule(config.Rule{
		Pattern: config.Pattern{
			Kind:    config.PatternSuffix,
			Names:   []string{"sub.example.com"},
			Records: []uint16{dns.TypeA},
		},
		Upstream: upstreamUDP("8.8.8.8:53"),
	}, 1)

	up, ok := r.Search("www.sub.example.com", dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, upstreamUDP("8.8.8.8:53"), *up)
}

func TestRouter_noMatch(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	_, ok := r.Search("nowhere.invalid", dns.TypeA)
	assert.False(t, ok)
}

func TestRouter_caseInsensitive(t *testing.T) {
	t.Parallel()

	r := router.New(nil)
	r.AddRule(config.Rule{
		Pattern:  config.Pattern{Kind: config.PatternDomain, Names: []string{"Example.COM"}},
		Upstream: upstreamUDP("1.1.1.1:53"),
	}, 0)

	_, ok := r.Search("example.com", dns.TypeA)
	assert.True(t, ok)
}
