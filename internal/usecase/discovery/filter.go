package discovery

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/kailas-cloud/compscope/internal/domain/competitor"
)

// Outlier defaults: anything above is a platform, not a peer.
const (
	DefaultMaxETV          = 100000
	DefaultMaxKeywordCount = 50000
)

// DefaultBlocklist names social networks, marketplaces, review aggregators
// and directories that rank for everything and are never real competitors.
var DefaultBlocklist = []string{
	"facebook.", "instagram.", "twitter.", "linkedin.", "youtube.", "tiktok.",
	"pinterest.", "reddit.", "quora.", "wikipedia.", "nextdoor.",
	"amazon.", "ebay.", "etsy.", "walmart.", "alibaba.", "craigslist.",
	"homedepot.", "lowes.", "groupon.",
	"yelp.", "tripadvisor.", "trustpilot.", "angi.com", "angieslist.", "homeadvisor.",
	"thumbtack.", "yellowpages.", "superpages.", "bbb.org", "houzz.", "porch.com",
	"bark.com", "manta.com", "foursquare.", "mapquest.", "indeed.", "glassdoor.",
	"google.", "apple.com",
}

// FilterOptions tunes the filter. Zero limits take the defaults.
type FilterOptions struct {
	ExtraBlocklist  []string
	MaxETV          float64
	MaxKeywordCount int
}

// Filter drops non-competitor platforms and traffic outliers.
type Filter struct {
	matcher     *ahocorasick.Matcher
	entries     []string
	maxETV      float64
	maxKeywords int
}

// NewFilter builds the blocklist matcher from DefaultBlocklist plus extras.
func NewFilter(opts FilterOptions) *Filter {
	entries := make([]string, 0, len(DefaultBlocklist)+len(opts.ExtraBlocklist))
	for _, e := range append(append([]string{}, DefaultBlocklist...), opts.ExtraBlocklist...) {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			entries = append(entries, e)
		}
	}

	maxETV := opts.MaxETV
	if maxETV <= 0 {
		maxETV = DefaultMaxETV
	}
	maxKeywords := opts.MaxKeywordCount
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywordCount
	}

	return &Filter{
		matcher:     ahocorasick.NewStringMatcher(entries),
		entries:     entries,
		maxETV:      maxETV,
		maxKeywords: maxKeywords,
	}
}

// Reason explains why c is dropped; "" means it passes.
func (f *Filter) Reason(c competitor.Candidate) string {
	host := c.Host()
	if host == "" {
		return "empty domain"
	}
	if hits := f.matcher.Match([]byte(host)); len(hits) > 0 {
		return "blocklisted platform " + strings.TrimSuffix(f.entries[hits[0]], ".")
	}
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
		return "government or education domain"
	}
	if c.ETV > f.maxETV {
		return "traffic outlier"
	}
	if c.KeywordCount > f.maxKeywords {
		return "keyword count outlier"
	}
	return ""
}

// Apply returns the candidates that pass, in their original order.
func (f *Filter) Apply(cands []competitor.Candidate) []competitor.Candidate {
	out := make([]competitor.Candidate, 0, len(cands))
	for _, c := range cands {
		if f.Reason(c) == "" {
			out = append(out, c)
		}
	}
	return out
}
