package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/compscope/internal/domain/competitor"
)

func TestFilter_SpecExamples(t *testing.T) {
	f := NewFilter(FilterOptions{})
	in := []competitor.Candidate{
		{Domain: "www.facebook.com/somepage"},
		{Domain: "agency.gov"},
		{Domain: "acmeplumbing.com"},
	}
	out := f.Apply(in)
	assert.Equal(t, []competitor.Candidate{{Domain: "acmeplumbing.com"}}, out)
}

func TestFilter_Reasons(t *testing.T) {
	f := NewFilter(FilterOptions{ExtraBlocklist: []string{" Localdirectory.net "}})

	tests := []struct {
		name string
		cand competitor.Candidate
		want string
	}{
		{"social", competitor.Candidate{Domain: "m.YouTube.com"}, "blocklisted platform youtube"},
		{"marketplace", competitor.Candidate{Domain: "amazon.co.uk"}, "blocklisted platform amazon"},
		{"review", competitor.Candidate{URL: "https://www.yelp.com/biz/acme"}, "blocklisted platform yelp"},
		{"extra", competitor.Candidate{Domain: "localdirectory.net"}, "blocklisted platform localdirectory.net"},
		{"edu", competitor.Candidate{Domain: "cs.stanford.edu"}, "government or education domain"},
		{"etv", competitor.Candidate{Domain: "bigchain.com", ETV: 100001}, "traffic outlier"},
		{"keywords", competitor.Candidate{Domain: "bigchain.com", KeywordCount: 50001}, "keyword count outlier"},
		{"at limits", competitor.Candidate{Domain: "peer.com", ETV: 100000, KeywordCount: 50000}, ""},
		{"empty", competitor.Candidate{}, "empty domain"},
		{"education word in host", competitor.Candidate{Domain: "education-plumbing.com"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Reason(tc.cand))
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	f := NewFilter(FilterOptions{MaxETV: 10})
	in := []competitor.Candidate{
		{Domain: "c.com", ETV: 1},
		{Domain: "big.com", ETV: 11},
		{Domain: "a.com", ETV: 2},
		{Domain: "pinterest.com"},
		{Domain: "b.com", ETV: 3},
	}
	out := f.Apply(in)
	var got []string
	for _, c := range out {
		got = append(got, c.Domain)
	}
	assert.Equal(t, []string{"c.com", "a.com", "b.com"}, got)
}
