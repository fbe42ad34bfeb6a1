// Package competitor defines discovered competitor candidates and host normalization.
package competitor

import (
	"net/url"
	"strings"
)

// Candidate is a competitor domain discovered for a reference site.
// Similarity and ScrapedChars are set by the ranker; UserSelected marks
// domains the business owner curated.
type Candidate struct {
	Domain       string   `json:"domain"`
	URL          string   `json:"url,omitempty"`
	Title        string   `json:"title,omitempty"`
	Category     string   `json:"category,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Lat          float64  `json:"lat,omitempty"`
	Lng          float64  `json:"lng,omitempty"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	ETV          float64  `json:"etv"`
	KeywordCount int      `json:"keyword_count"`
	ScrapedChars *int     `json:"scraped_chars,omitempty"`
	Similarity   *float64 `json:"similarity,omitempty"`
	UserSelected bool     `json:"user_selected,omitempty"`
}

// Target returns what should be fetched for this candidate: the URL when known, else the domain.
func (c *Candidate) Target() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Domain
}

// Host returns the candidate's bare hostname.
func (c *Candidate) Host() string {
	if c.Domain != "" {
		return BareHost(c.Domain)
	}
	return BareHost(c.URL)
}

// SimilarityOrZero returns the similarity score, 0 when unscored.
func (c *Candidate) SimilarityOrZero() float64 {
	if c.Similarity == nil {
		return 0
	}
	return *c.Similarity
}

// BareHost normalizes a domain or URL to a lowercase hostname without scheme,
// port, path or leading "www.". A scheme is assumed when absent.
func BareHost(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		// Best effort: strip the scheme and everything after the first slash.
		s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimPrefix(s, "www.")
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// HostSet normalizes a list of domains into a lookup set.
func HostSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if h := BareHost(d); h != "" {
			set[h] = struct{}{}
		}
	}
	return set
}

// Head returns at most n candidates from the front of list.
func Head(list []Candidate, n int) []Candidate {
	if n < 0 || len(list) <= n {
		out := make([]Candidate, len(list))
		copy(out, list)
		return out
	}
	out := make([]Candidate, n)
	copy(out, list[:n])
	return out
}
