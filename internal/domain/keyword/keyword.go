// Package keyword holds ranked-keyword records and the pure scoring, bucketing
// and diversity-selection rules applied to them.
package keyword

import "strings"

// Intent is the search intent category reported by the SEO data provider.
type Intent string

// Intent values.
const (
	IntentTransactional Intent = "transactional"
	IntentCommercial    Intent = "commercial"
	IntentNavigational  Intent = "navigational"
	IntentInformational Intent = "informational"
)

// ParseIntent lowercases and validates a provider intent string; unknown values map to "".
func ParseIntent(s string) Intent {
	switch in := Intent(strings.ToLower(strings.TrimSpace(s))); in {
	case IntentTransactional, IntentCommercial, IntentNavigational, IntentInformational:
		return in
	default:
		return ""
	}
}

// Record is a keyword with its search metrics.
// Difficulty is nil when the provider does not report it.
type Record struct {
	Keyword     string         `json:"keyword"`
	Volume      int            `json:"search_volume"`
	Competition float64        `json:"competition"`
	CPC         float64        `json:"cpc"`
	Intent      Intent         `json:"intent,omitempty"`
	Difficulty  *int           `json:"keyword_difficulty,omitempty"`
	Positions   map[string]int `json:"rank_positions,omitempty"`
	Similarity  *float64       `json:"similarity,omitempty"`
	Targeted    bool           `json:"targeted,omitempty"`
}

// DifficultyOr returns the difficulty or def when unknown.
func (r *Record) DifficultyOr(def int) int {
	if r.Difficulty == nil {
		return def
	}
	return *r.Difficulty
}

// WordCount counts whitespace-separated words.
func (r *Record) WordCount() int {
	return len(strings.Fields(r.Keyword))
}

// Scored is a record with its composite opportunity score.
type Scored struct {
	Record
	Score int `json:"opportunity_score"`
}

// Mode selects which side of a domain intersection is returned.
type Mode string

// Intersection modes.
const (
	// ModeShared returns keywords both domains rank for.
	ModeShared Mode = "shared"
	// ModeUnique returns keywords only the first domain ranks for.
	ModeUnique Mode = "unique"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeShared || m == ModeUnique }

// Intersection is the result of a two-domain keyword comparison.
type Intersection struct {
	TotalCount int      `json:"total_count"`
	Items      []Record `json:"items"`
}

// MarkTargeted flags records whose keyword text exactly matches one of targets.
// Returns the number of records marked.
func MarkTargeted(records []Record, targets []string) int {
	if len(targets) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	n := 0
	for i := range records {
		if _, ok := set[records[i].Keyword]; ok {
			records[i].Targeted = true
			n++
		}
	}
	return n
}
