// Package analysis defines the per-business document that accumulates
// competitor, keyword and opportunity results across pipeline runs.
package analysis

import (
	"time"

	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// Competitor list sources.
const (
	SourceLocation = "location"
)

// KeywordSets holds the two intersections for one competitor.
type KeywordSets struct {
	Shared *keyword.Intersection `json:"shared,omitempty"`
	Unique *keyword.Intersection `json:"unique,omitempty"`
}

// Set returns the intersection stored for mode, nil when absent.
func (k KeywordSets) Set(mode keyword.Mode) *keyword.Intersection {
	if mode == keyword.ModeShared {
		return k.Shared
	}
	return k.Unique
}

// Document is the stored analysis for one business. Sections are written
// independently; absent sections have not been computed yet.
type Document struct {
	BusinessID       string                 `json:"business_id"`
	Competitors      []competitor.Candidate `json:"competitors,omitempty"`
	CompetitorSource string                 `json:"competitor_source,omitempty"` // seed domain or "location"
	Keywords         map[string]KeywordSets `json:"keywords,omitempty"`          // by competitor host
	TargetKeywords   []string               `json:"target_keywords,omitempty"`
	Opportunities    *keyword.Opportunities `json:"opportunities,omitempty"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// CompetitorHosts lists the stored competitors' hosts in order.
func (d *Document) CompetitorHosts() []string {
	out := make([]string, 0, len(d.Competitors))
	for i := range d.Competitors {
		if h := d.Competitors[i].Host(); h != "" {
			out = append(out, h)
		}
	}
	return out
}
