package keyword

import (
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/compscope/internal/domain/vector"
)

// Diversity selection defaults.
const (
	DefaultTargetK           = 20
	DefaultOverlapThreshold  = 0.7
	DefaultSimilarityWeight  = 0.6
	DefaultVolumeWeight      = 0.3
	DefaultCompetitionWeight = 0.1
)

// SelectOptions tunes SelectDiverse. Zero fields take the defaults.
type SelectOptions struct {
	K                 int
	Threshold         float64
	SimilarityWeight  float64
	VolumeWeight      float64
	CompetitionWeight float64
}

func (o SelectOptions) withDefaults() SelectOptions {
	if o.K <= 0 {
		o.K = DefaultTargetK
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultOverlapThreshold
	}
	if o.SimilarityWeight == 0 && o.VolumeWeight == 0 && o.CompetitionWeight == 0 {
		o.SimilarityWeight = DefaultSimilarityWeight
		o.VolumeWeight = DefaultVolumeWeight
		o.CompetitionWeight = DefaultCompetitionWeight
	}
	return o
}

type ranked struct {
	keyword string
	words   map[string]struct{}
	score   float64
}

// SelectDiverse picks up to K keywords ranked by a composite of service
// similarity, normalized volume and inverse normalized competition, skipping
// any keyword whose word overlap with an accepted one reaches the threshold.
//
// The walk is greedy and never backtracks, so the result depends on ranking
// order and is not a globally optimal diverse set. Equal composite scores keep
// input order. Repeated keyword texts (case-insensitive) count once.
func SelectDiverse(records []Record, opts SelectOptions) []string {
	opts = opts.withDefaults()

	volLo, volHi := nonZeroRange(records, func(r *Record) float64 { return float64(r.Volume) })
	compLo, compHi := nonZeroRange(records, func(r *Record) float64 { return r.Competition })

	seen := make(map[string]struct{}, len(records))
	pool := make([]ranked, 0, len(records))
	for i := range records {
		r := &records[i]
		key := strings.ToLower(strings.TrimSpace(r.Keyword))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		sim := 0.0
		if r.Similarity != nil {
			sim = *r.Similarity
		}
		score := opts.SimilarityWeight*sim +
			opts.VolumeWeight*clamp01(vector.Normalize(float64(r.Volume), volLo, volHi)) +
			opts.CompetitionWeight*(1-clamp01(vector.Normalize(r.Competition, compLo, compHi)))

		pool = append(pool, ranked{keyword: r.Keyword, words: wordSet(r.Keyword), score: score})
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	accepted := make([]ranked, 0, opts.K)
	for _, cand := range pool {
		if len(accepted) == opts.K {
			break
		}
		if overlapsAny(cand, accepted, opts.Threshold) {
			continue
		}
		accepted = append(accepted, cand)
	}

	out := make([]string, len(accepted))
	for i, a := range accepted {
		out[i] = a.keyword
	}
	return out
}

// WordOverlap is the Jaccard index of the lowercase whitespace-split word sets of a and b.
func WordOverlap(a, b string) float64 {
	return jaccard(wordSet(a), wordSet(b))
}

func overlapsAny(cand ranked, accepted []ranked, threshold float64) bool {
	for _, a := range accepted {
		if jaccard(cand.words, a.words) >= threshold {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// nonZeroRange returns min and max of the non-zero values of f; (0,0) when none.
func nonZeroRange(records []Record, f func(*Record) float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range records {
		v := f(&records[i])
		if v == 0 || math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
