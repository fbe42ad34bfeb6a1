package keyword

import "sort"

// DefaultBucketCap is the per-bucket size limit.
const DefaultBucketCap = 50

// Buckets groups scored keywords into opportunity categories.
// Each bucket is filtered and sorted independently over the full input,
// so one keyword may appear in several buckets.
type Buckets struct {
	HighPriority   []Scored `json:"high_priority_opportunities"`
	HighVolume     []Scored `json:"high_volume_opportunities"`
	Commercial     []Scored `json:"commercial_opportunities"`
	LowCompetition []Scored `json:"low_competition_opportunities"`
	HighValue      []Scored `json:"high_value_opportunities"`
	Content        []Scored `json:"content_opportunities"`
	QuickWins      []Scored `json:"quick_wins"`
	LongTail       []Scored `json:"long_tail_opportunities"`
}

type bucketRule struct {
	keep func(*Scored) bool
	key  func(*Scored) float64
}

var (
	byScore  = func(s *Scored) float64 { return float64(s.Score) }
	byVolume = func(s *Scored) float64 { return float64(s.Volume) }
)

// Categorize builds all eight buckets; capN <= 0 uses DefaultBucketCap.
func Categorize(scored []Scored, capN int) Buckets {
	if capN <= 0 {
		capN = DefaultBucketCap
	}
	pick := func(r bucketRule) []Scored { return pickBucket(scored, r, capN) }

	return Buckets{
		HighPriority: pick(bucketRule{
			keep: func(s *Scored) bool { return s.Score >= 70 && s.Volume >= 1000 },
			key:  byScore,
		}),
		HighVolume: pick(bucketRule{
			keep: func(s *Scored) bool { return s.Volume >= 5000 },
			key:  byVolume,
		}),
		Commercial: pick(bucketRule{
			keep: func(s *Scored) bool {
				return s.Intent == IntentCommercial || s.Intent == IntentTransactional
			},
			key: byScore,
		}),
		LowCompetition: pick(bucketRule{
			keep: func(s *Scored) bool {
				return s.DifficultyOr(DefaultDifficulty) < 30 && s.Volume >= 500
			},
			key: byVolume,
		}),
		HighValue: pick(bucketRule{
			keep: func(s *Scored) bool { return s.CPC >= 1 && s.Volume >= 500 },
			key:  func(s *Scored) float64 { return s.CPC * float64(s.Volume) },
		}),
		Content: pick(bucketRule{
			keep: func(s *Scored) bool { return s.Intent == IntentInformational && s.Volume >= 500 },
			key:  byVolume,
		}),
		QuickWins: pick(bucketRule{
			keep: func(s *Scored) bool {
				return s.DifficultyOr(DefaultDifficulty) < 40 && s.Volume >= 1000 && s.Volume < 5000
			},
			key: byScore,
		}),
		LongTail: pick(bucketRule{
			keep: func(s *Scored) bool { return s.WordCount() >= 4 && s.Volume >= 100 && s.Volume < 1000 },
			key:  byVolume,
		}),
	}
}

// pickBucket filters, stable-sorts descending by key and caps.
func pickBucket(scored []Scored, r bucketRule, capN int) []Scored {
	out := make([]Scored, 0)
	for i := range scored {
		if r.keep(&scored[i]) {
			out = append(out, scored[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return r.key(&out[i]) > r.key(&out[j]) })
	if len(out) > capN {
		out = out[:capN]
	}
	return out
}

// Opportunities is an expanded and categorized keyword set, best first.
type Opportunities struct {
	Seeds    []string `json:"seeds,omitempty"`
	Keywords []Scored `json:"keywords"`
	Buckets  Buckets  `json:"buckets"`
}
