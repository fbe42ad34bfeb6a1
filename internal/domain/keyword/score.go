package keyword

// DefaultDifficulty is assumed when the provider reports no difficulty.
const DefaultDifficulty = 50

// Score returns the fixed-rubric opportunity score in [0,100]:
// volume (5..40) + difficulty (5..30) + CPC (0..20) + intent (3..10).
func Score(r Record) int {
	return volumeScore(r.Volume) +
		difficultyScore(r.DifficultyOr(DefaultDifficulty)) +
		cpcScore(r.CPC) +
		intentScore(r.Intent)
}

// ScoreAll scores every record, preserving input order.
func ScoreAll(records []Record) []Scored {
	out := make([]Scored, len(records))
	for i, r := range records {
		out[i] = Scored{Record: r, Score: Score(r)}
	}
	return out
}

func volumeScore(v int) int {
	switch {
	case v >= 10000:
		return 40
	case v >= 5000:
		return 30
	case v >= 1000:
		return 20
	case v >= 500:
		return 10
	default:
		return 5
	}
}

// lower difficulty is better
func difficultyScore(d int) int {
	switch {
	case d < 30:
		return 30
	case d < 50:
		return 20
	case d < 70:
		return 10
	default:
		return 5
	}
}

func cpcScore(c float64) int {
	switch {
	case c >= 5:
		return 20
	case c >= 2:
		return 15
	case c >= 1:
		return 10
	case c >= 0.5:
		return 5
	default:
		return 0
	}
}

func intentScore(in Intent) int {
	switch in {
	case IntentTransactional:
		return 10
	case IntentCommercial:
		return 8
	case IntentNavigational:
		return 5
	default:
		return 3
	}
}
