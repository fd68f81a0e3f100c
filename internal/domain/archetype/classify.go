package archetype

import "github.com/linksmith/matchlab/internal/domain/vector"

// Match is the outcome of classifying a vector.
type Match struct {
	Name       string
	Confidence float64
}

// Classify maps a vector to its best-matching archetype. Each satisfied
// range constraint earns full credit, a value within the tolerance outside
// the range earns half credit, and the score is the normalized fraction of
// credit earned. The fallback archetype at the floor confidence guarantees
// a non-null result.
func Classify(v vector.Vector) Match {
	best := Match{Name: Fallback, Confidence: FallbackConfidence}
	for _, def := range definitions {
		c := confidence(v, def)
		if c > best.Confidence {
			best = Match{Name: def.Name, Confidence: c}
		}
	}
	return best
}

func confidence(v vector.Vector, def Definition) float64 {
	var credit float64
	for dim, r := range def.Constraints {
		val := v.Get(dim)
		switch {
		case val >= r.Min && val <= r.Max:
			credit += 1
		case val >= r.Min-tolerance && val <= r.Max+tolerance:
			credit += 0.5
		}
	}
	return credit / float64(len(def.Constraints))
}
