package match

import (
	"sort"

	"github.com/linksmith/matchlab/internal/domain/archetype"
	dommatch "github.com/linksmith/matchlab/internal/domain/match"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/similarity"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

// Archetype bonus factors, scaled by the weaker of the two classification
// confidences.
const (
	exactArchetypeBonus      = 0.15
	compatibleArchetypeBonus = 0.08
)

// scorePool computes base and final similarity for every pool member.
func scorePool(
	target vector.Vector, targetMatch archetype.Match,
	pool []domprofile.Record, opts dommatch.Options,
) []dommatch.Result {
	results := make([]dommatch.Result, 0, len(pool))
	for _, member := range pool {
		base := similarity.Score(target, member.Vector(), opts.Metric())

		memberMatch := archetype.Classify(member.Vector())
		var bonus float64
		if opts.UseArchetypeBonus() {
			bonus = archetypeBonus(targetMatch, memberMatch)
		}

		results = append(results, dommatch.NewResult(member, base, bonus, memberMatch.Name))
	}
	return results
}

// archetypeBonus rewards exact archetype matches and, at a lower rate,
// pairs adjacent in the compatibility table.
func archetypeBonus(target, member archetype.Match) float64 {
	minConf := target.Confidence
	if member.Confidence < minConf {
		minConf = member.Confidence
	}
	switch {
	case target.Name == member.Name:
		return exactArchetypeBonus * minConf
	case archetype.Compatible(target.Name, member.Name):
		return compatibleArchetypeBonus * minConf
	default:
		return 0
	}
}

// relax filters by final similarity, lowering the threshold stepwise until
// minResults survive or the floor is reached. A short floor result is
// topped up with the best of the excluded candidates, so a non-empty input
// never relaxes down to an empty list.
func relax(
	results []dommatch.Result, minResults int,
	t Thresholds, onStep func(threshold float64, kept int),
) ([]dommatch.Result, int) {
	var steps int
	for threshold := t.Start; ; threshold -= t.Step {
		if threshold < t.Floor {
			threshold = t.Floor
		}

		kept := results[:0:0]
		for _, r := range results {
			if r.FinalSimilarity() >= threshold {
				kept = append(kept, r)
			}
		}
		if len(kept) >= minResults {
			return kept, steps
		}
		if threshold <= t.Floor {
			return topUpBelowFloor(kept, results, threshold, minResults), steps
		}

		steps++
		onStep(threshold, len(kept))
	}
}

// topUpBelowFloor pads a short floor-threshold result with the best of the
// candidates the floor excluded, up to minResults.
func topUpBelowFloor(
	kept, all []dommatch.Result, floor float64, minResults int,
) []dommatch.Result {
	var rest []dommatch.Result
	for _, r := range all {
		if r.FinalSimilarity() < floor {
			rest = append(rest, r)
		}
	}
	sortByFinal(rest)
	for _, r := range rest {
		if len(kept) >= minResults {
			break
		}
		kept = append(kept, r)
	}
	return kept
}

func sortByFinal(results []dommatch.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalSimilarity() > results[j].FinalSimilarity()
	})
}

// diversityRerank greedily rebuilds the list from the best match, balancing
// raw similarity against mean dissimilarity to the already-selected set so
// one dense cluster cannot fill every slot. The top-1 result is always kept
// first. Input must already be sorted by final similarity descending.
func diversityRerank(sorted []dommatch.Result, factor float64, maxResults int) []dommatch.Result {
	selected := make([]dommatch.Result, 0, maxResults)
	selected = append(selected, sorted[0])

	remaining := make([]dommatch.Result, len(sorted)-1)
	copy(remaining, sorted[1:])

	for len(selected) < maxResults && len(remaining) > 0 {
		bestIdx, bestScore := 0, -1.0
		for i, cand := range remaining {
			score := cand.FinalSimilarity()*(1-factor) + meanDiversity(cand, selected)*factor
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// meanDiversity is the mean weighted-euclidean dissimilarity between a
// candidate and every already-selected result.
func meanDiversity(cand dommatch.Result, selected []dommatch.Result) float64 {
	var sum float64
	for _, s := range selected {
		sum += 1 - similarity.Score(cand.Profile().Vector(), s.Profile().Vector(), similarity.WeightedEuclidean)
	}
	return sum / float64(len(selected))
}
