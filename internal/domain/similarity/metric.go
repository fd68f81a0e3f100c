package similarity

import (
	"fmt"

	"github.com/linksmith/matchlab/internal/domain"
)

// Metric selects the distance/similarity formula.
type Metric string

const (
	// WeightedEuclidean is the default metric: range-normalized, importance-
	// weighted root-mean-square distance converted to similarity.
	WeightedEuclidean Metric = "weighted_euclidean"
	// Cosine is the dot product over raw dimension values divided by the
	// product of magnitudes.
	Cosine Metric = "cosine"
	// Manhattan is the mean absolute range-normalized difference.
	Manhattan Metric = "manhattan"
	// Pearson is the correlation coefficient across the dimension list.
	Pearson Metric = "pearson"
)

// Parse validates a metric name. An empty name resolves to the default.
func Parse(s string) (Metric, error) {
	switch Metric(s) {
	case "":
		return WeightedEuclidean, nil
	case WeightedEuclidean, Cosine, Manhattan, Pearson:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownMetric, s)
	}
}

func (m Metric) String() string { return string(m) }
