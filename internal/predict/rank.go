package predict

import (
	"sort"

	"github.com/sevakavakians/kato/internal/model"
)

// RankConfig parameterizes the ranker (spec §4.13).
type RankConfig struct {
	SortAlgo       RankSortAlgo
	MaxPredictions int
}

// Rank orders preds by the configured primary key with the deterministic
// tie-break (similarity desc, frequency desc, pattern_name asc) and caps
// the result at MaxPredictions (spec §4.13). preds is sorted in place and
// returned, truncated to the cap.
func Rank(preds []model.Prediction, cfg RankConfig) []model.Prediction {
	algo := cfg.SortAlgo
	if algo == "" {
		algo = SortPotential
	}

	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		ka, kb := sortKey(a, algo), sortKey(b, algo)
		if ka != kb {
			if algo == SortFragmentation {
				return ka < kb // fragmentation ranks ascending (spec §4.13)
			}
			return ka > kb
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		return a.PatternName < b.PatternName
	})

	if cfg.MaxPredictions >= 0 && len(preds) > cfg.MaxPredictions {
		preds = preds[:cfg.MaxPredictions]
	}
	return preds
}

func sortKey(p model.Prediction, algo RankSortAlgo) float64 {
	switch algo {
	case SortSimilarity:
		return p.Similarity
	case SortEvidence:
		return p.Evidence
	case SortConfidence:
		return p.Confidence
	case SortSNR:
		return p.SNR
	case SortFrequency:
		return float64(p.Frequency)
	case SortFragmentation:
		return float64(p.Fragmentation)
	case SortNormalizedEntropy:
		return p.NormalizedEntropy
	case SortGlobalNormalizedEntropy:
		return p.GlobalNormalizedEntropy
	case SortITFDFSimilarity:
		return p.ITFDFSimilarity
	case SortConfluence:
		return p.Confluence
	case SortPredictiveInformation:
		return p.PredictiveInformation
	case SortBayesianPosterior:
		return p.BayesianPosterior
	default:
		return p.Potential
	}
}

// AggregateByFuture groups preds by canonical future serialization (spec
// §4.13 "Future-level aggregation"), run after ranking/capping so the
// aggregation reflects exactly the predictions returned to the caller.
func AggregateByFuture(preds []model.Prediction) []model.FutureAggregate {
	if len(preds) == 0 {
		return nil
	}

	order := make([]string, 0)
	groups := make(map[string]*model.FutureAggregate)
	for _, p := range preds {
		key := p.Future.CanonicalJSON()
		g, ok := groups[key]
		if !ok {
			g = &model.FutureAggregate{Future: p.Future.Clone()}
			groups[key] = g
			order = append(order, key)
		}
		g.AggregatePotential += p.Potential
		g.SupportingPatterns++
		g.TotalWeightedFrequency += p.Similarity * float64(p.Frequency)
	}

	out := make([]model.FutureAggregate, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}
