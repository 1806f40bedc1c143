package predict

import (
	"math"

	"github.com/sevakavakians/kato/internal/model"
)

// RankSortAlgo selects the ranker's primary sort key (spec §4.13).
type RankSortAlgo string

const (
	SortPotential               RankSortAlgo = "potential"
	SortSimilarity              RankSortAlgo = "similarity"
	SortEvidence                RankSortAlgo = "evidence"
	SortConfidence              RankSortAlgo = "confidence"
	SortSNR                     RankSortAlgo = "snr"
	SortFrequency               RankSortAlgo = "frequency"
	SortFragmentation           RankSortAlgo = "fragmentation"
	SortNormalizedEntropy       RankSortAlgo = "normalized_entropy"
	SortGlobalNormalizedEntropy RankSortAlgo = "global_normalized_entropy"
	SortITFDFSimilarity         RankSortAlgo = "itfdf_similarity"
	SortConfluence              RankSortAlgo = "confluence"
	SortPredictiveInformation   RankSortAlgo = "predictive_information"
	SortBayesianPosterior       RankSortAlgo = "bayesian_posterior"
)

// PotentialForm selects which formula feeds the `potential` metric (spec
// §4.12: "standard" is similarity*predictive_information, "legacy" is the
// additive form kept as a configurable alternative).
type PotentialForm string

const (
	PotentialStandard PotentialForm = "standard"
	PotentialLegacy   PotentialForm = "legacy"
)

// MetricsConfig parameterizes the metrics engine (spec §4.12, §4.14).
type MetricsConfig struct {
	NPatterns     int64
	SymbolFreq    map[string]int64
	PotentialForm PotentialForm
}

// ComputeAll fills in every metric on preds in place, including the
// cross-candidate ones (predictive_information, confluence,
// bayesian_posterior, global_normalized_entropy) that need the whole
// candidate set at once (spec §4.12, §4.13 future-level aggregation).
// preds and stm must correspond positionally/contextually to the same
// filter pipeline run.
func ComputeAll(preds []model.Prediction, stm model.Sequence, cfg MetricsConfig) []model.Prediction {
	if len(preds) == 0 {
		return preds
	}

	stmSymbols := stm.Symbols()

	for i := range preds {
		computePerCandidate(&preds[i], stmSymbols, cfg)
	}

	futureWeight, totalFreqWeight := groupFutureWeights(preds)

	var totalPotentialPre float64
	for i := range preds {
		key := preds[i].Future.CanonicalJSON()
		p := 0.0
		if totalFreqWeight > 0 {
			p = futureWeight[key] / totalFreqWeight
		}
		preds[i].PredictiveInformation = surprisal(p)
		preds[i].Potential = potential(preds[i], cfg.PotentialForm)
		totalPotentialPre += preds[i].Potential
	}

	groupPotential := make(map[string]float64, len(preds))
	for i := range preds {
		key := preds[i].Future.CanonicalJSON()
		groupPotential[key] += preds[i].Potential
	}
	for i := range preds {
		key := preds[i].Future.CanonicalJSON()
		if totalPotentialPre > 0 {
			preds[i].Confluence = groupPotential[key] / totalPotentialPre
		}
	}

	var totalFreq int64
	for i := range preds {
		totalFreq += preds[i].Frequency
	}
	var totalLikelihoodPrior float64
	lp := make([]float64, len(preds))
	for i := range preds {
		var prior float64
		if totalFreq > 0 {
			prior = float64(preds[i].Frequency) / float64(totalFreq)
		}
		lp[i] = preds[i].Similarity * prior
		totalLikelihoodPrior += lp[i]
	}
	for i := range preds {
		if totalLikelihoodPrior > 0 {
			preds[i].BayesianPosterior = lp[i] / totalLikelihoodPrior
		}
	}

	globalEntropy := frequencyEntropy(preds)
	for i := range preds {
		preds[i].GlobalNormalizedEntropy = globalEntropy
	}

	return preds
}

func computePerCandidate(p *model.Prediction, stmSymbols map[string]struct{}, cfg MetricsConfig) {
	patternLen := len(p.Past) + len(p.Present) + len(p.Future)
	if patternLen > 0 {
		p.Evidence = float64(len(p.Present)) / float64(patternLen)
	}

	presentSymbols := p.Present.Symbols()
	if len(presentSymbols) > 0 {
		p.Confidence = float64(len(p.Matches)) / float64(len(presentSymbols))
	}

	if denom := len(p.Matches) + len(p.Extras); denom > 0 {
		p.SNR = float64(len(p.Matches)) / float64(denom)
	}

	p.ITFDFSimilarity = itfdfSimilarity(p, stmSymbols, cfg)
	p.NormalizedEntropy = metadataEntropy(p.Metadata)
}

// itfdfSimilarity weighs each symbol shared between pattern and STM by an
// inverse-frequency term, then normalizes by the larger symbol set (spec
// §4.12).
func itfdfSimilarity(p *model.Prediction, stmSymbols map[string]struct{}, cfg MetricsConfig) float64 {
	patternSymbols := make(map[string]struct{})
	for _, seg := range [][]model.Event{p.Past, p.Present, p.Future} {
		for _, e := range seg {
			for _, sym := range e {
				patternSymbols[sym] = struct{}{}
			}
		}
	}

	var sum float64
	for sym := range patternSymbols {
		if _, inSTM := stmSymbols[sym]; !inSTM {
			continue
		}
		freq := cfg.SymbolFreq[sym]
		var ratio float64
		if cfg.NPatterns > 0 {
			ratio = float64(freq) / float64(cfg.NPatterns)
		}
		sum += 1 / (1 + math.Log2(1+ratio))
	}

	denom := len(patternSymbols)
	if len(stmSymbols) > denom {
		denom = len(stmSymbols)
	}
	if denom == 0 {
		return 0
	}
	return sum / float64(denom)
}

// groupFutureWeights sums per-prediction frequency by canonical future
// serialization, backing the frequency-weighted predictive_information
// aggregation (spec §4.12, §4.13).
func groupFutureWeights(preds []model.Prediction) (map[string]float64, float64) {
	weights := make(map[string]float64, len(preds))
	var total float64
	for _, p := range preds {
		key := p.Future.CanonicalJSON()
		w := float64(p.Frequency)
		weights[key] += w
		total += w
	}
	return weights, total
}

// surprisal is the Shannon information content -log2(p), clamped to 0 for
// p<=0 (spec §4.12 predictive_information).
func surprisal(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return -math.Log2(p)
}

func potential(p model.Prediction, form PotentialForm) float64 {
	if form == PotentialLegacy {
		return (p.Evidence+p.Confidence)*p.SNR + p.ITFDFSimilarity + 1/float64(p.Fragmentation+1)
	}
	return p.Similarity * p.PredictiveInformation
}

// metadataEntropy computes the Shannon entropy of this prediction's own
// metadata value distribution, normalized by log2(n) (spec §4.12
// normalized_entropy).
func metadataEntropy(metadata map[string][]string) float64 {
	counts := make(map[string]int)
	total := 0
	for _, vals := range metadata {
		for _, v := range vals {
			counts[v]++
			total++
		}
	}
	if total == 0 || len(counts) <= 1 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(len(counts)))
}

// frequencyEntropy computes the Shannon entropy of the frequency
// distribution across all candidates, normalized by log2(n) (spec §4.12
// global_normalized_entropy).
func frequencyEntropy(preds []model.Prediction) float64 {
	var total int64
	for _, p := range preds {
		total += p.Frequency
	}
	if total == 0 || len(preds) <= 1 {
		return 0
	}
	var h float64
	for _, p := range preds {
		if p.Frequency == 0 {
			continue
		}
		pr := float64(p.Frequency) / float64(total)
		h -= pr * math.Log2(pr)
	}
	return h / math.Log2(float64(len(preds)))
}
