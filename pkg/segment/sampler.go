package segment

import (
	"math"
	"math/rand/v2"
)

// Source is the random source used for sampling. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded PCG source.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Weights turns candidate scores into a normalized distribution:
// p_i is proportional to sigmoid(1/score_i)^alpha.
func Weights(scores []float64, alpha float64) []float64 {
	weights := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		weights[i] = math.Pow(sigmoid(1/s), alpha)
		total += weights[i]
	}
	if total == 0 {
		return weights
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// Sample draws one index from the distribution given by Weights.
// It returns -1 for an empty score list.
func Sample(scores []float64, alpha float64, src Source) int {
	switch len(scores) {
	case 0:
		return -1
	case 1:
		return 0
	}
	weights := Weights(scores, alpha)
	u := src.Float64()
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	return len(weights) - 1
}
