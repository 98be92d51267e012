package segment

import (
	"math"
	"sort"

	"github.com/bastiangx/lzwseg/pkg/vocab"
)

// SubwordScore is rank / (length^maxLen * tableSize).
// The length power shrinks the score of longer subwords, so longer units
// are preferred for the same rank.
func SubwordScore(rank, length, tableSize, maxLen int) float64 {
	return float64(rank) / (math.Pow(float64(length), float64(maxLen)) * float64(tableSize))
}

// Score enumerates every decomposition of word into subwords of the model
// and returns them sorted by ascending score. Results for word and each of its
// suffixes are memoized in cache. An empty word, or a word that cannot be
// decomposed, yields no candidates.
func Score(model *vocab.Model, word string, cache *Cache) []Candidate {
	if word == "" {
		return nil
	}
	if cands, ok := cache.scores[word]; ok {
		return cands
	}

	var cands []Candidate
	for _, m := range model.Matches(word) {
		score := SubwordScore(m.Rank, m.Length, m.TableSize, model.MaxLen)
		rest := word[len(m.Subword):]
		if rest == "" {
			cands = append(cands, Candidate{Subwords: []string{m.Subword}, Score: score})
			continue
		}
		for _, next := range Score(model, rest, cache) {
			subwords := make([]string, 0, len(next.Subwords)+1)
			subwords = append(subwords, m.Subword)
			subwords = append(subwords, next.Subwords...)
			cands = append(cands, Candidate{Subwords: subwords, Score: score + next.Score})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score < cands[j].Score
	})
	cache.scores[word] = cands
	return cands
}
