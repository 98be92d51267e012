package segment

import "strings"

// Candidate is one full decomposition of a word with its cumulative score.
// Lower scores are preferred.
type Candidate struct {
	Subwords []string
	Score    float64
}

// String joins the subwords with spaces.
func (c Candidate) String() string {
	return strings.Join(c.Subwords, " ")
}

// Cache memoizes scorer results and the top-K lists exposed to sampling.
// A cache lives for one segmentation run and is not safe for concurrent use;
// parallel shards each own one.
type Cache struct {
	scores map[string][]Candidate
	topK   map[string][]Candidate
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		scores: make(map[string][]Candidate),
		topK:   make(map[string][]Candidate),
	}
}

// Scores returns the memoized candidates for a word or suffix.
func (c *Cache) Scores(s string) ([]Candidate, bool) {
	cands, ok := c.scores[s]
	return cands, ok
}

// TopK returns the retained candidates for a word.
func (c *Cache) TopK(word string) ([]Candidate, bool) {
	cands, ok := c.topK[word]
	return cands, ok
}

// Len returns the number of memoized strings and retained words.
func (c *Cache) Len() (scores, topK int) {
	return len(c.scores), len(c.topK)
}

// Reset drops everything.
func (c *Cache) Reset() {
	c.scores = make(map[string][]Candidate)
	c.topK = make(map[string][]Candidate)
}
