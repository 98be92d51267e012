package segment

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/bastiangx/lzwseg/pkg/vocab"
)

// fixedSource replays the given values in order, repeating the last one.
type fixedSource struct {
	values []float64
	i      int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[min(f.i, len(f.values)-1)]
	f.i++
	return v
}

func learn(t *testing.T, text string, maxLen int) *vocab.Model {
	t.Helper()
	m, err := vocab.Learn(context.Background(), strings.NewReader(text), vocab.Options{MaxLen: maxLen})
	if err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	return m
}

func newSegmenter(t *testing.T, m *vocab.Model, opts Options, src Source) *Segmenter {
	t.Helper()
	seg, err := New(m, opts, src, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return seg
}

const corpus = `the cat sat on the mat
cats and dogs chase the catalog of dogs
segmentation segments segmented segmenting
international nationalisation rationale
`

func TestScore_Cats(t *testing.T) {
	m := learn(t, "cat cats catalog", 3)
	got := Score(m, "cats", NewCache())

	want := []Candidate{
		{[]string{"ca", "ts"}, 1.0/48 + 3.0/48},
		{[]string{"c", "a", "ts"}, 1.0/7 + 2.0/7 + 3.0/48},
		{[]string{"cat", "s"}, 1.0/27 + 4.0/7},
		{[]string{"c", "at", "s"}, 1.0/7 + 2.0/48 + 4.0/7},
		{[]string{"ca", "t", "s"}, 1.0/48 + 3.0/7 + 4.0/7},
		{[]string{"c", "a", "t", "s"}, 1.0/7 + 2.0/7 + 3.0/7 + 4.0/7},
	}
	if len(got) != len(want) {
		t.Fatalf("Score(\"cats\") returned %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i].Subwords, want[i].Subwords) {
			t.Errorf("candidate %d = %v, want %v", i, got[i].Subwords, want[i].Subwords)
		}
		if math.Abs(got[i].Score-want[i].Score) > 1e-12 {
			t.Errorf("candidate %d score = %v, want %v", i, got[i].Score, want[i].Score)
		}
	}
}

func TestScore_EmptyWord(t *testing.T) {
	m := learn(t, "abc", 2)
	if got := Score(m, "", NewCache()); len(got) != 0 {
		t.Errorf("Score(\"\") = %v, want none", got)
	}
}

func TestScore_MemoizesSuffixes(t *testing.T) {
	m := learn(t, "cat cats catalog", 3)
	cache := NewCache()
	Score(m, "cats", cache)
	for _, suffix := range []string{"cats", "ats", "ts", "s"} {
		if _, ok := cache.Scores(suffix); !ok {
			t.Errorf("suffix %q not memoized", suffix)
		}
	}
}

func TestScore_Ordering(t *testing.T) {
	m := learn(t, corpus, 4)
	cache := NewCache()
	for _, word := range strings.Fields(corpus) {
		if len([]rune(word)) > DefaultLongWordThreshold {
			continue
		}
		cands := Score(m, word, cache)
		if len(cands) == 0 {
			t.Errorf("Score(%q) found no candidates", word)
			continue
		}
		if !sort.SliceIsSorted(cands, func(i, j int) bool { return cands[i].Score < cands[j].Score }) {
			t.Errorf("Score(%q) is not sorted", word)
		}
		for _, c := range cands {
			if strings.Join(c.Subwords, "") != word {
				t.Errorf("candidate %v does not reconstruct %q", c.Subwords, word)
			}
		}
	}
}

func TestSegment_ViterbiCats(t *testing.T) {
	m := learn(t, "cat cats catalog", 3)
	seg := newSegmenter(t, m, Options{TopK: 1}, nil)
	if got := seg.Segment("cats"); got != "ca ts" {
		t.Errorf("Segment(\"cats\") = %q, want %q", got, "ca ts")
	}
}

func TestSegment_ViterbiIsDeterministic(t *testing.T) {
	m := learn(t, corpus, 4)
	for _, word := range strings.Fields(corpus) {
		seg := newSegmenter(t, m, Options{TopK: 1, Alpha: 0.5}, NewSource(uint64(len(word))))
		first := seg.Segment(word)
		for i := 0; i < 5; i++ {
			if got := seg.Segment(word); got != first {
				t.Errorf("Segment(%q) = %q, then %q", word, first, got)
			}
		}
		if cands := Score(m, word, NewCache()); len(word) <= DefaultLongWordThreshold && first != cands[0].String() {
			t.Errorf("Segment(%q) = %q, want best candidate %q", word, first, cands[0].String())
		}
	}
}

func TestSegment_Reconstruction(t *testing.T) {
	m := learn(t, corpus, 4)
	seg := newSegmenter(t, m, Options{TopK: 5, Alpha: 0.1}, NewSource(42))

	words := append(strings.Fields(corpus),
		"supercalifragilisticexpialidocious",
		"catsegmentationaldogs",
		"ä",
		strings.Repeat("nation", 7),
	)
	for _, word := range words {
		for i := 0; i < 10; i++ {
			if got := strings.ReplaceAll(seg.Segment(word), " ", ""); got != word {
				t.Errorf("Segment(%q) reconstructs to %q", word, got)
			}
		}
	}
}

func TestSegment_SamplesFromTopK(t *testing.T) {
	m := learn(t, "cat cats catalog", 3)

	tests := []struct {
		u           float64
		want        string
		description string
	}{
		{0.0, "ca ts", "low draw picks the best candidate"},
		{0.999, "ca t s", "high draw picks the fifth candidate"},
	}
	for _, tt := range tests {
		seg := newSegmenter(t, m, Options{TopK: 5, Alpha: 0.1}, &fixedSource{values: []float64{tt.u}})
		if got := seg.Segment("cats"); got != tt.want {
			t.Errorf("%s: Segment(\"cats\") = %q, want %q", tt.description, got, tt.want)
		}
		if cands, _ := seg.Cache().TopK("cats"); len(cands) != 5 {
			t.Errorf("%s: %d retained candidates, want 5", tt.description, len(cands))
		}
	}
}

func TestSegment_EmptyWord(t *testing.T) {
	seg := newSegmenter(t, learn(t, "abc", 2), Options{TopK: 3}, nil)
	if got := seg.Segment(""); got != "" {
		t.Errorf("Segment(\"\") = %q, want empty", got)
	}
}

func TestSegment_LongWordBisection(t *testing.T) {
	m := learn(t, "banana aardvark aaa", 3)
	seg := newSegmenter(t, m, Options{TopK: 3, Alpha: 0.1}, NewSource(7))

	word := strings.Repeat("a", 40)
	got := seg.Segment(word)
	if strings.ReplaceAll(got, " ", "") != word {
		t.Errorf("Segment(40 x a) = %q does not reconstruct", got)
	}
	if _, ok := seg.Cache().TopK(word); ok {
		t.Error("40 character word should not be scored whole")
	}
	if _, ok := seg.Cache().TopK(strings.Repeat("a", 20)); ok {
		t.Error("20 character half should be bisected again")
	}
	if _, ok := seg.Cache().TopK(strings.Repeat("a", 10)); !ok {
		t.Error("10 character quarter should be scored")
	}
}

func TestSegment_LongWordMultibyte(t *testing.T) {
	m := learn(t, "überall ärger öl", 3)
	seg := newSegmenter(t, m, Options{TopK: 1, LongWordThreshold: 4}, nil)
	word := "überallärgeröl"
	if got := strings.ReplaceAll(seg.Segment(word), " ", ""); got != word {
		t.Errorf("Segment(%q) reconstructs to %q", word, got)
	}
}

func TestSegment_UnknownCharacterFallback(t *testing.T) {
	m := learn(t, "abc abd", 2)
	seg := newSegmenter(t, m, Options{TopK: 2}, nil)
	if got := seg.Segment("abz"); got != "abz" {
		t.Errorf("Segment(\"abz\") = %q, want the word unsegmented", got)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		opts        Options
		want        error
		description string
	}{
		{Options{TopK: 5, Alpha: 0.1}, nil, "defaults"},
		{Options{TopK: 1, Alpha: 0}, nil, "viterbi"},
		{Options{TopK: 0, Alpha: 0.1}, ErrInvalidTopK, "zero top-k"},
		{Options{TopK: 3, Alpha: -1}, ErrInvalidAlpha, "negative alpha"},
		{Options{TopK: 3, LongWordThreshold: -2}, ErrInvalidThreshold, "negative threshold"},
	}
	for _, tt := range tests {
		err := tt.opts.Validate()
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: Validate() = %v, want %v", tt.description, err, tt.want)
		}
	}
}

func TestNew_NilModel(t *testing.T) {
	if _, err := New(nil, Options{TopK: 1}, nil, nil); !errors.Is(err, ErrNoModel) {
		t.Errorf("New(nil) error = %v, want ErrNoModel", err)
	}
}

func TestSample(t *testing.T) {
	tests := []struct {
		scores      []float64
		alpha       float64
		u           float64
		want        int
		description string
	}{
		{nil, 1, 0.5, -1, "no scores"},
		{[]float64{3}, 1, 0.99, 0, "single score"},
		{[]float64{1, 2}, 1, 0.5, 0, "below first weight"},
		{[]float64{1, 2}, 1, 0.6, 1, "above first weight"},
		{[]float64{1, 2, 3, 4}, 0, 0.3, 1, "alpha zero is uniform"},
		{[]float64{1, 2, 3, 4}, 0, 0.99, 3, "alpha zero last bucket"},
	}
	for _, tt := range tests {
		got := Sample(tt.scores, tt.alpha, &fixedSource{values: []float64{tt.u}})
		if got != tt.want {
			t.Errorf("%s: Sample() = %d, want %d", tt.description, got, tt.want)
		}
	}
}

func TestWeights_Normalized(t *testing.T) {
	w := Weights([]float64{0.01, 0.5, 2, 10}, 0.3)
	sum := 0.0
	for i, v := range w {
		sum += v
		if i > 0 && v > w[i-1] {
			t.Errorf("weight %d = %v exceeds weight %d = %v", i, v, i-1, w[i-1])
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}
