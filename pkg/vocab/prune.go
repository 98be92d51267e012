package vocab

import (
	"sort"

	"github.com/charmbracelet/log"
)

// prune keeps the symbols most frequent multi-character subwords across all
// length tables and drops the rest from every length and position table.
// Single characters are never dropped. Nothing happens when the vocabulary
// already has symbols or fewer multi-character entries.
func prune(m *Model, symbols int) {
	total := m.MultiCharCount()
	if symbols >= total {
		log.Debugf("Skipping pruning: %d multi-character subwords, target %d", total, symbols)
		return
	}

	combined := make([]Entry, 0, total)
	for _, t := range m.Lengths[1:] {
		combined = append(combined, t.entries...)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Count > combined[j].Count
	})

	drop := make(map[string]struct{}, total-symbols)
	for _, e := range combined[symbols:] {
		drop[e.Subword] = struct{}{}
	}

	removed := 0
	for _, t := range m.Lengths[1:] {
		removed += t.Remove(drop)
	}
	for _, t := range m.Positions {
		t.Remove(drop)
	}
	log.Debugf("Pruned %d multi-character subwords, kept %d", removed, symbols)
}
