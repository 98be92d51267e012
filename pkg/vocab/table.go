package vocab

import (
	"sort"

	"github.com/bastiangx/lzwseg/internal/utils"
)

// Entry is a single subword with its learned count and, once ranked, its rank.
type Entry struct {
	Subword string
	Count   int
	Rank    int
}

// Table maps subwords to entries while remembering insertion order.
// Insertion order is what makes "stable for ties" well defined when ranking.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add inserts subword with count 1, or increments its count if present.
// It reports whether the subword was already in the table.
func (t *Table) Add(subword string) bool {
	if i, ok := t.index[subword]; ok {
		t.entries[i].Count++
		return true
	}
	t.index[subword] = len(t.entries)
	t.entries = append(t.entries, Entry{Subword: subword, Count: 1})
	return false
}

// Put stores a fully formed entry, replacing any previous one.
// Used by the file decoders.
func (t *Table) Put(e Entry) {
	if i, ok := t.index[e.Subword]; ok {
		t.entries[i] = e
		return
	}
	t.index[e.Subword] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Get returns the entry for subword.
func (t *Table) Get(subword string) (Entry, bool) {
	i, ok := t.index[subword]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Contains checks if subword exists in the table.
func (t *Table) Contains(subword string) bool {
	_, ok := t.index[subword]
	return ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in table order.
// Before ranking this is insertion order, after ranking it is rank order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Remove deletes every subword in drop, keeping the relative order of the rest.
func (t *Table) Remove(drop map[string]struct{}) int {
	if len(drop) == 0 {
		return 0
	}
	kept := t.entries[:0]
	removed := 0
	for _, e := range t.entries {
		if _, ok := drop[e.Subword]; ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	t.reindex()
	return removed
}

// Rank orders entries by descending count, ties keeping table order,
// and assigns ranks starting at 1.
func (t *Table) Rank() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Count > t.entries[j].Count
	})
	ranks := utils.CreateRankList(len(t.entries))
	for i := range t.entries {
		t.entries[i].Rank = ranks[i]
	}
	t.reindex()
}

// ranked reports whether every entry carries a rank.
func (t *Table) ranked() bool {
	for _, e := range t.entries {
		if e.Rank < 1 {
			return false
		}
	}
	return true
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.entries))
	for i, e := range t.entries {
		t.index[e.Subword] = i
	}
}
