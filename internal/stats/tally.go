package stats

import (
	"cmp"
	"slices"
)

// Entry is a key plus the label shown for it.
type Entry struct {
	Key   string
	Label string
}

// Row is one rendered line of a bucket or table.
type Row struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Count    int64   `json:"count"`
	Fraction float64 `json:"fraction"`
}

// tally counts keys in first-seen order. The first label seen for a key wins.
type tally struct {
	index   map[string]int
	entries []Entry
	counts  []int64
	total   int64
}

func newTally() *tally {
	return &tally{index: make(map[string]int)}
}

func (t *tally) declare(e Entry) {
	if _, ok := t.index[e.Key]; ok {
		return
	}
	t.index[e.Key] = len(t.entries)
	t.entries = append(t.entries, e)
	t.counts = append(t.counts, 0)
}

func (t *tally) add(e Entry, n int64) {
	t.declare(e)
	t.counts[t.index[e.Key]] += n
	t.total += n
}

func (t *tally) count(key string) int64 {
	if i, ok := t.index[key]; ok {
		return t.counts[i]
	}
	return 0
}

func (t *tally) row(i int) Row {
	r := Row{Key: t.entries[i].Key, Label: t.entries[i].Label, Count: t.counts[i]}
	if r.Label == "" {
		r.Label = r.Key
	}
	if t.total > 0 {
		r.Fraction = float64(r.Count) / float64(t.total)
	}
	return r
}

// rows returns every key in first-seen order.
func (t *tally) rows() []Row {
	out := make([]Row, len(t.entries))
	for i := range t.entries {
		out[i] = t.row(i)
	}
	return out
}

// top returns at most n rows by count descending. Ties keep first-seen order.
// n <= 0 returns every row.
func (t *tally) top(n int) []Row {
	order := make([]int, len(t.entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(t.counts[b], t.counts[a])
	})
	if n > 0 && len(order) > n {
		order = order[:n]
	}
	out := make([]Row, len(order))
	for i, idx := range order {
		out[i] = t.row(idx)
	}
	return out
}
