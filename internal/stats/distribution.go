package stats

import (
	"time"

	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/thread"
)

// Granularity is the width of a distribution's time buckets.
type Granularity int

const (
	Month Granularity = iota
	Day
)

func (g Granularity) String() string {
	if g == Day {
		return "day"
	}
	return "month"
}

func (g Granularity) floor(t time.Time) time.Time {
	y, m, d := t.Date()
	if g == Day {
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func (g Granularity) next(t time.Time) time.Time {
	if g == Day {
		return t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 1, 0)
}

func (g Granularity) label(t time.Time) string {
	if g == Day {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// TimeBucket is one calendar period of a distribution.
type TimeBucket struct {
	Start time.Time
	Label string
	t     *tally
}

// Total returns the number of counts in the period.
func (b *TimeBucket) Total() int64 { return b.t.total }

// Count returns the count for key in the period.
func (b *TimeBucket) Count(key string) int64 { return b.t.count(key) }

// Top returns the n largest keys of the period.
func (b *TimeBucket) Top(n int) []Row { return b.t.top(n) }

// Distribution slices a table by calendar period. Every period of Range is
// present, including empty ones.
type Distribution struct {
	base
	Unit        Unit
	Granularity Granularity
	Range       message.DateRange
	Location    *time.Location
	Values      func(Item) []Entry
	// SeriesSize is the number of keys Series reports by default.
	SeriesSize int

	buckets []*TimeBucket
	overall *tally
}

// NewDistribution returns a distribution over rng.
func NewDistribution(title string, unit Unit, g Granularity, rng message.DateRange, loc *time.Location, values func(Item) []Entry) *Distribution {
	return &Distribution{
		base:        base{title: title},
		Unit:        unit,
		Granularity: g,
		Range:       rng,
		Location:    loc,
		Values:      values,
		SeriesSize:  10,
	}
}

func (d *Distribution) Kind() Kind { return KindDistribution }

func (d *Distribution) loc() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}

func (d *Distribution) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !d.begin() {
		return
	}
	d.overall = newTally()
	if d.Range.IsZero() {
		return
	}
	loc := d.loc()
	index := make(map[string]int)
	end := d.Range.End.In(loc)
	for t := d.Granularity.floor(d.Range.Start.In(loc)); !t.After(end); t = d.Granularity.next(t) {
		label := d.Granularity.label(t)
		index[label] = len(d.buckets)
		d.buckets = append(d.buckets, &TimeBucket{Start: t, Label: label, t: newTally()})
	}

	for _, it := range items(c, threads, d.Unit, d.Range) {
		date := it.Date()
		if date.IsZero() {
			continue
		}
		i, ok := index[d.Granularity.label(date.In(loc))]
		if !ok {
			continue
		}
		for _, e := range d.Values(it) {
			if e.Key == "" {
				continue
			}
			d.buckets[i].t.add(e, 1)
			d.overall.add(e, 1)
		}
	}
}

// Buckets returns every period in order.
func (d *Distribution) Buckets() []*TimeBucket { return d.buckets }

// Total returns the sum of all period totals.
func (d *Distribution) Total() int64 {
	var n int64
	for _, b := range d.buckets {
		n += b.Total()
	}
	return n
}

// Series returns the top keys over the whole range and, per period, the count
// of each of those keys. n <= 0 uses SeriesSize.
func (d *Distribution) Series(n int) ([]Row, [][]int64) {
	if d.overall == nil {
		return nil, nil
	}
	if n <= 0 {
		n = d.SeriesSize
	}
	keys := d.overall.top(n)
	counts := make([][]int64, len(d.buckets))
	for i, b := range d.buckets {
		counts[i] = make([]int64, len(keys))
		for j, k := range keys {
			counts[i][j] = b.Count(k.Key)
		}
	}
	return keys, counts
}
