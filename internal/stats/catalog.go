package stats

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/textutil"
)

// Options configures the statistic constructors.
type Options struct {
	// Range bounds every statistic. Items dated outside it are not counted.
	Range message.DateRange
	// Location is used for hour, weekday and calendar bucketing. Nil means time.Local.
	Location *time.Location
	// Top is the row limit of tables. Zero means DefaultTableLimit.
	Top  int
	Meta TitleMeta
}

func (o Options) loc() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

func (o Options) localDate(it Item) (time.Time, bool) {
	d := it.Date()
	if d.IsZero() {
		return d, false
	}
	return d.In(o.loc()), true
}

// DayOfWeek counts messages per weekday, Sunday first.
func DayOfWeek(o Options) *Bucket {
	keys := make([]Entry, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		keys[d] = Entry{Key: strconv.Itoa(int(d)), Label: d.String()[:3]}
	}
	b := NewBucket("Day of week", Messages, keys, func(it Item) (string, bool) {
		d, ok := o.localDate(it)
		if !ok {
			return "", false
		}
		return strconv.Itoa(int(d.Weekday())), true
	})
	b.Range = o.Range
	return b
}

// TimeOfDay counts messages per hour.
func TimeOfDay(o Options) *Bucket {
	keys := make([]Entry, 24)
	for h := range keys {
		keys[h] = Entry{Key: fmt.Sprintf("%02d", h), Label: fmt.Sprintf("%02d:00", h)}
	}
	b := NewBucket("Time of day", Messages, keys, func(it Item) (string, bool) {
		d, ok := o.localDate(it)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%02d", d.Hour()), true
	})
	b.Range = o.Range
	return b
}

// Year counts messages per year of the range.
func Year(o Options) *Bucket {
	var keys []Entry
	if !o.Range.IsZero() {
		for y := o.Range.Start.In(o.loc()).Year(); y <= o.Range.End.In(o.loc()).Year(); y++ {
			keys = append(keys, Entry{Key: strconv.Itoa(y)})
		}
	}
	b := NewBucket("Year", Messages, keys, func(it Item) (string, bool) {
		d, ok := o.localDate(it)
		if !ok || !o.Range.Contains(it.Date()) {
			return "", false
		}
		return strconv.Itoa(d.Year()), true
	})
	b.Range = o.Range
	return b
}

type sizeClass struct {
	label string
	upTo  int64
}

var sizeClasses = []sizeClass{
	{"<1K", 1 << 10},
	{"1K-10K", 10 << 10},
	{"10K-100K", 100 << 10},
	{"100K-1M", 1 << 20},
	{"1M-10M", 10 << 20},
	{">=10M", -1},
}

// SizeClass returns the magnitude label for n bytes.
func SizeClass(n int64) string {
	for _, c := range sizeClasses {
		if c.upTo < 0 || n < c.upTo {
			return c.label
		}
	}
	return sizeClasses[len(sizeClasses)-1].label
}

// SizeBucket counts messages per size class.
func SizeBucket(o Options) *Bucket {
	keys := make([]Entry, len(sizeClasses))
	for i, c := range sizeClasses {
		keys[i] = Entry{Key: c.label}
	}
	b := NewBucket("Message size", Messages, keys, func(it Item) (string, bool) {
		return SizeClass(it.Record.Size), true
	})
	b.Range = o.Range
	return b
}

func (o Options) table(title, column string, unit Unit, values func(Item) []Entry) *Table {
	t := NewTable(title, column, unit, values)
	t.Range = o.Range
	t.Limit = o.Top
	return t
}

func addressEntry(a message.Address) Entry {
	if a.IsZero() {
		return Entry{}
	}
	key := a.Email
	if key == "" {
		key = a.Name
	}
	return Entry{Key: key, Label: a.String()}
}

func senders(it Item) []Entry {
	return []Entry{addressEntry(it.Record.Sender)}
}

func recipients(it Item) []Entry {
	out := make([]Entry, 0, len(it.Record.Recipients))
	seen := make(map[string]bool, len(it.Record.Recipients))
	for _, a := range it.Record.Recipients {
		e := addressEntry(a)
		if e.Key == "" || seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		out = append(out, e)
	}
	return out
}

func lists(it Item) []Entry {
	if it.Record.ListID() == "" {
		return nil
	}
	return []Entry{addressEntry(it.Record.List)}
}

func onlyFromMe(fn func(Item) []Entry) func(Item) []Entry {
	return func(it Item) []Entry {
		if !it.Record.FromMe {
			return nil
		}
		return fn(it)
	}
}

func onlyToMe(fn func(Item) []Entry) func(Item) []Entry {
	return func(it Item) []Entry {
		if !it.Record.ToMe {
			return nil
		}
		return fn(it)
	}
}

func everyMessage(Item) []Entry {
	return []Entry{{Key: "messages", Label: "Messages"}}
}

func subjectLabel(s string) string {
	if s == "" {
		return "(no subject)"
	}
	return textutil.TruncateRunes(s, 80)
}

// SizeTable lists the largest messages. Counts are byte sizes.
func SizeTable(o Options) *Table {
	t := o.table("Largest messages", "Message", Messages, func(it Item) []Entry {
		r := it.Record
		label := subjectLabel(r.Subject)
		if from := r.Sender.Label(); from != "" {
			label += " (" + from + ")"
		}
		return []Entry{{Key: r.ID, Label: label}}
	})
	t.Weight = func(it Item) int64 { return it.Record.Size }
	t.Format = FormatBytes
	return t
}

// SenderTable ranks senders.
func SenderTable(o Options) *Table {
	return o.table("Top senders", "Sender", Messages, senders)
}

// RecipientTable ranks recipients. Each recipient of a message counts once.
func RecipientTable(o Options) *Table {
	return o.table("Top recipients", "Recipient", Messages, recipients)
}

// ListIDTable ranks mailing lists.
func ListIDTable(o Options) *Table {
	return o.table("Top lists", "List", Messages, lists)
}

// MeRecipientTable ranks the recipients of messages I sent.
func MeRecipientTable(o Options) *Table {
	return o.table("Top recipients of my messages", "Recipient", Messages, onlyFromMe(recipients))
}

// MeSenderTable ranks the senders of messages sent to me.
func MeSenderTable(o Options) *Table {
	return o.table("Top senders to me", "Sender", Messages, onlyToMe(senders))
}

var threadSizeClasses = []struct {
	label    string
	min, max int
}{
	{"1", 1, 1},
	{"2", 2, 2},
	{"3-4", 3, 4},
	{"5-9", 5, 9},
	{"10-19", 10, 19},
	{"20-49", 20, 49},
	{"50+", 50, -1},
}

// ThreadSizeClass returns the size class label for a thread of n messages.
func ThreadSizeClass(n int) string {
	for _, c := range threadSizeClasses {
		if n >= c.min && (c.max < 0 || n <= c.max) {
			return c.label
		}
	}
	return ""
}

// ThreadSizeBucket counts threads per message-count class.
func ThreadSizeBucket(o Options) *Bucket {
	keys := make([]Entry, len(threadSizeClasses))
	for i, c := range threadSizeClasses {
		keys[i] = Entry{Key: c.label}
	}
	b := NewBucket("Thread size", Threads, keys, func(it Item) (string, bool) {
		class := ThreadSizeClass(it.Thread.Size())
		return class, class != ""
	})
	b.Range = o.Range
	return b
}

func threadKey(it Item) string {
	if s := it.Thread.Starter(); s != nil {
		return s.ID
	}
	return it.Thread.Root.ID()
}

// ThreadSizeTable lists the longest threads. Counts are message counts.
func ThreadSizeTable(o Options) *Table {
	t := o.table("Longest threads", "Thread", Threads, func(it Item) []Entry {
		return []Entry{{Key: threadKey(it), Label: subjectLabel(it.Thread.Subject)}}
	})
	t.Weight = func(it Item) int64 { return int64(it.Thread.Size()) }
	return t
}

// ThreadStarterTable ranks people by threads started.
func ThreadStarterTable(o Options) *Table {
	return o.table("Top thread starters", "Sender", Threads, func(it Item) []Entry {
		s := it.Thread.Starter()
		if s == nil {
			return nil
		}
		return []Entry{addressEntry(s.Sender)}
	})
}

// ThreadListTable ranks lists by thread count.
func ThreadListTable(o Options) *Table {
	return o.table("Lists with most threads", "List", Threads, func(it Item) []Entry {
		var out []Entry
		for _, l := range it.Thread.Lists() {
			out = append(out, addressEntry(l))
		}
		return out
	})
}

func (o Options) distribution(title string, g Granularity, values func(Item) []Entry) *Distribution {
	return NewDistribution(title, Messages, g, o.Range, o.loc(), values)
}

// MonthCollection is message volume per month.
func MonthCollection(o Options) *Distribution {
	return o.distribution("Messages per month", Month, everyMessage)
}

// DayCollection is message volume per day.
func DayCollection(o Options) *Distribution {
	return o.distribution("Messages per day", Day, everyMessage)
}

// SenderDistribution is top senders per month.
func SenderDistribution(o Options) *Distribution {
	return o.distribution("Senders over time", Month, senders)
}

// RecipientDistribution is top recipients per month.
func RecipientDistribution(o Options) *Distribution {
	return o.distribution("Recipients over time", Month, recipients)
}

// ListDistribution is top lists per month.
func ListDistribution(o Options) *Distribution {
	return o.distribution("Lists over time", Month, lists)
}

// MeRecipientDistribution is the recipients of my messages per month.
func MeRecipientDistribution(o Options) *Distribution {
	return o.distribution("Recipients of my messages over time", Month, onlyFromMe(recipients))
}

// MeSenderDistribution is the senders of messages to me per month.
func MeSenderDistribution(o Options) *Distribution {
	return o.distribution("Senders to me over time", Month, onlyToMe(senders))
}
