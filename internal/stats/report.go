package stats

// DefaultReport builds the standard tree: a heading followed by the Time,
// Size, People and Lists, Me and Threads tabs.
func DefaultReport(o Options) *Group {
	g := NewGroup("Report",
		Section{Name: "Time", Nodes: []Node{
			Columns(DayOfWeek(o), TimeOfDay(o), Year(o)),
			Columns(MonthCollection(o), DayCollection(o)),
		}},
		Section{Name: "Size", Nodes: []Node{
			Columns(SizeBucket(o), SizeTable(o)),
		}},
		Section{Name: "People and Lists", Nodes: []Node{
			Columns(SenderTable(o), SenderDistribution(o)),
			Columns(RecipientTable(o), RecipientDistribution(o)),
			Columns(ListIDTable(o), ListDistribution(o)),
		}},
		Section{Name: "Me", Nodes: []Node{
			Columns(MeRecipientTable(o), MeRecipientDistribution(o)),
			Columns(MeSenderTable(o), MeSenderDistribution(o)),
		}},
		Section{Name: "Threads", Nodes: []Node{
			Columns(ThreadSizeBucket(o), ThreadSizeTable(o)),
			Columns(ThreadStarterTable(o), ThreadListTable(o)),
		}},
	)
	g.Header = NewTitle(o.Range, o.Meta)
	return g
}
