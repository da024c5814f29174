package tablediff

// DiffKind classifies a recorded difference.
type DiffKind int

const (
	// DiffTableCount means the two sets carry different table counts.
	DiffTableCount DiffKind = iota
	// DiffMissingTable means an expected table is absent from actual.
	DiffMissingTable
	// DiffRowCount means a table's row counts differ.
	DiffRowCount
	// DiffCell means one cell pair failed its policy.
	DiffCell
)

// String returns the report path name for the kind.
func (k DiffKind) String() string {
	switch k {
	case DiffTableCount:
		return "table-count"
	case DiffMissingTable:
		return "missing-table"
	case DiffRowCount:
		return "row-count"
	case DiffCell:
		return "cell"
	default:
		return "unknown"
	}
}

// Difference is one recorded unit of divergence between expected and
// actual data. Pure data: produced by the differ, consumed by the
// result, immutable once created. Expected and Actual are the raw
// values' text renderings, nil for null.
type Difference struct {
	Kind     DiffKind
	Table    string // empty for DiffTableCount
	Row      int    // DiffCell only
	Column   string // DiffCell only
	Expected *string
	Actual   *string
	Metadata *ColumnMetadata
}

// Result accumulates every difference found in one top-level comparison
// call. It is append-only while the differ runs and frozen afterwards:
// no difference is ever overwritten, deduplicated or discarded, so
// rendering is a pure projection over the full list. A Result is created
// per call and never shared or pooled.
type Result struct {
	diffs          []Difference
	expectedTables int
	actualTables   int
	expectedRows   int
	actualRows     int
}

// HasDifferences reports whether any divergence was recorded.
func (r *Result) HasDifferences() bool {
	return len(r.diffs) > 0
}

// Differences returns the recorded differences in recording order:
// table declaration order, then row index, then column selection order.
func (r *Result) Differences() []Difference {
	out := make([]Difference, len(r.diffs))
	copy(out, r.diffs)

	return out
}

// TableCounts returns the expected and actual table counts seen by the
// comparison.
func (r *Result) TableCounts() (expected, actual int) {
	return r.expectedTables, r.actualTables
}

// RowCounts returns the total expected and actual row counts across all
// compared tables.
func (r *Result) RowCounts() (expected, actual int) {
	return r.expectedRows, r.actualRows
}

// first returns the first recorded difference, for sinks that only want
// one example.
func (r *Result) first() (Difference, bool) {
	if len(r.diffs) == 0 {
		return Difference{}, false
	}

	return r.diffs[0], true
}

func (r *Result) record(d Difference) {
	r.diffs = append(r.diffs, d)
}

// diffTables returns the distinct table names that carry differences, in
// recording order. Set-level differences contribute no name.
func (r *Result) diffTables() []string {
	var (
		names []string
		seen  = map[string]bool{}
	)

	for _, d := range r.diffs {
		if d.Table == "" || seen[d.Table] {
			continue
		}

		seen[d.Table] = true
		names = append(names, d.Table)
	}

	return names
}
