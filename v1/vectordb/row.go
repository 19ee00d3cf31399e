package vectordb

// Row is an ordered, read-only mapping from field name to Value.
// Field order is the order in which the fields were added.
type Row struct {
	names  []string
	values map[string]Value
}

// Entry is one named value used to build a Row.
type Entry struct {
	Name  string
	Value Value
}

// NewRow builds a Row from entries. A repeated name keeps its first position
// and takes the last value.
func NewRow(entries ...Entry) Row {
	r := Row{
		names:  make([]string, 0, len(entries)),
		values: make(map[string]Value, len(entries)),
	}
	for _, e := range entries {
		if _, seen := r.values[e.Name]; !seen {
			r.names = append(r.names, e.Name)
		}
		r.values[e.Name] = e.Value
	}
	return r
}

// Len returns the number of fields in the row.
func (r Row) Len() int { return len(r.names) }

// Names returns the field names in row order. The slice is a copy.
func (r Row) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the value of a field and whether it is present.
func (r Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Entries returns the row's fields in order.
func (r Row) Entries() []Entry {
	out := make([]Entry, len(r.names))
	for i, n := range r.names {
		out[i] = Entry{Name: n, Value: r.values[n]}
	}
	return out
}

// ToMap renders the row with Go-native values, e.g. for JSON output.
func (r Row) ToMap() map[string]any {
	out := make(map[string]any, len(r.names))
	for _, n := range r.names {
		out[n] = r.values[n].Interface()
	}
	return out
}
