package table

// ============================================================================
// VIEW — Zero-copy access to a table or a subset of its rows
// ============================================================================
// Calculations read through View so that per-operation groups can be
// processed without copying rows.
//
// Implementations:
//   *Table   — the full source table
//   SubView  — rows selected by index from a parent view
// ============================================================================

// View provides indexed access to rows.
type View interface {
	Len() int
	Value(index int, column string) any
	Columns() []string
}

// SubView is a subset of a parent View. It holds indices, not rows.
type SubView struct {
	parent  View
	indices []int
}

// NewSubView selects rows of parent by index.
func NewSubView(parent View, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Value(i int, column string) any {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Value(v.indices[i], column)
}

func (v *SubView) Columns() []string { return v.parent.Columns() }

// Group is the set of rows sharing one key value.
type Group struct {
	Key  string
	View View
}

// GroupBy splits a view by the string form of a column. Groups come back in
// first-seen order; rows with a missing key are dropped.
func GroupBy(v View, column string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < v.Len(); i++ {
		val := v.Value(i, column)
		if IsNull(val) {
			continue
		}
		key := Stringify(val)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{Key: key, View: NewSubView(v, grouped[key])})
	}
	return groups
}

// Filter returns the rows for which keep returns true.
func Filter(v View, keep func(i int) bool) View {
	indices := make([]int, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return NewSubView(v, indices)
}
