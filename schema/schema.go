package schema

// ============================================================================
// SCHEMA — Describes the shape of an uploaded ERP / MES / PLM extract
// ============================================================================
// Auto-discovered from raw text cells (CSV) before the rows are typed.
// The loader uses the column kinds to convert cells into Go values.
// The CLI `describe` command prints the profile as-is.
// ============================================================================

// Kind is the inferred value type of a column.
type Kind string

const (
	KindText    Kind = "text"
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindTime    Kind = "time"
	KindBool    Kind = "bool"
)

// Role says how KPI calculations are expected to use a column.
type Role string

const (
	RoleDimension Role = "dimension" // grouping key: activity, station, supplier
	RoleMeasure   Role = "measure"   // aggregated value: times, costs, pieces
	RoleSkipped   Role = "skipped"   // empty or an identifier
)

// Profile describes every column of one extract.
type Profile struct {
	Name         string   `json:"name"`
	Rows         int      `json:"rows"`
	Columns      []Column `json:"columns"`
	DiscoveredAt string   `json:"discoveredAt,omitempty"`
}

// Column is the discovery result for one header.
type Column struct {
	Name            string   `json:"name"`
	Key             string   `json:"key"`
	Index           int      `json:"index"`
	Kind            Kind     `json:"kind"`
	Role            Role     `json:"role"`
	SkipReason      string   `json:"skipReason,omitempty"`
	NullCount       int      `json:"nullCount"`
	UniqueCount     int      `json:"uniqueCount"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// Column looks a header up by its exact name.
func (p Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Kinds returns the kind of every column, in header order.
func (p Profile) Kinds() []Kind {
	kinds := make([]Kind, len(p.Columns))
	for i, c := range p.Columns {
		kinds[i] = c.Kind
	}
	return kinds
}

// Names returns the headers of the columns with the given role.
func (p Profile) Names(role Role) []string {
	var names []string
	for _, c := range p.Columns {
		if c.Role == role {
			names = append(names, c.Name)
		}
	}
	return names
}
