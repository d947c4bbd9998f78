package types

// Row maps a column name to its scanned value.
type Row map[string]any

// ResultSet is the uniform tabular output handed to the presentation layer.
// Columns preserve the query's column order; Rows preserve row order. An
// empty ResultSet is a valid outcome, distinct from a failed query.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the result carries no rows.
func (r ResultSet) Empty() bool {
	return len(r.Rows) == 0
}
