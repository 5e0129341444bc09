package lineage

// ParsedResult accumulates the expressions of a batch together with the
// union of their edges, including the edges of nested subqueries.
type ParsedResult struct {
	Expressions []*ParsedExpression
	Columns     ColumnSet
	Tables      TableSet
}

// NewParsedResult creates an empty result.
func NewParsedResult() *ParsedResult {
	return &ParsedResult{}
}

// Add appends expr and merges its edges into the union sets. Adding the
// same expression twice never duplicates an edge.
func (r *ParsedResult) Add(expr *ParsedExpression) {
	r.Expressions = append(r.Expressions, expr)
	for _, t := range expr.AllTables() {
		r.Tables.Add(t)
	}
	for _, c := range expr.AllColumns() {
		r.Columns.Add(c)
	}
}

// Edges returns every table edge followed by every column edge.
func (r *ParsedResult) Edges() []LineageEdge {
	edges := make([]LineageEdge, 0, r.Tables.Len()+r.Columns.Len())
	for _, t := range r.Tables.Items() {
		edges = append(edges, t)
	}
	for _, c := range r.Columns.Items() {
		edges = append(edges, c)
	}
	return edges
}
