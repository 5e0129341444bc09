package lineage

// ParsedExpression is the resolved lineage of one statement. It exclusively
// owns the results of its subqueries and CTEs, keyed by alias.
type ParsedExpression struct {
	Target     DataTable
	Columns    ColumnSet
	Tables     TableSet
	Subqueries map[string]*ParsedExpression
	// Expression is the statement rendered on a single line.
	Expression string
}

func newParsedExpression(target DataTable, expression string) *ParsedExpression {
	return &ParsedExpression{
		Target:     target,
		Subqueries: make(map[string]*ParsedExpression),
		Expression: expression,
	}
}

// addTable records a table edge. Self-loops are dropped.
func (e *ParsedExpression) addTable(source, target DataTable, alias string) {
	if source.key() == target.key() {
		return
	}
	e.Tables.Add(TableLineage{Source: source, Target: target, Alias: alias})
}

// addColumn records a column edge. Self-loops are dropped.
func (e *ParsedExpression) addColumn(source, target DataColumn, action Action) {
	if source.Equal(target) || source.Name == "" {
		return
	}
	e.Columns.Add(ColumnLineage{Source: source, Target: target, Action: action})
}

// subqueryFor returns the nested result whose target is table.
func (e *ParsedExpression) subqueryFor(table DataTable) *ParsedExpression {
	for _, sub := range e.Subqueries {
		if sub.Target.key() == table.key() {
			return sub
		}
	}
	return nil
}

// Walk calls fn for e and every nested subquery, depth first, with
// subqueries visited in alias order.
func (e *ParsedExpression) Walk(fn func(*ParsedExpression)) {
	fn(e)
	for _, alias := range sortedKeys(e.Subqueries) {
		e.Subqueries[alias].Walk(fn)
	}
}

// AllTables returns the table edges of e and its subqueries.
func (e *ParsedExpression) AllTables() []TableLineage {
	var set TableSet
	e.Walk(func(x *ParsedExpression) {
		for _, t := range x.Tables.Items() {
			set.Add(t)
		}
	})
	return set.Items()
}

// AllColumns returns the column edges of e and its subqueries.
func (e *ParsedExpression) AllColumns() []ColumnLineage {
	var set ColumnSet
	e.Walk(func(x *ParsedExpression) {
		for _, c := range x.Columns.Items() {
			set.Add(c)
		}
	})
	return set.Items()
}
