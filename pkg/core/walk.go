package core

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// every statement, table reference and expression. If f returns false the
// children of that node are skipped. Nested queries are traversed too.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch n := n.(type) {
	case *SelectStmt:
		inspectWith(n.With, f)
		if n.Body != nil {
			for _, sc := range n.Body.Cores() {
				inspectCore(sc, f)
			}
		}
	case *CreateStmt:
		inspectWith(n.With, f)
		if n.Name != nil {
			Inspect(n.Name, f)
		}
		if n.Query != nil {
			Inspect(n.Query, f)
		}
	case *InsertStmt:
		inspectWith(n.With, f)
		if n.Table != nil {
			Inspect(n.Table, f)
		}
		if n.Query != nil {
			Inspect(n.Query, f)
		}
		for _, row := range n.Values {
			inspectExprs(row, f)
		}
	case *TruncateStmt:
		if n.Table != nil {
			Inspect(n.Table, f)
		}

	case *TableName:
	case *DerivedTable:
		if n.Select != nil {
			Inspect(n.Select, f)
		}
	case *UnnestTable:
		inspectExpr(n.Expr, f)

	default:
		if e, ok := n.(Expr); ok {
			inspectExprChildren(e, f)
		}
	}
}

// InspectExpr traverses an expression tree without entering nested queries.
func InspectExpr(e Expr, f func(Expr) bool) {
	Inspect(e, func(n Node) bool {
		switch n.(type) {
		case *SubqueryExpr, *ExistsExpr:
			if x, ok := n.(Expr); ok {
				f(x)
			}
			return false
		case Expr:
			return f(n.(Expr))
		}
		return false
	})
}

func inspectWith(w *WithClause, f func(Node) bool) {
	if w == nil {
		return
	}
	for _, cte := range w.CTEs {
		if cte.Select != nil {
			Inspect(cte.Select, f)
		}
	}
}

func inspectCore(sc *SelectCore, f func(Node) bool) {
	for _, item := range sc.Columns {
		inspectExpr(item.Expr, f)
	}
	if sc.From != nil {
		for _, ref := range sc.From.Refs() {
			Inspect(ref, f)
		}
		for _, j := range sc.From.Joins {
			inspectExpr(j.Condition, f)
		}
	}
	inspectExpr(sc.Where, f)
	inspectExprs(sc.GroupBy, f)
	inspectExpr(sc.Having, f)
	inspectExpr(sc.Qualify, f)
	for _, o := range sc.OrderBy {
		inspectExpr(o.Expr, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(es []Expr, f func(Node) bool) {
	for _, e := range es {
		inspectExpr(e, f)
	}
}

func inspectExprChildren(e Expr, f func(Node) bool) {
	switch e := e.(type) {
	case *BinaryExpr:
		inspectExpr(e.Left, f)
		inspectExpr(e.Right, f)
	case *UnaryExpr:
		inspectExpr(e.Expr, f)
	case *FuncCall:
		inspectExprs(e.Args, f)
		inspectExpr(e.Filter, f)
		if e.Window != nil {
			inspectExprs(e.Window.PartitionBy, f)
			for _, o := range e.Window.OrderBy {
				inspectExpr(o.Expr, f)
			}
		}
	case *CaseExpr:
		inspectExpr(e.Operand, f)
		for _, w := range e.Whens {
			inspectExpr(w.Condition, f)
			inspectExpr(w.Result, f)
		}
		inspectExpr(e.Else, f)
	case *CastExpr:
		inspectExpr(e.Expr, f)
	case *InExpr:
		inspectExpr(e.Expr, f)
		inspectExprs(e.Values, f)
		if e.Query != nil {
			Inspect(e.Query, f)
		}
	case *BetweenExpr:
		inspectExpr(e.Expr, f)
		inspectExpr(e.Low, f)
		inspectExpr(e.High, f)
	case *IsExpr:
		inspectExpr(e.Expr, f)
	case *LikeExpr:
		inspectExpr(e.Expr, f)
		inspectExpr(e.Pattern, f)
	case *ExistsExpr:
		if e.Select != nil {
			Inspect(e.Select, f)
		}
	case *SubqueryExpr:
		if e.Select != nil {
			Inspect(e.Select, f)
		}
	case *ParenExpr:
		inspectExpr(e.Expr, f)
	case *StructLiteral:
		for _, fld := range e.Fields {
			inspectExpr(fld.Value, f)
		}
	case *ArrayLiteral:
		inspectExprs(e.Elements, f)
	case *IndexExpr:
		inspectExpr(e.Expr, f)
		inspectExpr(e.Index, f)
	case *IntervalExpr:
		inspectExpr(e.Value, f)
	case *ExtractExpr:
		inspectExpr(e.Expr, f)
	}
}
