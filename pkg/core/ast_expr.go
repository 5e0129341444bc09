package core

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// ---------- Expression Types ----------

// ColumnRef represents a column reference. Parts holds every dotted
// identifier, so t.col, schema.t.col and alias.struct_col.field all keep
// their full path.
type ColumnRef struct {
	Parts []string
}

func (*ColumnRef) node()     {}
func (*ColumnRef) exprNode() {}

// Name returns the last part of the reference.
func (c *ColumnRef) Name() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[len(c.Parts)-1]
}

// Qualifier returns the first part when the reference is qualified.
func (c *ColumnRef) Qualifier() string {
	if len(c.Parts) < 2 {
		return ""
	}
	return c.Parts[0]
}

// Path returns the parts joined with dots. A part that itself contains a
// dot is double-quoted so the path splits back into the same parts.
func (c *ColumnRef) Path() string {
	return JoinPath(c.Parts)
}

// QuoteIdent double-quotes an identifier part containing a dot.
func QuoteIdent(part string) string {
	if !strings.Contains(part, ".") {
		return part
	}
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
}

// JoinPath joins identifier parts with dots, quoting as QuoteIdent does.
func JoinPath(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = QuoteIdent(p)
	}
	return strings.Join(quoted, ".")
}

// SplitPath splits a dotted path on the dots outside double quotes. Quoted
// parts keep their quotes.
func SplitPath(path string) []string {
	var parts []string
	start, quoted := 0, false
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '"':
			quoted = !quoted
		case '.':
			if !quoted {
				parts = append(parts, path[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, path[start:])
}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for SQL literal value types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal represents a literal value.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) node()     {}
func (*Literal) exprNode() {}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// UnaryExpr represents NOT x, -x or +x.
type UnaryExpr struct {
	Op   token.TokenType
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// FuncCall represents a function call, including aggregates and window functions.
type FuncCall struct {
	Name     string
	Distinct bool
	Star     bool // COUNT(*)
	Args     []Expr
	Filter   Expr
	Window   *WindowSpec
}

func (*FuncCall) node()     {}
func (*FuncCall) exprNode() {}

// WindowSpec represents OVER (...) or OVER name.
type WindowSpec struct {
	Name        string
	PartitionBy []Expr
	OrderBy     []OrderByItem
	// Frame is the frame clause kept verbatim, e.g. "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW".
	Frame string
}

// WhenClause is a WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CaseExpr represents CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) node()     {}
func (*CaseExpr) exprNode() {}

// CastExpr represents CAST(x AS type), SAFE_CAST(x AS type) or x::type.
type CastExpr struct {
	Expr        Expr
	TypeName    string
	Safe        bool
	DoubleColon bool
}

func (*CastExpr) node()     {}
func (*CastExpr) exprNode() {}

// InExpr represents x [NOT] IN (list) or x [NOT] IN (query).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) node()     {}
func (*InExpr) exprNode() {}

// BetweenExpr represents x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) node()     {}
func (*BetweenExpr) exprNode() {}

// IsExpr represents x IS [NOT] NULL|TRUE|FALSE.
type IsExpr struct {
	Expr  Expr
	Not   bool
	Value token.TokenType // NULL, TRUE or FALSE
}

func (*IsExpr) node()     {}
func (*IsExpr) exprNode() {}

// LikeExpr represents x [NOT] LIKE|ILIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Op      token.TokenType // LIKE or ILIKE
	Pattern Expr
}

func (*LikeExpr) node()     {}
func (*LikeExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (query).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) node()     {}
func (*ExistsExpr) exprNode() {}

// SubqueryExpr represents a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) node()     {}
func (*SubqueryExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) node()     {}
func (*ParenExpr) exprNode() {}

// StructField is a named value inside a struct literal. Name is empty
// when the field was written without an alias.
type StructField struct {
	Name  string
	Value Expr
}

// StructLiteral represents STRUCT(expr [AS name], ...) or {'name': expr, ...}.
type StructLiteral struct {
	Fields []StructField
	// Braces records the {'k': v} spelling for rendering.
	Braces bool
}

func (*StructLiteral) node()     {}
func (*StructLiteral) exprNode() {}

// FieldName returns the effective name of field i: the explicit name,
// the last part of a column reference, or _field_<i>.
func (s *StructLiteral) FieldName(i int) string {
	f := s.Fields[i]
	if f.Name != "" {
		return f.Name
	}
	if ref, ok := f.Value.(*ColumnRef); ok {
		return ref.Name()
	}
	return "_field_" + strconv.Itoa(i)
}

// ArrayLiteral represents [a, b, c] or ARRAY[a, b].
type ArrayLiteral struct {
	Elements []Expr
	Keyword  bool
}

func (*ArrayLiteral) node()     {}
func (*ArrayLiteral) exprNode() {}

// IndexExpr represents expr[index].
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

func (*IndexExpr) node()     {}
func (*IndexExpr) exprNode() {}

// IntervalExpr represents INTERVAL value [unit].
type IntervalExpr struct {
	Value Expr
	Unit  string
}

func (*IntervalExpr) node()     {}
func (*IntervalExpr) exprNode() {}

// ExtractExpr represents EXTRACT(unit FROM expr).
type ExtractExpr struct {
	Unit string
	Expr Expr
}

func (*ExtractExpr) node()     {}
func (*ExtractExpr) exprNode() {}
