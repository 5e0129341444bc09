package lineage

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
)

// ColumnDocument is the serialized form of a ColumnLineage.
type ColumnDocument struct {
	Target     string `json:"target" yaml:"target"`
	Source     string `json:"source" yaml:"source"`
	Action     string `json:"action" yaml:"action"`
	NodeType   string `json:"node_type" yaml:"node_type"`
	SourceType string `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	TableType  string `json:"table_type,omitempty" yaml:"table_type,omitempty"`
}

// TableDocument is the serialized form of a TableLineage.
type TableDocument struct {
	Target     string `json:"target" yaml:"target"`
	Source     string `json:"source" yaml:"source"`
	Alias      string `json:"alias,omitempty" yaml:"alias,omitempty"`
	NodeType   string `json:"node_type" yaml:"node_type"`
	SourceType string `json:"source_type" yaml:"source_type"`
	Type       string `json:"type" yaml:"type"`
}

// ExpressionDocument is the serialized form of a ParsedExpression.
type ExpressionDocument struct {
	Target     string                         `json:"target" yaml:"target"`
	TargetType string                         `json:"target_type" yaml:"target_type"`
	Columns    []ColumnDocument               `json:"columns" yaml:"columns"`
	Tables     []TableDocument                `json:"tables" yaml:"tables"`
	Subqueries map[string]*ExpressionDocument `json:"subqueries" yaml:"subqueries"`
	Expression string                         `json:"expression" yaml:"expression"`
}

// ResultDocument is the serialized form of a ParsedResult.
type ResultDocument struct {
	Expressions []*ExpressionDocument `json:"expressions" yaml:"expressions"`
	Columns     []ColumnDocument      `json:"columns" yaml:"columns"`
	Tables      []TableDocument       `json:"tables" yaml:"tables"`
}

// Document returns the canonical serialization of e. Edge lists are sorted
// so equal inputs always produce equal documents.
func (e *ParsedExpression) Document() *ExpressionDocument {
	doc := &ExpressionDocument{
		Target:     e.Target.Name,
		TargetType: string(e.Target.Kind),
		Columns:    columnDocuments(e.Columns.Items()),
		Tables:     tableDocuments(e.Tables.Items()),
		Subqueries: make(map[string]*ExpressionDocument, len(e.Subqueries)),
		Expression: e.Expression,
	}
	for alias, sub := range e.Subqueries {
		doc.Subqueries[alias] = sub.Document()
	}
	return doc
}

// MarshalJSON implements json.Marshaler using Document.
func (e *ParsedExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Document())
}

// Document returns the canonical serialization of r.
func (r *ParsedResult) Document() *ResultDocument {
	doc := &ResultDocument{
		Expressions: make([]*ExpressionDocument, 0, len(r.Expressions)),
		Columns:     columnDocuments(r.Columns.Items()),
		Tables:      tableDocuments(r.Tables.Items()),
	}
	for _, e := range r.Expressions {
		doc.Expressions = append(doc.Expressions, e.Document())
	}
	return doc
}

// MarshalJSON implements json.Marshaler using Document.
func (r *ParsedResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

func columnDocuments(cols []ColumnLineage) []ColumnDocument {
	docs := make([]ColumnDocument, 0, len(cols))
	for _, c := range cols {
		docs = append(docs, ColumnDocument{
			Target:     c.Target.String(),
			Source:     c.Source.String(),
			Action:     string(c.Action),
			NodeType:   string(c.NodeType()),
			SourceType: string(c.SourceType()),
			TableType:  string(c.TargetType()),
		})
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		if a.SourceType != b.SourceType {
			return a.SourceType < b.SourceType
		}
		return a.TableType < b.TableType
	})
	return docs
}

func tableDocuments(tables []TableLineage) []TableDocument {
	docs := make([]TableDocument, 0, len(tables))
	for _, t := range tables {
		docs = append(docs, TableDocument{
			Target:     t.Target.Name,
			Source:     t.Source.Name,
			Alias:      t.Alias,
			NodeType:   string(t.NodeType()),
			SourceType: string(t.SourceType()),
			Type:       string(t.TargetType()),
		})
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Alias != b.Alias {
			return a.Alias < b.Alias
		}
		if a.SourceType != b.SourceType {
			return a.SourceType < b.SourceType
		}
		return a.Type < b.Type
	})
	return docs
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
