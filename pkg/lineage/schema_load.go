package lineage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// schemaDocumentYAML is the on-disk schema overlay. JSON documents decode
// through the same path since JSON is a subset of YAML.
type schemaDocumentYAML struct {
	Tables []schemaTableYAML `yaml:"tables"`
}

type schemaTableYAML struct {
	Name    string             `yaml:"name"`
	Type    string             `yaml:"type"`
	Columns []schemaColumnYAML `yaml:"columns"`
}

type schemaColumnYAML struct {
	Name   string             `yaml:"name"`
	Type   string             `yaml:"type"`
	Fields []schemaColumnYAML `yaml:"fields"`
}

// LoadSchema decodes and validates a schema overlay document of the form
// {tables: [{name, type, columns: [{name, type, fields}]}]}.
func LoadSchema(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc schemaDocumentYAML
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewSchema(), nil
		}
		return nil, &SchemaValidationError{Message: fmt.Sprintf("invalid document: %v", err)}
	}

	schema := NewSchema()
	for i, t := range doc.Tables {
		path := fmt.Sprintf("tables[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			return nil, &SchemaValidationError{Path: path, Message: "table name is required"}
		}
		if t.Type != "" && !strings.EqualFold(t.Type, string(KindTable)) {
			return nil, &SchemaValidationError{
				Path:    path,
				Message: fmt.Sprintf("unsupported table type %q", t.Type),
			}
		}

		table := &SchemaTable{Name: t.Name}
		for j, c := range t.Columns {
			col, err := convertColumn(c, fmt.Sprintf("%s.columns[%d]", path, j))
			if err != nil {
				return nil, err
			}
			if err := table.SetColumn(col); err != nil {
				return nil, &SchemaValidationError{Path: path, Message: err.Error()}
			}
		}
		if err := schema.SetTable(table); err != nil {
			return nil, &SchemaValidationError{Path: path, Message: err.Error()}
		}
	}
	return schema, nil
}

// LoadSchemaFile reads a schema overlay from path.
func LoadSchemaFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()

	schema, err := LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schema, nil
}

func convertColumn(c schemaColumnYAML, path string) (*SchemaColumn, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, &SchemaValidationError{Path: path, Message: "column name is required"}
	}
	if strings.Contains(c.Name, ".") {
		return nil, &SchemaValidationError{Path: path, Message: fmt.Sprintf("column name %q must not contain '.'", c.Name)}
	}

	col := &SchemaColumn{Name: c.Name, DataType: strings.ToUpper(c.Type)}
	isRecord := col.DataType == "RECORD" || col.DataType == "STRUCT"
	if c.Fields != nil || isRecord {
		col.Fields = []*SchemaColumn{}
	}
	for i, f := range c.Fields {
		field, err := convertColumn(f, fmt.Sprintf("%s.fields[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if col.Field(field.Name) != nil {
			return nil, &SchemaValidationError{
				Path:    path,
				Message: fmt.Sprintf("duplicate field %q", field.Name),
			}
		}
		col.Fields = append(col.Fields, field)
	}
	return col, nil
}
