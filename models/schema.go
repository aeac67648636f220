package models

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownColumn is returned when a column is absent from the schema or the listing.
var ErrUnknownColumn = errors.New("unknown column")

// Kind selects how a column value is rendered as text.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
	KindText  Kind = "text"
	KindDate  Kind = "date"
)

const defaultDateLayout = "2006-01-02"

// Field describes one column: its name, kind and, for dates, its layout.
type Field struct {
	Name   string `yaml:"name"`
	Kind   Kind   `yaml:"kind"`
	Layout string `yaml:"layout,omitempty"`
}

// Schema is an ordered set of fields. It fixes the text form of every column
// so feature documents are reproducible.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates fields and builds a Schema.
func NewSchema(fields []Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("schema: field with empty name")
		}
		switch f.Kind {
		case KindInt, KindFloat, KindText:
		case KindDate:
			if f.Layout == "" {
				f.Layout = defaultDateLayout
			}
		default:
			return nil, fmt.Errorf("schema: field %q: unsupported kind %q", f.Name, f.Kind)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// DefaultSchema describes the House Rent dataset.
func DefaultSchema() *Schema {
	s, err := NewSchema([]Field{
		{Name: ColPropertyID, Kind: KindInt},
		{Name: ColPostedOn, Kind: KindDate, Layout: defaultDateLayout},
		{Name: ColBHK, Kind: KindInt},
		{Name: ColRent, Kind: KindInt},
		{Name: ColSize, Kind: KindInt},
		{Name: ColFloor, Kind: KindText},
		{Name: ColAreaType, Kind: KindText},
		{Name: ColAreaLocality, Kind: KindText},
		{Name: ColCity, Kind: KindText},
		{Name: ColFurnishingStatus, Kind: KindText},
		{Name: ColTenantPreferred, Kind: KindText},
		{Name: ColBathroom, Kind: KindInt},
		{Name: ColPointOfContact, Kind: KindText},
		{Name: ColImageLink, Kind: KindText},
	})
	if err != nil {
		panic(err)
	}
	return s
}

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

// LoadSchema reads a YAML schema file of the form
//
//	fields:
//	  - name: Rent
//	    kind: int
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %q: %w", path, err)
	}
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("schema: parse %q: %w", path, err)
	}
	if len(sf.Fields) == 0 {
		return nil, fmt.Errorf("schema: %q declares no fields", path)
	}
	return NewSchema(sf.Fields)
}

// Fields returns the schema fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by column name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether every column is declared.
func (s *Schema) Has(columns ...string) error {
	for _, c := range columns {
		if _, ok := s.index[c]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// Render returns the text form of the listing's value in column.
func (s *Schema) Render(l *Listing, column string) (string, error) {
	f, ok := s.Field(column)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	v, ok := l.Value(column)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return f.render(v)
}

func (f Field) render(v any) (string, error) {
	switch f.Kind {
	case KindInt:
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		case int:
			return strconv.FormatFloat(float64(n), 'f', -1, 64), nil
		case int64:
			return strconv.FormatFloat(float64(n), 'f', -1, 64), nil
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			if t.IsZero() {
				return "", nil
			}
			return t.Format(f.Layout), nil
		}
	case KindText:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		}
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("schema: field %q: cannot render %T as %s", f.Name, v, f.Kind)
}
