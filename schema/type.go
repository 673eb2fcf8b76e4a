// Package schema models column shapes as a small type tree and rewrites
// key/value map columns into ordered list-of-struct columns, so that consumers
// without native map support can read them.
package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Type is one node of a column type tree. The set of variants is closed:
// Primitive, List, Struct and Map. Every variant has to provide the
// unexported methods below, so adding a variant without teaching the
// normalizer and the arrow conversion about it does not compile.
type Type interface {
	String() string

	normalize() Type
	toArrow() arrow.DataType
	validate(path string) error
	children() []Type
}

// Primitive is a leaf column type. Arrow carries the physical type the leaf
// maps to; Name is its display name.
type Primitive struct {
	Name  string
	Arrow arrow.DataType
}

// Prim wraps an arrow leaf type.
func Prim(dt arrow.DataType) Primitive {
	return Primitive{Name: dt.String(), Arrow: dt}
}

func (p Primitive) String() string { return p.Name }

// List is a variable length sequence of Elem.
type List struct {
	Elem         Type
	ElemName     string
	ElemNullable bool
}

// ListOf returns a list of nullable elements named "item".
func ListOf(elem Type) List {
	return List{Elem: elem, ElemName: "item", ElemNullable: true}
}

func (l List) String() string { return "list<" + typeString(l.Elem) + ">" }

// Field is a named member of a Struct.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

// Struct is an ordered set of fields. Field order is significant and is
// never changed by this package.
type Struct struct {
	Fields []Field
}

// StructOf builds a struct from nullable fields.
func StructOf(fields ...Field) Struct {
	return Struct{Fields: fields}
}

func (s Struct) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ": " + typeString(f.Type)
	}
	return "struct<" + strings.Join(parts, ", ") + ">"
}

// Map is an unordered key/value column type as declared by the source.
type Map struct {
	Key           Type
	Value         Type
	ValueNullable bool
	KeysSorted    bool
}

// MapOf returns a map with nullable values.
func MapOf(key, value Type) Map {
	return Map{Key: key, Value: value, ValueNullable: true}
}

func (m Map) String() string {
	return "map<" + typeString(m.Key) + ", " + typeString(m.Value) + ">"
}

func (p Primitive) children() []Type { return nil }
func (l List) children() []Type      { return []Type{l.Elem} }
func (m Map) children() []Type       { return []Type{m.Key, m.Value} }

func (s Struct) children() []Type {
	out := make([]Type, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Type
	}
	return out
}

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
