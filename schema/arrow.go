package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// FromArrow converts an arrow data type into a type tree. Arrow container
// types outside the tree's variants (large lists, fixed size lists, unions)
// become primitives, unless they hold a map somewhere below them, which is
// reported as a SchemaMismatchError since it could not be rewritten.
func FromArrow(dt arrow.DataType) (Type, error) {
	return fromArrow("", dt)
}

func fromArrow(path string, dt arrow.DataType) (Type, error) {
	switch t := dt.(type) {
	case nil:
		return nil, mismatch(path, "missing type")
	case *arrow.MapType:
		key, err := fromArrow(join(path, KeyField), t.KeyType())
		if err != nil {
			return nil, err
		}
		if _, ok := key.(Primitive); !ok {
			return nil, mismatch(join(path, KeyField), "map key must be primitive, got %s", key)
		}
		value, err := fromArrow(join(path, ValueField), t.ItemType())
		if err != nil {
			return nil, err
		}
		return Map{Key: key, Value: value, ValueNullable: t.ItemField().Nullable, KeysSorted: t.KeysSorted}, nil
	case *arrow.ListType:
		f := t.ElemField()
		elem, err := fromArrow(join(path, "[]"), f.Type)
		if err != nil {
			return nil, err
		}
		return List{Elem: elem, ElemName: f.Name, ElemNullable: f.Nullable}, nil
	case *arrow.StructType:
		fields := make([]Field, t.NumFields())
		for i, f := range t.Fields() {
			ft, err := fromArrow(join(path, f.Name), f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = Field{Name: f.Name, Type: ft, Nullable: f.Nullable}
		}
		return Struct{Fields: fields}, nil
	default:
		if holdsMap(dt) {
			return nil, mismatch(path, "map nested in unsupported container %s", dt)
		}
		return Prim(dt), nil
	}
}

func holdsMap(dt arrow.DataType) bool {
	if dt.ID() == arrow.MAP {
		return true
	}
	nested, ok := dt.(arrow.NestedType)
	if !ok {
		return false
	}
	for _, f := range nested.Fields() {
		if holdsMap(f.Type) {
			return true
		}
	}
	return false
}

// ToArrow converts a validated type tree back to an arrow data type.
func ToArrow(t Type) (arrow.DataType, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t.toArrow(), nil
}

func (p Primitive) toArrow() arrow.DataType { return p.Arrow }

func (l List) toArrow() arrow.DataType {
	name := l.ElemName
	if name == "" {
		name = "item"
	}
	return arrow.ListOfField(arrow.Field{Name: name, Type: l.Elem.toArrow(), Nullable: l.ElemNullable})
}

func (s Struct) toArrow() arrow.DataType {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: f.Type.toArrow(), Nullable: f.Nullable}
	}
	return arrow.StructOf(fields...)
}

func (m Map) toArrow() arrow.DataType {
	mt := arrow.MapOf(m.Key.toArrow(), m.Value.toArrow())
	mt.SetItemNullable(m.ValueNullable)
	mt.KeysSorted = m.KeysSorted
	return mt
}

// FromArrowSchema returns the type tree of a whole schema, one struct field
// per top-level column.
func FromArrowSchema(sc *arrow.Schema) (Struct, error) {
	fields := make([]Field, sc.NumFields())
	for i, f := range sc.Fields() {
		t, err := fromArrow(f.Name, f.Type)
		if err != nil {
			return Struct{}, err
		}
		fields[i] = Field{Name: f.Name, Type: t, Nullable: f.Nullable}
	}
	return Struct{Fields: fields}, nil
}

// NormalizeSchema rewrites every map column of sc. Field metadata and schema
// metadata are kept.
func NormalizeSchema(sc *arrow.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, sc.NumFields())
	for i, f := range sc.Fields() {
		dt, err := normalizeType(f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable, Metadata: f.Metadata}
	}
	md := sc.Metadata()
	return arrow.NewSchema(fields, &md), nil
}

func normalizeType(path string, dt arrow.DataType) (arrow.DataType, error) {
	t, err := fromArrow(path, dt)
	if err != nil {
		return nil, err
	}
	return Normalize(t).toArrow(), nil
}

// CheckSchema returns a SchemaMismatchError naming the first top-level column
// where got differs from want in position, name, nullability or type. Schema
// level metadata is not compared.
func CheckSchema(want, got *arrow.Schema) error {
	if want.Equal(got) {
		return nil
	}
	for i, w := range want.Fields() {
		if i >= got.NumFields() {
			return mismatch(w.Name, "column missing")
		}
		g := got.Field(i)
		switch {
		case g.Name != w.Name:
			return mismatch(w.Name, "column %d is %q", i, g.Name)
		case g.Nullable != w.Nullable:
			return mismatch(w.Name, "nullable %t, want %t", g.Nullable, w.Nullable)
		case !arrow.TypeEqual(g.Type, w.Type, arrow.CheckMetadata()):
			return mismatch(w.Name, "type %s, want %s", g.Type, w.Type)
		case !g.Metadata.Equal(w.Metadata):
			return mismatch(w.Name, "field metadata differs")
		}
	}
	if got.NumFields() > want.NumFields() {
		return mismatch(got.Field(want.NumFields()).Name, "unexpected column")
	}
	return mismatch("", "endianness differs")
}
