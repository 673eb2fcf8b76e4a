package schema

// Field names of the struct a map entry is rewritten into.
const (
	KeyField   = "key"
	ValueField = "value"
)

// Normalize returns a copy of t in which every Map node has been replaced by
// List(Struct[(key, K), (value, V)]). The rewrite is bottom-up, so maps nested
// inside lists, structs or other maps are rewritten too. All other structure,
// including struct field order, is kept. Normalize is idempotent.
func Normalize(t Type) Type {
	if t == nil {
		return nil
	}
	return t.normalize()
}

func (p Primitive) normalize() Type { return p }

func (l List) normalize() Type {
	return List{Elem: Normalize(l.Elem), ElemName: l.ElemName, ElemNullable: l.ElemNullable}
}

func (s Struct) normalize() Type {
	fields := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = Field{Name: f.Name, Type: Normalize(f.Type), Nullable: f.Nullable}
	}
	return Struct{Fields: fields}
}

func (m Map) normalize() Type {
	entry := Struct{Fields: []Field{
		{Name: KeyField, Type: Normalize(m.Key), Nullable: false},
		{Name: ValueField, Type: Normalize(m.Value), Nullable: m.ValueNullable},
	}}
	return ListOf(entry)
}

// Walk visits t and its descendants depth first. Children of a node are
// skipped when fn returns false for it.
func Walk(t Type, fn func(Type) bool) {
	if t == nil || !fn(t) {
		return
	}
	for _, c := range t.children() {
		Walk(c, fn)
	}
}

// CountMaps returns the number of Map nodes in t.
func CountMaps(t Type) int {
	n := 0
	Walk(t, func(t Type) bool {
		if _, ok := t.(Map); ok {
			n++
		}
		return true
	})
	return n
}

// Validate checks that t is structurally complete and that every map is
// keyed by a primitive type.
func Validate(t Type) error {
	if t == nil {
		return mismatch("", "missing type")
	}
	return t.validate("")
}

func (p Primitive) validate(path string) error {
	if p.Arrow == nil {
		return mismatch(path, "primitive %q has no physical type", p.Name)
	}
	return nil
}

func (l List) validate(path string) error {
	if l.Elem == nil {
		return mismatch(path, "list without element type")
	}
	return l.Elem.validate(join(path, "[]"))
}

func (s Struct) validate(path string) error {
	for _, f := range s.Fields {
		if f.Type == nil {
			return mismatch(join(path, f.Name), "struct field without type")
		}
		if err := f.Type.validate(join(path, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (m Map) validate(path string) error {
	if m.Key == nil || m.Value == nil {
		return mismatch(path, "map without key or value type")
	}
	if _, ok := m.Key.(Primitive); !ok {
		return mismatch(join(path, KeyField), "map key must be primitive, got %s", m.Key)
	}
	if err := m.Key.validate(join(path, KeyField)); err != nil {
		return err
	}
	return m.Value.validate(join(path, ValueField))
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	if name == "[]" {
		return path + name
	}
	return path + "." + name
}
