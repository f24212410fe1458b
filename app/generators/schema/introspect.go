package schema

// Introspect classifies the fields of a model in a single pass. The first
// field flagged as primary key becomes the identifier; later flagged fields
// are treated as ordinary fields. The model is not modified.
func Introspect(m Model) Introspection {
	var in Introspection
	in.Fields = make([]Field, 0, len(m.Fields))

	for i := range m.Fields {
		f := m.Fields[i]
		if f.PrimaryKey {
			in.Flagged++
			if in.Identifier == nil {
				id := f
				in.Identifier = &id
				continue
			}
		}
		in.Fields = append(in.Fields, f)
	}

	return in
}

// Validate applies the strict identifier rule: every model must flag exactly
// one field. Tolerant callers skip it.
func Validate(models []Model) error {
	for _, m := range models {
		in := Introspect(m)
		switch {
		case in.Flagged == 0:
			return &IdentifierError{Model: m.Name, Count: 0}
		case in.Flagged > 1:
			return &IdentifierError{Model: m.Name, Count: in.Flagged}
		}
	}
	return nil
}
