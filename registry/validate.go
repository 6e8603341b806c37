package registry

import (
	"fmt"
)

// validate checks the invariants every consumer of a Registry relies on.
func validate(r *Registry) error {
	for _, id := range r.order {
		if err := validateType(r, r.types[id]); err != nil {
			return err
		}
	}
	if err := checkFiniteSize(r); err != nil {
		return err
	}
	computeMinSizes(r)
	if err := validateCallables(r); err != nil {
		return err
	}
	if env := r.environment; env != nil {
		for _, f := range env.fields() {
			if _, ok := r.types[f.id]; !ok {
				return schemaErrorf("spec.environment."+f.name, "dangling type reference %d", f.id)
			}
		}
	}
	return nil
}

func validateType(r *Registry, t *Type) error {
	path := fmt.Sprintf("types[id=%d]", t.ID)
	ref := func(id TypeID, what string) error {
		if _, ok := r.types[id]; !ok {
			return schemaErrorf(path, "%s references undefined type %d", what, id)
		}
		return nil
	}

	for i, p := range t.Params {
		if p.Type != nil {
			if err := ref(*p.Type, fmt.Sprintf("param %d", i)); err != nil {
				return err
			}
		}
	}

	d := &t.Def
	switch d.Kind {
	case KindComposite:
		return validateFields(r, path, d.Fields)
	case KindVariant:
		names := make(map[string]bool, len(d.Cases))
		indices := make(map[uint8]string, len(d.Cases))
		for _, c := range d.Cases {
			if names[c.Name] {
				return schemaErrorf(path, "duplicate variant name %q", c.Name)
			}
			names[c.Name] = true
			if other, dup := indices[c.Index]; dup {
				return schemaErrorf(path, "variants %q and %q share discriminant %d", other, c.Name, c.Index)
			}
			indices[c.Index] = c.Name
			if err := validateFields(r, path+"."+c.Name, c.Fields); err != nil {
				return err
			}
		}
	case KindSequence, KindArray:
		return ref(d.Elem, "element")
	case KindTuple:
		for i, e := range d.Elems {
			if err := ref(e, fmt.Sprintf("element %d", i)); err != nil {
				return err
			}
		}
	case KindCompact:
		if err := ref(d.Elem, "compact"); err != nil {
			return err
		}
		inner, err := r.Unwrap(d.Elem)
		if err != nil {
			return schemaErrorf(path, "%v", err)
		}
		if inner.Def.Kind != KindPrimitive || !inner.Def.Primitive.IsInteger() || inner.Def.Primitive.Signed() {
			return schemaErrorf(path, "compact requires an unsigned integer, found %s", describe(inner))
		}
	}
	return nil
}

func validateFields(r *Registry, path string, fields []Field) error {
	named := Named(fields)
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if (f.Name != "") != named {
			return schemaErrorf(path, "field %d mixes named and unnamed fields", i)
		}
		if named {
			if seen[f.Name] {
				return schemaErrorf(path, "duplicate field name %q", f.Name)
			}
			seen[f.Name] = true
		}
		if _, ok := r.types[f.Type]; !ok {
			return schemaErrorf(path, "field %d references undefined type %d", i, f.Type)
		}
	}
	return nil
}

// checkFiniteSize rejects types that contain themselves without passing
// through a sequence or variant. Such types have no finite encoding.
func checkFiniteSize(r *Registry) error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[TypeID]int, len(r.types))

	var visit func(id TypeID) error
	visit = func(id TypeID) error {
		switch color[id] {
		case grey:
			return schemaErrorf(fmt.Sprintf("types[id=%d]", id), "type contains itself and has no finite encoding")
		case black:
			return nil
		}
		color[id] = grey
		for _, child := range directChildren(&r.types[id].Def) {
			if err := visit(child); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, id := range r.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func directChildren(d *TypeDef) []TypeID {
	switch d.Kind {
	case KindComposite:
		return fieldTypes(d.Fields)
	case KindTuple:
		return d.Elems
	case KindArray:
		if d.Len == 0 {
			return nil
		}
		return []TypeID{d.Elem}
	case KindCompact:
		return []TypeID{d.Elem}
	default:
		return nil
	}
}

func validateCallables(r *Registry) error {
	for kind, items := range r.callables {
		seen := make(map[string]string, len(items))
		for _, item := range items {
			path := fmt.Sprintf("spec.%s %q", CallableKind(kind), item.Name)
			if CallableKind(kind) != Event && len(item.Selector) != SelectorSize {
				return schemaErrorf(path, "selector must be %d bytes, found %d", SelectorSize, len(item.Selector))
			}
			if len(item.Selector) == 0 {
				return schemaErrorf(path, "empty selector")
			}
			key := string(item.Selector)
			if other, dup := seen[key]; dup {
				return schemaErrorf(path, "selector %s already used by %q", item.SelectorHex(), other)
			}
			seen[key] = item.Name

			for i, a := range item.Args {
				if _, ok := r.types[a.Type]; !ok {
					return schemaErrorf(path, "argument %d (%s) references undefined type %d", i, a.Name, a.Type)
				}
			}
			if item.ReturnType != nil {
				if _, ok := r.types[*item.ReturnType]; !ok {
					return schemaErrorf(path, "return type references undefined type %d", *item.ReturnType)
				}
			}
		}
	}
	return nil
}

func describe(t *Type) string {
	if t.Def.Kind == KindPrimitive {
		return t.Def.Primitive.String()
	}
	if name := t.PathString(); name != "" {
		return name
	}
	return t.Def.Kind.String()
}
