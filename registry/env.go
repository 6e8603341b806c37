package registry

import (
	"github.com/cockroachdb/errors"
)

// Environment holds the chain environment types a contract was built against.
type Environment struct {
	AccountID   TypeID
	Balance     TypeID
	Hash        TypeID
	Timestamp   TypeID
	BlockNumber TypeID
}

func (e *Environment) fields() []struct {
	name string
	id   TypeID
} {
	return []struct {
		name string
		id   TypeID
	}{
		{"account_id", e.AccountID},
		{"balance", e.Balance},
		{"hash", e.Hash},
		{"timestamp", e.Timestamp},
		{"block_number", e.BlockNumber},
	}
}

// ErrEnvironmentMismatch indicates two documents disagree on an environment type.
var ErrEnvironmentMismatch = errors.New("registry: environment type mismatch")

// CompareEnvironment checks that other declares structurally identical
// environment types. Newtype wrappers are looked through on both sides.
func (r *Registry) CompareEnvironment(other *Registry) error {
	if r.environment == nil || other.environment == nil {
		return errors.Wrap(ErrEnvironmentMismatch, "environment not declared")
	}
	theirs := other.environment.fields()
	c := &shapeComparer{a: r, b: other, seen: make(map[[2]TypeID]bool)}
	for i, f := range r.environment.fields() {
		ok, err := c.same(f.id, theirs[i].id)
		if err != nil {
			return errors.Wrapf(err, "comparing %s", f.name)
		}
		if !ok {
			return errors.Wrapf(ErrEnvironmentMismatch, "%s", f.name)
		}
	}
	return nil
}

// shapeComparer compares types of two registries structurally. Each pair of
// IDs is compared once: a pair already seen is assumed equal, which settles
// recursive types, and any mismatch ends the whole comparison.
type shapeComparer struct {
	a, b *Registry
	seen map[[2]TypeID]bool
}

func (c *shapeComparer) same(a, b TypeID) (bool, error) {
	key := [2]TypeID{a, b}
	if c.seen[key] {
		return true, nil
	}
	c.seen[key] = true

	ta, err := c.a.Unwrap(a)
	if err != nil {
		return false, err
	}
	tb, err := c.b.Unwrap(b)
	if err != nil {
		return false, err
	}
	da, db := &ta.Def, &tb.Def
	if da.Kind != db.Kind {
		return false, nil
	}

	switch da.Kind {
	case KindPrimitive:
		return da.Primitive == db.Primitive, nil
	case KindArray:
		if da.Len != db.Len {
			return false, nil
		}
		return c.same(da.Elem, db.Elem)
	case KindSequence, KindCompact:
		return c.same(da.Elem, db.Elem)
	case KindTuple:
		return c.pairs(da.Elems, db.Elems)
	case KindComposite:
		return c.pairs(fieldTypes(da.Fields), fieldTypes(db.Fields))
	case KindVariant:
		if len(da.Cases) != len(db.Cases) {
			return false, nil
		}
		for i := range da.Cases {
			ca, cb := da.Cases[i], db.Cases[i]
			if ca.Name != cb.Name || ca.Index != cb.Index {
				return false, nil
			}
			ok, err := c.pairs(fieldTypes(ca.Fields), fieldTypes(cb.Fields))
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	default:
		return da.Raw == db.Raw, nil
	}
}

func (c *shapeComparer) pairs(x, y []TypeID) (bool, error) {
	if len(x) != len(y) {
		return false, nil
	}
	for i := range x {
		ok, err := c.same(x[i], y[i])
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func fieldTypes(fields []Field) []TypeID {
	ids := make([]TypeID, len(fields))
	for i, f := range fields {
		ids[i] = f.Type
	}
	return ids
}
