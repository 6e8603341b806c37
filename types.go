package transcode

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/value"
)

// typeName describes t for error messages: its path when it has one,
// otherwise its structure.
func typeName(t *registry.Type) string {
	if t == nil {
		return ""
	}
	if len(t.Path) > 0 {
		return t.PathString()
	}
	d := &t.Def
	switch d.Kind {
	case registry.KindPrimitive:
		return d.Primitive.String()
	case registry.KindSequence:
		return fmt.Sprintf("Vec<#%d>", d.Elem)
	case registry.KindArray:
		return fmt.Sprintf("[#%d; %d]", d.Elem, d.Len)
	case registry.KindCompact:
		return fmt.Sprintf("Compact<#%d>", d.Elem)
	case registry.KindTuple:
		ids := make([]string, len(d.Elems))
		for i, id := range d.Elems {
			ids[i] = fmt.Sprintf("#%d", id)
		}
		return "(" + strings.Join(ids, ", ") + ")"
	default:
		return fmt.Sprintf("%s #%d", d.Kind, t.ID)
	}
}

func kindOf(v value.Value) string {
	if v == nil {
		return "nothing"
	}
	if vr, ok := v.(value.Variant); ok {
		return "variant " + vr.Name
	}
	return v.Kind().String()
}

var one = big.NewInt(1)

// fitsInteger reports whether n is representable in bits bits with the
// given signedness.
func fitsInteger(n *big.Int, bits int, signed bool) bool {
	if !signed {
		return n.Sign() >= 0 && n.BitLen() <= bits
	}
	limit := new(big.Int).Lsh(one, uint(bits-1))
	if n.Sign() >= 0 {
		return n.Cmp(limit) < 0
	}
	return new(big.Int).Neg(n).Cmp(limit) <= 0
}

// isByteType reports whether id is the u8 primitive.
func isByteType(reg *registry.Registry, id registry.TypeID) bool {
	t, err := reg.Resolve(id)
	if err != nil {
		return false
	}
	return t.Def.Kind == registry.KindPrimitive && t.Def.Primitive == registry.U8
}
