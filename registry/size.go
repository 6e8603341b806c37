package registry

// maxMinSize caps computed sizes so sums and products cannot overflow.
const maxMinSize = 1 << 30

// MinSize returns the fewest bytes any value of type id encodes to, or 0 for
// an unknown id. Sizes are computed once when the document is loaded.
func (r *Registry) MinSize(id TypeID) int {
	return r.minSizes[id]
}

// computeMinSizes fills r.minSizes. It runs after checkFiniteSize, so the
// only cycles left pass through sequences, variants or empty arrays, none of
// which are descended into.
func computeMinSizes(r *Registry) {
	r.minSizes = make(map[TypeID]int, len(r.types))

	var size func(id TypeID) int
	size = func(id TypeID) int {
		if n, ok := r.minSizes[id]; ok {
			return n
		}
		t, ok := r.types[id]
		if !ok {
			return 0
		}
		var n int64
		d := &t.Def
		switch d.Kind {
		case KindPrimitive:
			if d.Primitive == Str {
				n = 1
			} else {
				n = int64(d.Primitive.Bits() / 8)
			}
		case KindSequence, KindCompact, KindVariant:
			n = 1
		case KindArray:
			if d.Len > 0 {
				n = int64(size(d.Elem)) * int64(d.Len)
			}
		case KindComposite:
			for _, f := range d.Fields {
				n += int64(size(f.Type))
			}
		case KindTuple:
			for _, e := range d.Elems {
				n += int64(size(e))
			}
		}
		n = min(n, maxMinSize)
		r.minSizes[id] = int(n)
		return int(n)
	}

	for _, id := range r.order {
		size(id)
	}
}
