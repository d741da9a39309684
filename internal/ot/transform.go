package ot

// transform rewrites incoming so that its coordinates are valid after
// concurrent has already been applied, per spec.md §4.1. It refuses
// with a Conflict error when an endpoint of incoming falls inside the
// byte span concurrent affected — the rewrite would otherwise be
// ambiguous.
func transform(incoming, concurrent Op) (Op, error) {
	switch a := incoming.Action.(type) {
	case Insert:
		pos, err := shiftEndpoint(incoming.Pos, concurrent)
		if err != nil {
			return Op{}, err
		}
		return Op{Pos: pos, Action: a}, nil

	case Delete:
		start, err := shiftEndpoint(incoming.Pos, concurrent)
		if err != nil {
			return Op{}, err
		}
		end, err := shiftEndpoint(incoming.Pos+a.Len, concurrent)
		if err != nil {
			return Op{}, err
		}
		length := uint32(0)
		if end > start {
			length = end - start
		}
		return Op{Pos: start, Action: Delete{Len: length}}, nil

	default:
		return Op{}, badOp("unknown action type %T", incoming.Action)
	}
}

// shiftEndpoint rewrites a single byte offset p belonging to the
// incoming op against the byte span concurrent affected.
func shiftEndpoint(p uint32, concurrent Op) (uint32, error) {
	oldOffset, newOffset := concurrent.interval()
	lo, hi := oldOffset, oldOffset
	if newOffset < lo {
		lo = newOffset
	}
	if newOffset > hi {
		hi = newOffset
	}

	switch {
	case hi < p:
		// concurrent lies wholly before p: shift by exactly the
		// length concurrent added or removed.
		shift := int64(newOffset) - int64(oldOffset)
		shifted := int64(p) + shift
		if shifted < 0 {
			shifted = 0
		}
		return uint32(shifted), nil

	case lo > p:
		// concurrent lies wholly after p: untouched.
		return p, nil

	default:
		// p falls inside the span concurrent affected: ambiguous.
		return 0, conflict("endpoint %d overlaps concurrent op %s", p, concurrent)
	}
}
