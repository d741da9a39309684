package ot

// History is the authoritative, append-only sequence of applied
// operations plus the current document text (spec.md §3). It is not
// safe for concurrent use by itself — the Hub (internal/hub) is the
// single mutual-exclusion owner spec.md §5 requires.
type History struct {
	text    string
	log     []Op
	maxSize int // 0 means unlimited
}

// New creates a History. If initial is non-empty it is labeled as
// revision 0, per spec.md §3 ("Rev 0 is the empty document, or
// whatever initial text the server was constructed with").
func New(initial string) *History {
	return &History{text: initial}
}

// NewWithLimit creates a History like New, additionally capping the
// document's byte length: an insert whose result would exceed maxSize
// is rejected as TooLarge rather than applied; deletes are never
// rejected for size. maxSize <= 0 means no limit, same as New.
func NewWithLimit(initial string, maxSize int) *History {
	return &History{text: initial, maxSize: maxSize}
}

// Current returns a snapshot for initializing a new client: the
// current revision and a copy of the document text.
func (h *History) Current() (rev int, text string) {
	return len(h.log), h.text
}

// Since returns the ops committed at revisions [start, len(log)), for
// replaying history to a client that has fallen behind.
func (h *History) Since(start int) []Op {
	if start < 0 || start >= len(h.log) {
		return nil
	}
	out := make([]Op, len(h.log)-start)
	copy(out, h.log[start:])
	return out
}

// Submit takes an op authored against baseRev and, if it can be
// rewritten unambiguously against every revision committed since,
// applies it. On success it returns the new revision and the op as
// actually applied (its coordinates after transform). On any error
// the History is left byte-identical to its pre-call state.
func (h *History) Submit(baseRev int, op Op) (int, Op, error) {
	if baseRev < 0 || baseRev > len(h.log) {
		return 0, Op{}, badRev("base revision %d exceeds current revision %d", baseRev, len(h.log))
	}

	transformed := op
	for _, concurrent := range h.log[baseRev:] {
		var err error
		transformed, err = transform(transformed, concurrent)
		if err != nil {
			return 0, Op{}, err
		}
	}

	if err := validate(transformed, h.text); err != nil {
		return 0, Op{}, err
	}

	if _, isInsert := transformed.Action.(Insert); isInsert && h.maxSize > 0 {
		if n := resultLen(transformed, h.text); n > h.maxSize {
			return 0, Op{}, tooLarge("result length %d exceeds maximum of %d bytes", n, h.maxSize)
		}
	}

	h.text = apply(transformed, h.text)
	h.log = append(h.log, transformed)
	return len(h.log), transformed, nil
}

// validate checks transformed against the current text per spec.md
// §4.1 step 3: positions on UTF-8 boundaries, within document bounds.
func validate(op Op, text string) error {
	n := uint32(len(text))

	if !isBoundary(text, op.Pos) {
		return badOp("position %d is not a UTF-8 boundary", op.Pos)
	}

	switch a := op.Action.(type) {
	case Insert:
		if op.Pos > n {
			return badOp("insert position %d exceeds document length %d", op.Pos, n)
		}
	case Delete:
		end := op.Pos + a.Len
		if end < op.Pos || end > n {
			return badOp("delete range [%d,%d) exceeds document length %d", op.Pos, end, n)
		}
		if !isBoundary(text, end) {
			return badOp("delete end %d is not a UTF-8 boundary", end)
		}
	}
	return nil
}

// resultLen reports the byte length text would have after op is
// applied, without building the spliced string.
func resultLen(op Op, text string) int {
	switch a := op.Action.(type) {
	case Insert:
		return len(text) + len(a.Text)
	case Delete:
		return len(text) - int(a.Len)
	default:
		return len(text)
	}
}

// apply splices op into text. Callers must validate first.
func apply(op Op, text string) string {
	switch a := op.Action.(type) {
	case Insert:
		return text[:op.Pos] + a.Text + text[op.Pos:]
	case Delete:
		if a.Len == 0 {
			return text
		}
		return text[:op.Pos] + text[op.Pos+a.Len:]
	default:
		panic("ot: unreachable action type")
	}
}

// isBoundary reports whether byte offset pos of text falls on a
// UTF-8 code-point boundary (or at either end of the string).
func isBoundary(text string, pos uint32) bool {
	n := uint32(len(text))
	if pos == 0 || pos == n {
		return true
	}
	if pos > n {
		return false
	}
	// A byte is a continuation byte (not a boundary) iff its two
	// high bits are 10.
	return text[pos]&0xC0 != 0x80
}
