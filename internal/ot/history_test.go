package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: single client inserts "hello" at pos 0, base_rev 0.
func TestSubmitSingleInsert(t *testing.T) {
	h := New("")

	rev, applied, err := h.Submit(0, NewInsert(0, "hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.Equal(t, NewInsert(0, "hello"), applied)

	gotRev, text := h.Current()
	assert.Equal(t, 1, gotRev)
	assert.Equal(t, "hello", text)
}

// S2: two inserts at the same position, one after the other commits,
// conflict.
func TestSubmitTiedInsertsConflict(t *testing.T) {
	h := New("")

	_, _, err := h.Submit(0, NewInsert(0, "AB"))
	require.NoError(t, err)

	_, _, err = h.Submit(0, NewInsert(0, "XY"))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, kind)

	_, text := h.Current()
	assert.Equal(t, "AB", text)
}

// S3: concurrent delete and insert, positions shift correctly past
// the deleted range.
func TestSubmitConcurrentDeleteThenInsertShifts(t *testing.T) {
	h := New("ABCDE")

	rev, applied, err := h.Submit(0, NewDelete(1, 2)) // remove "BC"
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.Equal(t, NewDelete(1, 2), applied)
	_, text := h.Current()
	assert.Equal(t, "ADE", text)

	rev, applied, err = h.Submit(0, NewInsert(4, "X"))
	require.NoError(t, err)
	assert.Equal(t, 2, rev)
	assert.Equal(t, NewInsert(2, "X"), applied)
	_, text = h.Current()
	assert.Equal(t, "ADXE", text)
}

// S4: citing an unreached base revision is BadRev and leaves the
// document untouched.
func TestSubmitBadRev(t *testing.T) {
	h := New("hello")

	_, _, err := h.Submit(99, NewInsert(3, "!"))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindBadRev, kind)

	_, text := h.Current()
	assert.Equal(t, "hello", text)
}

// S5: a delete landing mid-codepoint is BadOp.
func TestSubmitMidCodepointDeleteIsBadOp(t *testing.T) {
	h := New("ab\xc3\xa9cd") // "abécd", é spans bytes 2-3

	_, _, err := h.Submit(0, NewDelete(3, 1)) // pos 3 is é's continuation byte
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindBadOp, kind)
}

// S6: three clients at rev 0; only the first committer's insert
// survives, the other two are refused as conflicts.
func TestSubmitThreeWayTieOnlyFirstSurvives(t *testing.T) {
	h := New("")

	_, _, err := h.Submit(0, NewInsert(0, "a"))
	require.NoError(t, err)

	_, _, err = h.Submit(0, NewInsert(0, "b"))
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindConflict, kind)

	_, _, err = h.Submit(0, NewInsert(0, "c"))
	require.Error(t, err)
	kind, _ = KindOf(err)
	assert.Equal(t, KindConflict, kind)

	_, text := h.Current()
	assert.Equal(t, "a", text)
}

// Invariant 2 / boundary 8: submit at current rev with no concurrent
// ops applies verbatim and the log length tracks the revision.
func TestSubmitAtCurrentRevNoOp(t *testing.T) {
	h := New("hello")

	rev, applied, err := h.Submit(0, NewInsert(5, "!"))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.Equal(t, NewInsert(5, "!"), applied)

	gotRev, text := h.Current()
	assert.Equal(t, 1, gotRev)
	assert.Equal(t, "hello!", text)
}

// Boundary 9: base_rev == 0 after N commits transforms through all N
// log entries.
func TestSubmitFromRevZeroTransformsThroughAllHistory(t *testing.T) {
	h := New("x")

	_, _, err := h.Submit(0, NewInsert(1, "a")) // "xa"
	require.NoError(t, err)
	_, _, err = h.Submit(1, NewInsert(2, "b")) // "xab"
	require.NoError(t, err)
	_, _, err = h.Submit(2, NewInsert(3, "c")) // "xabc"
	require.NoError(t, err)

	// A client still at rev 0 prepends at pos 0 — distinct from every
	// committed op's own insertion point, so it transforms cleanly
	// through all three log entries instead of tying with any of them.
	rev, applied, err := h.Submit(0, NewInsert(0, "Z"))
	require.NoError(t, err)
	assert.Equal(t, 4, rev)
	assert.Equal(t, NewInsert(0, "Z"), applied)

	_, text := h.Current()
	assert.Equal(t, "Zxabc", text)
}

// Boundary 10: a delete whose range touches a concurrent insert
// exactly at the insert's position is refused as Conflict.
func TestSubmitDeleteTouchingConcurrentInsertConflicts(t *testing.T) {
	h := New("ABCDE")

	_, _, err := h.Submit(0, NewInsert(2, "XY"))
	require.NoError(t, err)

	_, _, err = h.Submit(0, NewDelete(2, 2)) // starts exactly where the insert landed
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindConflict, kind)
}

// Boundary 11: insert at pos == len(text) (append) is accepted.
func TestSubmitAppendAtEnd(t *testing.T) {
	h := New("abc")

	rev, applied, err := h.Submit(0, NewInsert(3, "d"))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.Equal(t, NewInsert(3, "d"), applied)

	_, text := h.Current()
	assert.Equal(t, "abcd", text)
}

// Boundary 12: delete with len == 0 is accepted as a no-op, rev still
// increments.
func TestSubmitZeroLengthDeleteIsNoop(t *testing.T) {
	h := New("abc")

	rev, applied, err := h.Submit(0, NewDelete(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.Equal(t, NewDelete(1, 0), applied)

	_, text := h.Current()
	assert.Equal(t, "abc", text)
}

// Algebraic law 5: transform is position-monotone.
func TestTransformPositionMonotone(t *testing.T) {
	incoming := NewInsert(0, "x")
	concurrent := NewInsert(10, "concurrent text")

	got, err := transform(incoming, concurrent)
	require.NoError(t, err)
	assert.Equal(t, incoming, got)
}

// Algebraic law 6: transform is shift-correct.
func TestTransformShiftCorrect(t *testing.T) {
	incoming := NewInsert(20, "x")
	concurrent := NewInsert(5, "concurrent")

	got, err := transform(incoming, concurrent)
	require.NoError(t, err)
	assert.Equal(t, uint32(20+len("concurrent")), got.Pos)
}

// Algebraic law 7: after a later op has changed the text, replaying the
// log up to rev 1 from the initial text reproduces the rev-1 text.
func TestRoundTripThroughLog(t *testing.T) {
	h := New("")
	_, _, err := h.Submit(0, NewInsert(0, "hello"))
	require.NoError(t, err)

	_, textAtRev1 := h.Current()
	_, _, err = h.Submit(1, NewDelete(0, 5))
	require.NoError(t, err)

	// Re-derive rev-1 text by replaying the log from scratch.
	replay := New("")
	ops := h.Since(0)
	for _, op := range ops[:1] {
		_, _, err := replay.Submit(0, op)
		require.NoError(t, err)
	}
	_, replayedText := replay.Current()
	assert.Equal(t, textAtRev1, replayedText)
}

// Invariant 3: applied op positions land on UTF-8 boundaries of the
// base-revision text.
func TestAppliedOpPositionsOnBoundaries(t *testing.T) {
	h := New("a\xc3\xa9b") // "aéb"
	rev, applied, err := h.Submit(0, NewInsert(3, "!")) // after é
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	assert.True(t, isBoundary("a\xc3\xa9b", applied.Pos))
}

// NewWithLimit rejects a submission whose result would exceed the
// configured size cap, as TooLarge, leaving the document unchanged.
func TestSubmitRejectsResultExceedingLimit(t *testing.T) {
	h := NewWithLimit("hello", 6)

	_, _, err := h.Submit(0, NewInsert(5, "!!"))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTooLarge, kind)

	rev, text := h.Current()
	assert.Equal(t, 0, rev)
	assert.Equal(t, "hello", text)
}

// A delete that shrinks the document is never rejected as TooLarge,
// even if the document is already over the cap (e.g. the cap was
// lowered after the document grew).
func TestSubmitAllowsDeleteAboveLimit(t *testing.T) {
	h := NewWithLimit("hello world", 6)

	rev, _, err := h.Submit(0, NewDelete(5, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)

	_, text := h.Current()
	assert.Equal(t, "hello", text)
}

// New (no limit) never rejects on size.
func TestSubmitUnlimitedByDefault(t *testing.T) {
	h := New("")
	_, _, err := h.Submit(0, NewInsert(0, string(make([]byte, 1<<20))))
	require.NoError(t, err)
}
