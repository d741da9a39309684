// Package ot implements the operational-transformation algebra for
// textsync: a single insert/delete operation type, byte-position
// transform rules, and the authoritative revision log that applies
// them.
package ot

import "fmt"

// Action is the payload of an Op: either an Insert or a Delete.
type Action interface {
	fmt.Stringer
	isAction()
}

// Insert inserts Text at the owning Op's position.
type Insert struct {
	Text string
}

func (Insert) isAction() {}

func (a Insert) String() string {
	return fmt.Sprintf("Insert(%q)", a.Text)
}

// Delete removes Len bytes starting at the owning Op's position.
type Delete struct {
	Len uint32
}

func (Delete) isAction() {}

func (a Delete) String() string {
	return fmt.Sprintf("Delete(%d)", a.Len)
}

// Op is a single edit: a byte offset plus an insert or delete action.
// Pos and, for deletes, Pos+Len must land on UTF-8 code-point
// boundaries of the text the op is applied to.
type Op struct {
	Pos    uint32
	Action Action
}

// NewInsert builds an insert Op.
func NewInsert(pos uint32, text string) Op {
	return Op{Pos: pos, Action: Insert{Text: text}}
}

// NewDelete builds a delete Op.
func NewDelete(pos uint32, length uint32) Op {
	return Op{Pos: pos, Action: Delete{Len: length}}
}

func (o Op) String() string {
	return fmt.Sprintf("Op{pos:%d, %s}", o.Pos, o.Action)
}

// interval returns the byte interval of the document that o affects,
// expressed as (old, new): the offset an untouched following byte
// would have had before and after o is applied. For an insert the old
// and new offsets straddle the insertion point; for a delete they
// straddle the removed range in the opposite direction.
func (o Op) interval() (oldOffset, newOffset uint32) {
	switch a := o.Action.(type) {
	case Insert:
		return o.Pos, o.Pos + uint32(len(a.Text))
	case Delete:
		return o.Pos + a.Len, o.Pos
	default:
		panic(fmt.Sprintf("ot: unknown action type %T", o.Action))
	}
}
