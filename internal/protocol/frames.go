package protocol

import (
	"encoding/json"

	"github.com/textsync/textsync/internal/ot"
)

// Frame is any server-to-client message the connection writer can
// encode. The four frame kinds have genuinely different JSON shapes
// (an array, an ack object, an edit object, a desync object), so Frame
// is a marker interface rather than a single tagged-union struct; the
// writer type-switches on it.
type Frame interface {
	isFrame()
}

func (InitialMsg) isFrame() {}
func (AckMsg) isFrame()     {}
func (EditMsg) isFrame()    {}
func (DesyncMsg) isFrame()  {}

// SubmitMsg is the frame a client sends to submit an edit: the op it
// authored, plus the revision it authored it against.
type SubmitMsg struct {
	Pos    uint32 `json:"pos"`
	Rev    uint32 `json:"rev"`
	Action Action `json:"action"`
}

// ToOp converts a SubmitMsg into the ot.Op the Hub operates on.
func (m SubmitMsg) ToOp() (ot.Op, error) {
	action, err := m.Action.ToOT()
	if err != nil {
		return ot.Op{}, err
	}
	return ot.Op{Pos: m.Pos, Action: action}, nil
}

// EditMsg is the frame broadcast to every session other than the
// originator once an op commits: its applied (post-transform)
// position and the new revision.
type EditMsg struct {
	Pos    uint32 `json:"pos"`
	Rev    uint32 `json:"rev"`
	Action Action `json:"action"`
}

// NewEditMsg builds an EditMsg from the op as History actually applied
// it and the revision it produced.
func NewEditMsg(rev int, applied ot.Op) EditMsg {
	return EditMsg{
		Pos:    applied.Pos,
		Rev:    uint32(rev),
		Action: ActionFromOT(applied.Action),
	}
}

// AckMsg is the frame sent to the originating session once its own
// submission commits.
type AckMsg struct {
	Rev     uint32 `json:"rev"`
	Success bool   `json:"success"`
}

// NewAckMsg builds the ack for a successful submission at rev.
func NewAckMsg(rev int) AckMsg {
	return AckMsg{Rev: uint32(rev), Success: true}
}

// DesyncMsg is the terminal frame sent to a session whose submission
// failed; the session is closed after this frame is sent.
type DesyncMsg struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

// NewDesyncMsg builds a desync frame from an error. (*ot.Error).Error
// already renders as "Kind: message", so its Kind appears exactly
// once on the wire; any other error reports its plain message.
func NewDesyncMsg(err error) DesyncMsg {
	return DesyncMsg{Success: false, Reason: err.Error()}
}

// InitialMsg is the frame sent immediately upon connect: the current
// revision and the full document text, encoded as a two-element JSON
// array [rev, text] rather than an object.
type InitialMsg struct {
	Rev  uint32
	Text string
}

// NewInitialMsg builds the initial snapshot frame for a newly attached
// session.
func NewInitialMsg(rev int, text string) InitialMsg {
	return InitialMsg{Rev: uint32(rev), Text: text}
}

// MarshalJSON emits InitialMsg as the two-element array the wire
// protocol expects instead of an object.
func (m InitialMsg) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{m.Rev, m.Text})
}

// UnmarshalJSON reads the [rev, text] array form.
func (m *InitialMsg) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &m.Rev); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &m.Text)
}
