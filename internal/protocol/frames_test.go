package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsync/textsync/internal/ot"
)

func TestSubmitMsgInsertRoundTrip(t *testing.T) {
	raw := []byte(`{"pos":3,"rev":1,"action":{"Insert":"hi"}}`)

	var m SubmitMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, uint32(3), m.Pos)
	assert.Equal(t, uint32(1), m.Rev)

	op, err := m.ToOp()
	require.NoError(t, err)
	assert.Equal(t, ot.NewInsert(3, "hi"), op)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestSubmitMsgDeleteRoundTrip(t *testing.T) {
	raw := []byte(`{"pos":4,"rev":2,"action":{"Delete":1}}`)

	var m SubmitMsg
	require.NoError(t, json.Unmarshal(raw, &m))

	op, err := m.ToOp()
	require.NoError(t, err)
	assert.Equal(t, ot.NewDelete(4, 1), op)
}

func TestActionRejectsBothFields(t *testing.T) {
	s := "x"
	var n uint32 = 1
	a := Action{Insert: &s, Delete: &n}
	_, err := a.ToOT()
	assert.Error(t, err)
}

func TestActionRejectsNeitherField(t *testing.T) {
	var a Action
	_, err := a.ToOT()
	assert.Error(t, err)
}

func TestNewEditMsgFromAppliedOp(t *testing.T) {
	msg := NewEditMsg(7, ot.NewInsert(2, "z"))
	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pos":2,"rev":7,"action":{"Insert":"z"}}`, string(out))
}

func TestNewAckMsg(t *testing.T) {
	out, err := json.Marshal(NewAckMsg(5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rev":5,"success":true}`, string(out))
}

func TestNewDesyncMsgCarriesOTKind(t *testing.T) {
	_, _, err := ot.New("hello").Submit(99, ot.NewInsert(0, "x"))
	require.Error(t, err)

	msg := NewDesyncMsg(err)
	assert.False(t, msg.Success)
	assert.Contains(t, msg.Reason, "BadRev")
}

func TestInitialMsgMarshalsAsArray(t *testing.T) {
	out, err := json.Marshal(NewInitialMsg(3, "hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `[3,"hello"]`, string(out))

	var m InitialMsg
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, uint32(3), m.Rev)
	assert.Equal(t, "hello", m.Text)
}
