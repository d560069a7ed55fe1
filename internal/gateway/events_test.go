// ABOUTME: Tests for event envelope marshaling
// ABOUTME: Pins the exact wire shapes clients depend on

package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarus/lunarus-server/internal/store"
)

func TestMarshalEvent_Ready(t *testing.T) {
	data, err := MarshalEvent(ReadyEvent{User: ReadyUser{ID: "alice", Username: "Alice"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"READY","d":{"user":{"id":"alice","username":"Alice"}}}`, string(data))
}

func TestMarshalEvent_Subscribed(t *testing.T) {
	data, err := MarshalEvent(SubscribedEvent{ChannelID: "random"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"SUBSCRIBED","d":{"channelId":"random"}}`, string(data))
}

func TestMarshalEvent_TypingStart(t *testing.T) {
	data, err := MarshalEvent(TypingStartEvent{ChannelID: "general", UserID: "alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"TYPING_START","d":{"channelId":"general","userId":"alice"}}`, string(data))
}

func TestMarshalEvent_MessageCreate(t *testing.T) {
	data, err := MarshalEvent(MessageCreateEvent{Message: store.Message{
		ID:        "7",
		ChannelID: "general",
		AuthorID:  "alice",
		Content:   "hello",
		Kind:      "text",
		Timestamp: 1700000000000,
	}})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"t":"MESSAGE_CREATE","d":{"id":"7","channelId":"general","authorId":"alice","content":"hello","kind":"text","media":null,"ts":1700000000000}}`,
		string(data))
}

func TestFrame_Decode(t *testing.T) {
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(`{"op":"SUBSCRIBE","d":{"channelId":"random"}}`), &frame))
	assert.Equal(t, OpSubscribe, frame.Op)

	var ref channelRef
	require.NoError(t, json.Unmarshal(frame.Data, &ref))
	assert.Equal(t, "random", ref.ChannelID)
}
