package bridge

import (
	"context"
	"testing"
	"time"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	"PPRealtime/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	keys []string
	data [][]byte
}

func (s *captureSink) Send(_ context.Context, key, msgID string, data []byte) error {
	if msgID == "" {
		return errs.New("empty msgID")
	}
	s.keys = append(s.keys, key)
	s.data = append(s.data, data)
	return nil
}

type recorded struct {
	method  string
	target  string
	event   string
	payload any
	extra   []string
	call    *callmodel.Call
}

type recorder struct {
	calls []recorded
}

var _ notify.Notifier = (*recorder)(nil)

func (r *recorder) NotifyDirect(_ context.Context, userID, event string, payload any) error {
	r.calls = append(r.calls, recorded{method: "direct", target: userID, event: event, payload: payload})
	return nil
}

func (r *recorder) NotifyGroup(_ context.Context, groupID, event string, payload any) error {
	r.calls = append(r.calls, recorded{method: "group", target: groupID, event: event, payload: payload})
	return nil
}

func (r *recorder) NotifyMessageSeen(_ context.Context, senderID, messageID string) error {
	r.calls = append(r.calls, recorded{method: "seen", target: senderID, extra: []string{messageID}})
	return nil
}

func (r *recorder) NotifyCallInvite(_ context.Context, receiverID string, call *callmodel.Call) error {
	r.calls = append(r.calls, recorded{method: "invite", target: receiverID, call: call})
	return nil
}

func (r *recorder) NotifyCallConnected(_ context.Context, callID string) error {
	r.calls = append(r.calls, recorded{method: "connected", target: callID})
	return nil
}

func (r *recorder) NotifyCallEnded(_ context.Context, callID string, participantIDs ...string) error {
	r.calls = append(r.calls, recorded{method: "ended", target: callID, extra: participantIDs})
	return nil
}

func relay(t *testing.T, sink *captureSink, rec *recorder) {
	t.Helper()
	sub := NewSubscriber(rec)
	for _, d := range sink.data {
		require.NoError(t, sub.Handle(context.Background(), "test", d))
	}
}

func TestPublisherToSubscriber(t *testing.T) {
	sink := &captureSink{}
	pub := NewPublisher(sink)
	ctx := context.Background()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	call := &callmodel.Call{
		CallerID: "100", CallerName: "alice", ReceiverID: "200", ReceiverName: "bob",
		CallID: "c-1", HasDialled: false, Type: callmodel.CallVideo, CreatedAt: created,
	}

	require.NoError(t, pub.NotifyDirect(ctx, "200", notify.EventNewMessage, map[string]any{"messageId": "m-1", "text": "hi"}))
	require.NoError(t, pub.NotifyGroup(ctx, "g-1", notify.EventNewGroupMessage, map[string]any{"messageId": "m-2"}))
	require.NoError(t, pub.NotifyMessageSeen(ctx, "100", "m-1"))
	require.NoError(t, pub.NotifyCallInvite(ctx, "200", call))
	require.NoError(t, pub.NotifyCallConnected(ctx, "c-1"))
	require.NoError(t, pub.NotifyCallEnded(ctx, "c-1", "100", "200"))
	assert.Equal(t, []string{"200", "g-1", "100", "200", "c-1", "c-1"}, sink.keys)

	rec := &recorder{}
	relay(t, sink, rec)
	require.Len(t, rec.calls, 6)

	assert.Equal(t, "direct", rec.calls[0].method)
	assert.Equal(t, "200", rec.calls[0].target)
	assert.Equal(t, notify.EventNewMessage, rec.calls[0].event)
	assert.Equal(t, map[string]any{"messageId": "m-1", "text": "hi"}, rec.calls[0].payload)

	assert.Equal(t, "group", rec.calls[1].method)
	assert.Equal(t, "g-1", rec.calls[1].target)

	assert.Equal(t, recorded{method: "seen", target: "100", extra: []string{"m-1"}}, rec.calls[2])

	inv := rec.calls[3]
	assert.Equal(t, "invite", inv.method)
	require.NotNil(t, inv.call)
	assert.Equal(t, "c-1", inv.call.CallID)
	assert.Equal(t, "alice", inv.call.CallerName)
	assert.Equal(t, callmodel.CallVideo, inv.call.Type)
	assert.False(t, inv.call.HasDialled)
	assert.True(t, created.Equal(inv.call.CreatedAt))

	assert.Equal(t, recorded{method: "connected", target: "c-1"}, rec.calls[4])
	assert.Equal(t, recorded{method: "ended", target: "c-1", extra: []string{"100", "200"}}, rec.calls[5])
}

func TestPublisherRejectsIncompleteNotification(t *testing.T) {
	sink := &captureSink{}
	pub := NewPublisher(sink)

	err := pub.NotifyCallEnded(context.Background(), "c-1")
	assert.ErrorIs(t, err, errs.ErrArgs)
	err = pub.NotifyDirect(context.Background(), "", notify.EventNewMessage, nil)
	assert.ErrorIs(t, err, errs.ErrArgs)
	assert.Empty(t, sink.data)
}

func TestDecodeInvalidEnvelopes(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"target":"u1"}`,
		`{"kind":"unknown","target":"u1"}`,
		`{"kind":"direct","target":"u1"}`,
		`{"kind":"message-seen","target":"u1"}`,
		`{"kind":"call-ended","target":"c-1"}`,
	} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, errs.ErrArgs, raw)
	}

	// 坏消息在订阅端被丢弃，不返回错误
	rec := &recorder{}
	require.NoError(t, NewSubscriber(rec).Handle(context.Background(), "test", []byte(`{"kind":"nope"}`)))
	assert.Empty(t, rec.calls)
}

func TestDecodeCallEndedWithoutCallID(t *testing.T) {
	env, err := Decode([]byte(`{"kind":"call-ended","target":"","participants":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, env.Participants)
	assert.Empty(t, env.Target)
}
