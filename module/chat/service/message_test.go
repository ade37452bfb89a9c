package service

import (
	"context"
	"errors"
	"testing"
	"time"

	chatmodel "PPRealtime/module/chat/model"
	"PPRealtime/module/notify"
	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	msgs      map[string]*chatmodel.Message
	lastGroup map[string]string
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{msgs: map[string]*chatmodel.Message{}, lastGroup: map[string]string{}}
}

func (s *memStore) InsertMessage(_ context.Context, m *chatmodel.Message) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *m
	s.msgs[m.MessageID] = &cp
	return nil
}

func (s *memStore) FindMessage(_ context.Context, id string) (*chatmodel.Message, error) {
	m, ok := s.msgs[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "messageId", id)
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) MarkMessageSeen(_ context.Context, id string) error {
	s.msgs[id].IsSeen = true
	return nil
}

func (s *memStore) UpdateGroupLastMessage(_ context.Context, groupID, last string, _ time.Time) error {
	s.lastGroup[groupID] = last
	return nil
}

type memUsers map[string]*usermodel.User

func (u memUsers) FindUser(_ context.Context, uid string) (*usermodel.User, error) {
	return u[uid], nil
}

type call struct {
	kind   string
	target string
	event  string
}

// spyNotifier 记录调用；fail=true 时每次都返回错误
type spyNotifier struct {
	notify.Nop
	fail  bool
	calls []call
}

func (n *spyNotifier) record(kind, target, event string) error {
	n.calls = append(n.calls, call{kind, target, event})
	if n.fail {
		return errors.New("gateway unavailable")
	}
	return nil
}

func (n *spyNotifier) NotifyDirect(_ context.Context, userID, event string, _ any) error {
	return n.record("direct", userID, event)
}

func (n *spyNotifier) NotifyGroup(_ context.Context, groupID, event string, _ any) error {
	return n.record("group", groupID, event)
}

func (n *spyNotifier) NotifyMessageSeen(_ context.Context, senderID, messageID string) error {
	return n.record("seen", senderID, messageID)
}

var testUsers = memUsers{
	"alice":   {UID: "alice"},
	"bob":     {UID: "bob"},
	"mallory": {UID: "mallory", IsBlocked: true},
}

func TestSendDirectMessage(t *testing.T) {
	store, spy := newMemStore(), &spyNotifier{}
	svc := NewMessageService(store, testUsers, spy)

	m, err := svc.SendMessage(context.Background(), SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.MessageID)
	assert.Equal(t, chatmodel.MessageText, m.Type)
	assert.False(t, m.IsSeen)
	assert.Contains(t, store.msgs, m.MessageID)
	assert.Equal(t, []call{{"direct", "bob", notify.EventNewMessage}}, spy.calls)
}

func TestSendGroupMessage(t *testing.T) {
	store, spy := newMemStore(), &spyNotifier{}
	svc := NewMessageService(store, testUsers, spy)

	_, err := svc.SendMessage(context.Background(), SendRequest{SenderID: "alice", GroupID: "g1", Type: chatmodel.MessageImage})
	require.NoError(t, err)
	assert.Equal(t, "📷 Photo", store.lastGroup["g1"])
	assert.Equal(t, []call{{"group", "g1", notify.EventNewGroupMessage}}, spy.calls)
}

func TestSendSucceedsWhenDeliveryFails(t *testing.T) {
	store, spy := newMemStore(), &spyNotifier{fail: true}
	svc := NewMessageService(store, testUsers, spy)

	m, err := svc.SendMessage(context.Background(), SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)
	assert.Contains(t, store.msgs, m.MessageID)
	assert.Len(t, spy.calls, 1)
}

func TestSendNotifiesOnlyAfterPersist(t *testing.T) {
	store, spy := newMemStore(), &spyNotifier{}
	store.insertErr = errors.New("write conflict")
	svc := NewMessageService(store, testUsers, spy)

	_, err := svc.SendMessage(context.Background(), SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.Error(t, err)
	assert.Empty(t, spy.calls)
}

func TestSendRejects(t *testing.T) {
	svc := NewMessageService(newMemStore(), testUsers, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, SendRequest{SenderID: "mallory", ReceiverID: "bob", Text: "spam"})
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = svc.SendMessage(ctx, SendRequest{SenderID: "ghost", ReceiverID: "bob", Text: "boo"})
	assert.True(t, errors.Is(err, errs.ErrRecordNotFound))

	_, err = svc.SendMessage(ctx, SendRequest{SenderID: "alice", ReceiverID: "bob", GroupID: "g1", Text: "x"})
	assert.True(t, errors.Is(err, errs.ErrArgs))

	_, err = svc.SendMessage(ctx, SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "  "})
	assert.True(t, errors.Is(err, errs.ErrArgs))

	_, err = svc.SendMessage(ctx, SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "x", Type: "sticker"})
	assert.True(t, errors.Is(err, errs.ErrArgs))
}

func TestMarkSeenOnlyByReceiver(t *testing.T) {
	store, spy := newMemStore(), &spyNotifier{}
	svc := NewMessageService(store, testUsers, spy)
	ctx := context.Background()
	m, err := svc.SendMessage(ctx, SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)
	spy.calls = nil

	require.NoError(t, svc.MarkSeen(ctx, m.MessageID, "alice"))
	assert.False(t, store.msgs[m.MessageID].IsSeen)
	assert.Empty(t, spy.calls)

	require.NoError(t, svc.MarkSeen(ctx, m.MessageID, "bob"))
	assert.True(t, store.msgs[m.MessageID].IsSeen)
	assert.Equal(t, []call{{"seen", "alice", m.MessageID}}, spy.calls)

	err = svc.MarkSeen(ctx, "missing", "bob")
	assert.True(t, errors.Is(err, errs.ErrRecordNotFound))
}

func TestFormatLastMessage(t *testing.T) {
	assert.Equal(t, "hey", FormatLastMessage(&chatmodel.Message{Type: chatmodel.MessageText, Text: "hey"}))
	assert.Equal(t, "GIF", FormatLastMessage(&chatmodel.Message{Type: chatmodel.MessageGif}))
	assert.Equal(t, "Message", FormatLastMessage(&chatmodel.Message{Type: "other"}))
}
