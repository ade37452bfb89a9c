package chat

import (
	"testing"
	"time"

	"PPRealtime/module/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceBroadcastsAndMirrorsInOrder(t *testing.T) {
	r, s, _ := newTestRouter()
	sink := &recordingSink{}
	p := NewPresence(r, "gw-test", sink)
	defer p.Close()

	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	s.Register("alice", alice)
	s.Register("bob", bob)

	p.Online(alice)
	p.Touch("alice")
	s.Unregister("alice", alice)
	p.Offline("alice")

	assert.Empty(t, alice.Frames(), "a user is not told about its own presence")
	frames := bob.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, notify.EventUserOnline, frames[0].Event)
	assert.JSONEq(t, `{"userId":"alice"}`, string(frames[0].Data))
	assert.Equal(t, notify.EventUserOffline, frames[1].Event)

	require.Eventually(t, func() bool { return len(sink.Ops()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []sinkOp{{"online", "alice"}, {"touch", "alice"}, {"offline", "alice"}}, sink.Ops())
}

func TestPresenceWithoutSinks(t *testing.T) {
	r, _, _ := newTestRouter()
	p := NewPresence(r, "gw-test")
	p.Online(newFakeConn("c1", "alice"))
	p.Offline("alice")
	p.Close()
	p.Close()
}
