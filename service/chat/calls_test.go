package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock 测试里手动推进的时钟
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Add(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestCalls(t *testing.T, r *Router, clk *manualClock) *CallCoordinator {
	conf := CallConf{SweepEvery: time.Hour}
	if clk != nil {
		conf.Clock = clk.Now
	}
	cc := NewCallCoordinator(r, conf)
	t.Cleanup(cc.Close)
	return cc
}

func (cc *CallCoordinator) size() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return len(cc.states)
}

func TestCallLifecycle(t *testing.T) {
	r, s, _ := newTestRouter()
	cc := newTestCalls(t, r, nil)
	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	s.Register("alice", alice)
	s.Register("bob", bob)

	call := &callmodel.Call{CallerID: "alice", ReceiverID: "bob", CallID: "call-1", Type: callmodel.CallVideo}
	require.NoError(t, cc.SignalInvite("bob", call))

	st, ok := cc.State("call-1")
	require.True(t, ok)
	assert.Equal(t, CallRinging, st)

	frames := bob.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, notify.EventNewCall, frames[0].Event)
	var got callmodel.Call
	require.NoError(t, frames[0].Bind(&got))
	assert.Equal(t, "call-1", got.CallID)
	assert.Equal(t, callmodel.CallVideo, got.Type)
	assert.Empty(t, alice.Frames())

	assert.True(t, cc.SignalConnected("call-1"))
	assert.False(t, cc.SignalConnected("call-1"))
	st, _ = cc.State("call-1")
	assert.Equal(t, CallConnected, st)

	// 已接通的通话不再重新响铃
	require.NoError(t, cc.SignalInvite("bob", call))
	assert.Len(t, bob.Frames(), 1)

	require.NoError(t, cc.SignalEnd("call-1", "alice", "bob", "bob"))
	for _, c := range []*fakeConn{alice, bob} {
		last := c.Frames()[len(c.Frames())-1]
		assert.Equal(t, notify.EventCallEnded, last.Event)
		assert.Empty(t, last.Data)
	}
	assert.Len(t, bob.Frames(), 2, "duplicate participant gets a single call-ended")

	st, ok = cc.State("call-1")
	assert.True(t, ok)
	assert.Equal(t, CallEnded, st)
}

func TestCallEndOneSideOffline(t *testing.T) {
	r, s, _ := newTestRouter()
	cc := newTestCalls(t, r, nil)
	alice := newFakeConn("c1", "alice")
	s.Register("alice", alice)

	require.NoError(t, cc.SignalInvite("bob", &callmodel.Call{CallerID: "alice", ReceiverID: "bob", CallID: "call-2"}))
	require.NoError(t, cc.SignalEnd("call-2", "alice", "bob"))
	assert.Equal(t, []string{notify.EventCallEnded}, alice.Events())
	assert.False(t, cc.SignalConnected("call-2"))
}

func TestEndedCallDoesNotRingAgain(t *testing.T) {
	r, s, _ := newTestRouter()
	cc := newTestCalls(t, r, nil)
	bob := newFakeConn("c2", "bob")
	s.Register("bob", bob)

	call := &callmodel.Call{CallerID: "alice", ReceiverID: "bob", CallID: "c1"}
	require.NoError(t, cc.SignalInvite("bob", call))
	require.NoError(t, cc.SignalEnd("c1", "alice", "bob"))
	// 总线重投的 invite
	require.NoError(t, cc.SignalInvite("bob", call))

	assert.Equal(t, []string{notify.EventNewCall, notify.EventCallEnded}, bob.Events())
	st, ok := cc.State("c1")
	assert.True(t, ok)
	assert.Equal(t, CallEnded, st)
	assert.False(t, cc.SignalConnected("c1"))
}

func TestEndWithoutCallIDEndsByParticipants(t *testing.T) {
	r, _, _ := newTestRouter()
	cc := newTestCalls(t, r, nil)

	require.NoError(t, cc.SignalInvite("bob", &callmodel.Call{CallerID: "alice", ReceiverID: "bob", CallID: "old"}))
	require.NoError(t, cc.SignalInvite("bob", &callmodel.Call{CallerID: "alice", ReceiverID: "bob", CallID: "new"}))
	require.NoError(t, cc.SignalInvite("bob", &callmodel.Call{CallerID: "carol", ReceiverID: "bob", CallID: "other"}))

	require.NoError(t, cc.SignalEnd("", "alice", "bob"))
	for _, id := range []string{"old", "new"} {
		st, _ := cc.State(id)
		assert.Equal(t, CallEnded, st, id)
	}
	st, _ := cc.State("other")
	assert.Equal(t, CallRinging, st)
}

func TestSweepDropsExpiredCalls(t *testing.T) {
	r, _, _ := newTestRouter()
	clk := &manualClock{now: time.Unix(1_700_000_000, 0)}
	cc := newTestCalls(t, r, clk)

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("call-%d", i)
		require.NoError(t, cc.SignalInvite("offline-user", &callmodel.Call{CallerID: "caller", CallID: id}))
		require.NoError(t, cc.SignalEnd("", "caller", "offline-user"))
	}
	// 永远没人挂断的响铃
	require.NoError(t, cc.SignalInvite("offline-user", &callmodel.Call{CallerID: "ghost", CallID: "dangling"}))
	require.NoError(t, cc.SignalInvite("bob", &callmodel.Call{CallerID: "alice", CallID: "live"}))
	require.True(t, cc.SignalConnected("live"))
	assert.Equal(t, 1002, cc.size())

	st, _ := cc.State("call-0")
	assert.Equal(t, CallEnded, st)

	// 超过响铃上限后未挂断的邀请被清掉，墓碑和通话中的保留
	assert.Equal(t, 1, cc.sweepOnce(clk.Add(cc.conf.RingingTTL+time.Second)))
	_, ok := cc.State("dangling")
	assert.False(t, ok)
	st, _ = cc.State("call-999")
	assert.Equal(t, CallEnded, st)

	assert.Equal(t, 1000, cc.sweepOnce(clk.Add(cc.conf.EndedTTL)))
	st, _ = cc.State("live")
	assert.Equal(t, CallConnected, st)
	assert.Equal(t, 1, cc.size())
}
