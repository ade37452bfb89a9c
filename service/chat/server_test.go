package chat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mid "PPRealtime/middleware"
	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	usermodel "PPRealtime/module/user/model"
	"PPRealtime/service/chat"
	"PPRealtime/service/chat/handlers"
	"PPRealtime/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markerEvent = "test-marker"

var e2eJwt = security.DefaultOptions([]byte("gateway-e2e"))

type users map[string]*usermodel.User

func (u users) FindUser(_ context.Context, uid string) (*usermodel.User, error) {
	return u[uid], nil
}

type groups map[string][]string

func (g groups) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	for _, m := range g[groupID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

type gateway struct {
	srv *chat.Server
	url string
}

func newGateway(t *testing.T, dir chat.UserDirectory, opts ...chat.Option) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := chat.NewServer(chat.ServerConf{
		GatewayID:   "gw-e2e",
		AuthTimeout: 5 * time.Second,
	}, chat.NewVerifier(e2eJwt, dir, time.Second), opts...)
	srv.Disp().Register(handlers.All()...)

	r := gin.New()
	mid.GET(r, "/ws", srv.HandleWS, mid.RouteOpt{IsAuth: true})
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return &gateway{srv: srv, url: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"}
}

type client struct {
	uid string
	ws  *websocket.Conn
}

func (g *gateway) dialRaw(t *testing.T, tok string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(g.url, http.Header{"Authorization": {"Bearer " + tok}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// connect 拨号并等到会话登记完成
func (g *gateway) connect(t *testing.T, uid string) *client {
	t.Helper()
	var before string
	if c, ok := g.srv.Sessions().Lookup(uid); ok {
		before = c.ID()
	}
	tok, _, err := security.Generate(e2eJwt, uid)
	require.NoError(t, err)
	ws := g.dialRaw(t, tok)
	require.Eventually(t, func() bool {
		c, ok := g.srv.Sessions().Lookup(uid)
		return ok && c.ID() != before
	}, 2*time.Second, 5*time.Millisecond)
	return &client{uid: uid, ws: ws}
}

func (c *client) send(t *testing.T, event string, data any) {
	t.Helper()
	require.NoError(t, c.ws.WriteJSON(map[string]any{"event": event, "data": data}))
}

// next 下一条非上下线事件
func (c *client) next(t *testing.T) *chat.Frame {
	t.Helper()
	for {
		require.NoError(t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := c.ws.ReadMessage()
		require.NoError(t, err)
		f, err := chat.DecodeFrame(data)
		require.NoError(t, err)
		if f.Event == notify.EventUserOnline || f.Event == notify.EventUserOffline {
			continue
		}
		return f
	}
}

// nextAny 下一条事件，不跳过上下线
func (c *client) nextAny(t *testing.T) *chat.Frame {
	t.Helper()
	require.NoError(t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(t, err)
	f, err := chat.DecodeFrame(data)
	require.NoError(t, err)
	return f
}

// assertQuiet 发一个标记帧，它必须是下一条事件：证明之前没有别的投递
func (g *gateway) assertQuiet(t *testing.T, c *client) {
	t.Helper()
	require.NoError(t, g.srv.NotifyDirect(context.Background(), c.uid, markerEvent, nil))
	assert.Equal(t, markerEvent, c.next(t).Event)
}

func (g *gateway) waitMembers(t *testing.T, channel string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(g.srv.Rooms().Members(channel)) == n },
		2*time.Second, 5*time.Millisecond)
}

func TestDirectMessageReachesOnlyReceiver(t *testing.T) {
	g := newGateway(t, users{})
	alice := g.connect(t, "alice")
	bob := g.connect(t, "bob")

	alice.send(t, handlers.EventJoinChat, map[string]string{"contactId": "bob"})
	bob.send(t, handlers.EventJoinChat, map[string]string{"contactId": "alice"})
	g.waitMembers(t, chat.ChatChannel("alice", "bob"), 2)

	msg := map[string]string{"messageId": "m1", "senderId": "alice", "receiverId": "bob", "text": "hi"}
	require.NoError(t, g.srv.NotifyDirect(context.Background(), "bob", notify.EventNewMessage, msg))

	f := bob.next(t)
	assert.Equal(t, notify.EventNewMessage, f.Event)
	assert.JSONEq(t, `{"messageId":"m1","senderId":"alice","receiverId":"bob","text":"hi"}`, string(f.Data))
	g.assertQuiet(t, bob)
	g.assertQuiet(t, alice)
}

func TestCallInviteToOfflineUser(t *testing.T) {
	g := newGateway(t, users{})
	bob := g.connect(t, "bob")

	call := &callmodel.Call{CallerID: "bob", ReceiverID: "alice", CallID: "c1", Type: callmodel.CallAudio}
	require.NoError(t, g.srv.NotifyCallInvite(context.Background(), "alice", call))
	g.assertQuiet(t, bob)
}

func TestGroupFanOut(t *testing.T) {
	g := newGateway(t, users{})
	members := []*client{g.connect(t, "u1"), g.connect(t, "u2"), g.connect(t, "u3")}
	outsider := g.connect(t, "u4")

	for _, c := range members {
		c.send(t, handlers.EventJoinGroup, map[string]string{"groupId": "G"})
	}
	g.waitMembers(t, chat.GroupChannel("G"), 3)

	require.NoError(t, g.srv.NotifyGroup(context.Background(), "G", notify.EventNewGroupMessage,
		map[string]string{"groupId": "G", "text": "hello"}))

	for _, c := range members {
		assert.Equal(t, notify.EventNewGroupMessage, c.next(t).Event)
		g.assertQuiet(t, c)
	}
	g.assertQuiet(t, outsider)
}

func TestStrictGroupJoinRefusesNonMembers(t *testing.T) {
	g := newGateway(t, users{}, chat.WithGroupDirectory(groups{"G": {"u1"}}))
	u1 := g.connect(t, "u1")
	u2 := g.connect(t, "u2")

	u2.send(t, handlers.EventJoinGroup, map[string]string{"groupId": "G"})
	u1.send(t, handlers.EventJoinGroup, map[string]string{"groupId": "G"})
	g.waitMembers(t, chat.GroupChannel("G"), 1)

	require.NoError(t, g.srv.NotifyGroup(context.Background(), "G", notify.EventNewGroupMessage, map[string]string{"groupId": "G"}))
	assert.Equal(t, notify.EventNewGroupMessage, u1.next(t).Event)
	g.assertQuiet(t, u2)
}

func TestReconnectKeepsNewSession(t *testing.T) {
	g := newGateway(t, users{})
	bob := g.connect(t, "bob")
	first := g.connect(t, "alice")
	second := g.connect(t, "alice")

	newConn, ok := g.srv.Sessions().Lookup("alice")
	require.True(t, ok)

	// 旧连接晚一步断开
	require.NoError(t, first.ws.Close())
	time.Sleep(100 * time.Millisecond)

	got, ok := g.srv.Sessions().Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, newConn.ID(), got.ID())

	// bob 看到两次上线，但不会看到下线
	assert.Equal(t, notify.EventUserOnline, bob.nextAny(t).Event)
	assert.Equal(t, notify.EventUserOnline, bob.nextAny(t).Event)
	require.NoError(t, g.srv.NotifyDirect(context.Background(), "bob", markerEvent, nil))
	assert.Equal(t, markerEvent, bob.nextAny(t).Event)

	g.assertQuiet(t, second)
}

func TestDisconnectCleansUp(t *testing.T) {
	g := newGateway(t, users{})
	bob := g.connect(t, "bob")
	alice := g.connect(t, "alice")
	assert.Equal(t, notify.EventUserOnline, bob.nextAny(t).Event)

	alice.send(t, handlers.EventJoinGroup, map[string]string{"groupId": "G"})
	alice.send(t, handlers.EventJoinChat, map[string]string{"contactId": "bob"})
	g.waitMembers(t, chat.ChatChannel("alice", "bob"), 1)

	require.NoError(t, alice.ws.Close())
	require.Eventually(t, func() bool {
		_, online := g.srv.Sessions().Lookup("alice")
		return !online && len(g.srv.Rooms().Members(chat.GroupChannel("G"))) == 0
	}, 2*time.Second, 5*time.Millisecond)

	f := bob.nextAny(t)
	assert.Equal(t, notify.EventUserOffline, f.Event)
	assert.JSONEq(t, `{"userId":"alice"}`, string(f.Data))
	assert.NoError(t, g.srv.NotifyDirect(context.Background(), "alice", notify.EventNewMessage, map[string]string{"text": "late"}))
}

func TestAuthFailureClosesWithoutSession(t *testing.T) {
	g := newGateway(t, users{"mallory": {UID: "mallory", IsBlocked: true}})
	bob := g.connect(t, "bob")

	blocked, _, err := security.Generate(e2eJwt, "mallory")
	require.NoError(t, err)

	for name, tok := range map[string]string{"invalid": "not-a-token", "blocked": blocked} {
		t.Run(name, func(t *testing.T) {
			ws := g.dialRaw(t, tok)
			require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
			_, _, err := ws.ReadMessage()
			require.Error(t, err)
			var ce *websocket.CloseError
			if assert.ErrorAs(t, err, &ce) {
				assert.Equal(t, websocket.CloseAbnormalClosure, ce.Code, "closed without a reason frame")
			}
		})
	}

	assert.Equal(t, 1, g.srv.Sessions().Len())
	g.assertQuiet(t, bob)
}
