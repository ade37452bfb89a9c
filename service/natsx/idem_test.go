package natsx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdemMiddlewareSkipsDuplicates(t *testing.T) {
	store := NewMemIdem(time.Minute)
	defer store.Close()

	calls := 0
	h := NatsxChain(func(context.Context, NatsxMessage) error {
		calls++
		return nil
	}, NatsxIdemMiddleware(store, 0))

	msg := NatsxMessage{Subject: "gateway.notify", Header: map[string]string{HeaderMsgID: "m-1"}}
	require.NoError(t, h(context.Background(), msg))
	require.NoError(t, h(context.Background(), msg))
	assert.Equal(t, 1, calls)

	// 没有 msgID 的消息不去重
	bare := NatsxMessage{Subject: "gateway.notify", Data: []byte(`{}`)}
	require.NoError(t, h(context.Background(), bare))
	require.NoError(t, h(context.Background(), bare))
	assert.Equal(t, 3, calls)
}

func TestMemIdemExpires(t *testing.T) {
	store := NewMemIdem(time.Minute)
	defer store.Close()

	seen, err := store.SeenOnce("k", time.Millisecond)
	require.NoError(t, err)
	assert.False(t, seen)

	time.Sleep(5 * time.Millisecond)
	store.sweep(time.Now())
	seen, _ = store.SeenOnce("k", time.Minute)
	assert.False(t, seen)
	seen, _ = store.SeenOnce("k", time.Minute)
	assert.True(t, seen)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, JetStreamPush, ParseMode(" JetStream "))
	assert.Equal(t, Core, ParseMode("core"))
	assert.Equal(t, Core, ParseMode(""))
}
