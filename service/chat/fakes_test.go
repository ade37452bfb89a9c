package chat

import (
	"context"
	"sync"
	"time"

	usermodel "PPRealtime/module/user/model"
)

// fakeConn 记录收到的帧；full=true 模拟发送队列已满
type fakeConn struct {
	id   string
	uid  string
	full bool

	mu     sync.Mutex
	frames []*Frame
}

func newFakeConn(id, uid string) *fakeConn {
	return &fakeConn{id: id, uid: uid}
}

func (f *fakeConn) ID() string           { return f.id }
func (f *fakeConn) UserID() string       { return f.uid }
func (f *fakeConn) CreatedAt() time.Time { return time.Time{} }

func (f *fakeConn) Send(frame []byte) bool {
	if f.full {
		return false
	}
	fr, err := DecodeFrame(frame)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.frames = append(f.frames, fr)
	f.mu.Unlock()
	return true
}

func (f *fakeConn) Frames() []*Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Frame(nil), f.frames...)
}

func (f *fakeConn) Events() []string {
	var out []string
	for _, fr := range f.Frames() {
		out = append(out, fr.Event)
	}
	return out
}

type fakeDirectory struct {
	users map[string]*usermodel.User
	err   error
	delay time.Duration
}

func (d *fakeDirectory) FindUser(ctx context.Context, uid string) (*usermodel.User, error) {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.users[uid], nil
}

type sinkOp struct {
	op   string
	user string
}

type recordingSink struct {
	mu  sync.Mutex
	ops []sinkOp
}

func (s *recordingSink) add(op, user string) error {
	s.mu.Lock()
	s.ops = append(s.ops, sinkOp{op: op, user: user})
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) Online(_ context.Context, userID, _ string) error {
	return s.add("online", userID)
}

func (s *recordingSink) Offline(_ context.Context, userID string) error {
	return s.add("offline", userID)
}

func (s *recordingSink) Touch(_ context.Context, userID, _ string) error {
	return s.add("touch", userID)
}

func (s *recordingSink) Ops() []sinkOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkOp(nil), s.ops...)
}
