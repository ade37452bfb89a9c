package chat

import (
	"sort"
	"strings"
	"sync"
)

const (
	chatChannelPrefix  = "chat:"
	groupChannelPrefix = "group:"
)

// ChatChannel 单聊频道：两端 id 排序后拼接，双方算出来的是同一个
func ChatChannel(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return chatChannelPrefix + pair[0] + ":" + pair[1]
}

func GroupChannel(groupID string) string {
	return groupChannelPrefix + groupID
}

func IsGroupChannel(channelID string) bool {
	return strings.HasPrefix(channelID, groupChannelPrefix)
}

// RoomTracker 连接 <-> 频道 的临时订阅关系，不落库，每次会话重建
type RoomTracker struct {
	mu      sync.RWMutex
	members map[string]map[Conn]struct{} // channel -> conns
	joined  map[Conn]map[string]struct{} // conn -> channels
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		members: make(map[string]map[Conn]struct{}),
		joined:  make(map[Conn]map[string]struct{}),
	}
}

// Join 幂等
func (t *RoomTracker) Join(c Conn, channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.members[channelID]
	if m == nil {
		m = make(map[Conn]struct{})
		t.members[channelID] = m
	}
	m[c] = struct{}{}

	j := t.joined[c]
	if j == nil {
		j = make(map[string]struct{})
		t.joined[c] = j
	}
	j[channelID] = struct{}{}
}

// Leave 幂等，不在频道里也不报错
func (t *RoomTracker) Leave(c Conn, channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaveLocked(c, channelID)
}

// LeaveAll 断开时释放该连接持有的全部订阅，返回释放的数量
func (t *RoomTracker) LeaveAll(c Conn) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := t.joined[c]
	n := len(j)
	for channelID := range j {
		t.leaveLocked(c, channelID)
	}
	delete(t.joined, c)
	return n
}

func (t *RoomTracker) leaveLocked(c Conn, channelID string) {
	if m := t.members[channelID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(t.members, channelID)
		}
	}
	if j := t.joined[c]; j != nil {
		delete(j, channelID)
		if len(j) == 0 {
			delete(t.joined, c)
		}
	}
}

// Members 频道成员快照，在锁外投递
func (t *RoomTracker) Members(channelID string) []Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.members[channelID]
	if len(m) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

// Channels 连接当前订阅的频道（排序后返回）
func (t *RoomTracker) Channels(c Conn) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j := t.joined[c]
	out := make([]string, 0, len(j))
	for ch := range j {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
