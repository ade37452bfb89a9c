package chat

import "sync"

// SessionRegistry userID -> 当前唯一的活跃连接。
// 后连上的覆盖先连上的（last-connection-wins），被覆盖的连接不由这里关闭。
// 锁只覆盖单次 map 读写/比较，绝不跨 I/O。
type SessionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{byUser: make(map[string]Conn)}
}

// Register 无条件覆盖，返回被替换掉的旧连接（可能为 nil），仅供日志使用
func (r *SessionRegistry) Register(userID string, c Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced = r.byUser[userID]
	r.byUser[userID] = c
	if replaced == c {
		return nil
	}
	return replaced
}

// Unregister 只有当前登记的就是 c 本身时才删除：
// 旧连接的断开事件晚于新连接注册到达时，不能把新会话踢掉
func (r *SessionRegistry) Unregister(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[userID]
	if !ok || cur != c {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Lookup 不在线不是错误，调用方按静默处理
func (r *SessionRegistry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Snapshot 拷贝一份当前所有会话连接，在锁外使用
func (r *SessionRegistry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}
