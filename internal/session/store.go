// Package session owns the single source of truth for "who is logged in":
// the bearer token (persisted across process restarts) plus the cached user
// identity, and the login/register/logout lifecycle around them. The token is
// re-read from the store on every outgoing request, so a login or logout is
// visible to the very next HTTP call.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
)

// State 描述会话的三种对外可见状态。
type State string

const (
	// StateAnonymous 表示无令牌。
	StateAnonymous State = "anonymous"
	// StatePending 表示持有已持久化的令牌但身份尚未确认（启动后的短暂窗口）。
	// 视图层必须将其与 Anonymous 区分开，不能在此窗口提示"请登录"。
	StatePending State = "pending"
	// StateAuthenticated 表示令牌与用户身份均已就绪。
	StateAuthenticated State = "authenticated"
)

// Snapshot 是会话状态的一次只读拷贝。
type Snapshot struct {
	State State
	Token string
	User  *api.User
}

// Store 持有令牌与用户身份，并把令牌落盘到 TokenPath。
// 实现 api.TokenSource：Token() 总是返回当前值，不做任何缓存。
type Store struct {
	mu        sync.Mutex
	path      string
	token     string
	user      *api.User
	listeners map[string]func(Snapshot)
	logger    *logrus.Logger
}

// NewStore 构建会话存储并读取已持久化的令牌；存在令牌时初始状态为 Pending。
func NewStore(tokenPath string, logger *logrus.Logger) (*Store, error) {
	token, err := readTokenFile(tokenPath)
	if err != nil {
		return nil, err
	}

	return &Store{
		path:      tokenPath,
		token:     token,
		listeners: make(map[string]func(Snapshot)),
		logger:    logger,
	}, nil
}

// Token 实现 api.TokenSource。
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot 返回当前会话状态。
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe 注册状态监听，返回注销函数。监听器在每次状态迁移后被同步调用。
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := uuid.NewString()
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SetAuthenticated 写入令牌与用户身份并持久化令牌。持久化失败只记日志：
// 会话在当前进程内依旧有效，仅跨重启能力受损。
func (s *Store) SetAuthenticated(token string, user *api.User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	if err := writeTokenFile(s.path, token); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"action": "token_persist",
			"path":   s.path,
		}).Warn(err.Error())
	}
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// SetUser 仅更新用户身份（令牌不变），用于 /auth/me 确认或资料更新后的回填。
func (s *Store) SetUser(user *api.User) {
	s.mu.Lock()
	s.user = user
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Clear 同步清空令牌与身份并删除持久化文件，无需任何网络确认。
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	if err := removeTokenFile(s.path); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"action": "token_remove",
			"path":   s.path,
		}).Warn(err.Error())
	}
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, User: s.user}
	switch {
	case s.token == "":
		snap.State = StateAnonymous
	case s.user == nil:
		snap.State = StatePending
	default:
		snap.State = StateAuthenticated
	}
	return snap
}

func (s *Store) listenersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}
