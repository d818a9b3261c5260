package query

import (
	"context"
	"sync"
)

// Subscription 代表一个订阅方持有的缓存句柄。Close 之前，条目状态的每次
// 变化都会投递到 Updates 通道；通道写满时丢弃最旧的快照，保证投递永不阻塞。
type Subscription struct {
	id      string
	key     Key
	cache   *Cache
	updates chan Snapshot
	once    sync.Once
}

// Key 返回订阅的缓存键。
func (s *Subscription) Key() Key {
	return s.key
}

// Snapshot 返回条目的当前状态。
func (s *Subscription) Snapshot() Snapshot {
	return s.cache.Snapshot(s.key)
}

// Updates 返回快照通知通道，供调用方以事件方式消费状态变化。
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Refetch 显式触发一次刷新，是失败条目唯一的重试途径。
func (s *Subscription) Refetch() {
	s.cache.refetch(s.key)
}

// Wait 阻塞直到条目可供展示（成功，或失败且无重试在途），或 ctx 取消。
// 过期数据在后台刷新期间同样视为可展示，调用方不会看到空白窗口。
func (s *Subscription) Wait(ctx context.Context) (Snapshot, error) {
	for {
		snap := s.Snapshot()
		if snap.Settled() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-s.updates:
		}
	}
}

// Close 注销订阅；该键的最后一个订阅方离开时条目立即被驱逐。
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.unsubscribe(s.key, s.id)
	})
}

func (s *Subscription) push(snap Snapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		// 通道已满：丢最旧的一条再重试
		select {
		case <-s.updates:
		default:
		}
	}
}
