package query

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/blogctl/blogctl/internal/logging"
)

// Status 描述缓存条目的生命周期状态。
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot 是条目状态的一次只读拷贝，订阅方拿到后可安全跨协程传递。
// 不变式：Status 为 success 时 Data 非空；为 error 时 Err 非空；
// loading/error 阶段 Data 可能仍保留上一次成功结果（stale-while-revalidate）。
type Snapshot struct {
	Key       Key
	Status    Status
	Data      interface{}
	Err       error
	FetchedAt time.Time
	Fetching  bool
}

// Settled 表示快照是否已可供展示：成功（即使后台仍在刷新）或失败且无重试在途。
func (s Snapshot) Settled() bool {
	switch s.Status {
	case StatusSuccess:
		return true
	case StatusError:
		return !s.Fetching
	default:
		return false
	}
}

// Fetcher 执行一次真正的远端读取。错误不会向订阅方抛出，而是落入条目的 Err。
type Fetcher func(ctx context.Context) (interface{}, error)

// SubscribeOptions 控制单个键的新鲜度窗口；零值表示数据一落地即视为过期。
type SubscribeOptions struct {
	StaleTime time.Duration
}

// Cache 是按键聚合的异步获取结果缓存。所有状态迁移在同一把锁下完成，
// 对任意单个订阅方而言"fetch 完成"与"订阅方收到通知"之间不会暴露中间态。
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	logger  *logrus.Logger
	now     func() time.Time
}

type entry struct {
	key       Key
	fetcher   Fetcher
	staleTime time.Duration
	status    Status
	data      interface{}
	err       error
	fetchedAt time.Time
	// fetching 为 true 表示该键存在在途请求；同一键同一时刻至多一个。
	fetching bool
	// needsRefetch 记录 fetch 在途期间收到的失效请求，完成后补一次刷新。
	needsRefetch bool
	subs         map[string]*Subscription
}

// New 创建缓存实例，默认使用 time.Now 作为时钟；logger 可为 nil。
func New(logger *logrus.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe 注册对 key 的订阅并按需触发抓取：
//   - 无条目或从未成功：进入 loading 并发起唯一一次 fetch（并发订阅共享同一在途请求）；
//   - 数据仍在新鲜窗口内：直接复用，不触网；
//   - 数据过期：立即返回旧数据，同时后台静默刷新；
//   - 上一次以失败告终：不自动重试，等待调用方显式 Refetch。
func (c *Cache) Subscribe(key Key, fetcher Fetcher, opts SubscribeOptions) *Subscription {
	c.mu.Lock()

	ks := key.String()
	e := c.entries[ks]
	if e == nil {
		e = &entry{
			key:    key,
			status: StatusIdle,
			subs:   make(map[string]*Subscription),
		}
		c.entries[ks] = e
	}
	e.fetcher = fetcher
	if opts.StaleTime > 0 {
		e.staleTime = opts.StaleTime
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		key:     key,
		cache:   c,
		updates: make(chan Snapshot, 16),
	}
	e.subs[sub.id] = sub

	hit := false
	switch e.status {
	case StatusIdle:
		e.status = StatusLoading
		e.fetching = true
		c.launchLocked(e)
	case StatusLoading:
		// 已有在途请求，共享其结果
	case StatusSuccess:
		hit = true
		if c.isStaleLocked(e) && !e.fetching {
			e.fetching = true
			c.launchLocked(e)
		}
	case StatusError:
		// 失败条目交由调用方显式重试
	}

	if c.logger != nil {
		c.logger.WithFields(logging.QueryFields(key.Resource(), ks, hit)).Debug("cache subscribe")
	}

	snap := e.snapshotLocked()
	c.mu.Unlock()

	sub.push(snap)
	return sub
}

// SetData 直接写入一份已知值并标记为新鲜，常用于变更成功后的种子写入。
func (c *Cache) SetData(key Key, data interface{}) {
	c.mu.Lock()

	ks := key.String()
	e := c.entries[ks]
	if e == nil {
		e = &entry{
			key:  key,
			subs: make(map[string]*Subscription),
		}
		c.entries[ks] = e
	}
	e.status = StatusSuccess
	e.data = data
	e.err = nil
	e.fetchedAt = c.now()

	snap := e.snapshotLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, sub := range subs {
		sub.push(snap)
	}
}

// Invalidate 将匹配的条目标记为过期：有订阅方的条目触发且仅触发一次后台刷新，
// 无订阅方的条目直接丢弃，等待下一次订阅时惰性重取。
func (c *Cache) Invalidate(pred Predicate) {
	c.mu.Lock()

	var launches []*entry
	for ks, e := range c.entries {
		if !pred(e.key) {
			continue
		}
		if len(e.subs) == 0 {
			delete(c.entries, ks)
			continue
		}
		e.fetchedAt = time.Time{}
		if e.fetching {
			e.needsRefetch = true
			continue
		}
		if e.fetcher == nil {
			continue
		}
		e.fetching = true
		if e.status == StatusIdle {
			e.status = StatusLoading
		}
		launches = append(launches, e)
	}

	for _, e := range launches {
		c.group.Forget(e.key.String())
		c.launchLocked(e)
	}
	c.mu.Unlock()
}

// Remove 无条件丢弃匹配的条目（不触发重取），仍在订阅的各方会收到一份
// idle 快照。用于登出后丢弃身份缓存这类"数据已不再适用"的场景。
func (c *Cache) Remove(pred Predicate) {
	c.mu.Lock()

	type removal struct {
		snap Snapshot
		subs []*Subscription
	}
	var removed []removal
	for ks, e := range c.entries {
		if !pred(e.key) {
			continue
		}
		delete(c.entries, ks)
		removed = append(removed, removal{
			snap: Snapshot{Key: e.key, Status: StatusIdle},
			subs: e.subscribersLocked(),
		})
	}
	c.mu.Unlock()

	for _, r := range removed {
		for _, sub := range r.subs {
			sub.push(r.snap)
		}
	}
}

// Snapshot 返回键的当前状态；不存在的键返回 idle 快照。
func (c *Cache) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.entries[key.String()]; e != nil {
		return e.snapshotLocked()
	}
	return Snapshot{Key: key, Status: StatusIdle}
}

// Keys 返回当前驻留的全部缓存键，仅用于诊断与测试。
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// SetNowFunc 注入时钟，仅供测试控制新鲜度窗口。
func (c *Cache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// refetch 强制刷新一个键：失败条目重新进入 loading（保留旧数据），
// 新鲜/过期条目转入后台刷新。无条目或已在途时为空操作。
func (c *Cache) refetch(key Key) {
	c.mu.Lock()

	e := c.entries[key.String()]
	if e == nil || e.fetching || e.fetcher == nil {
		c.mu.Unlock()
		return
	}
	e.fetching = true
	if e.status == StatusError || e.status == StatusIdle {
		e.status = StatusLoading
	}
	c.group.Forget(key.String())
	c.launchLocked(e)

	snap := e.snapshotLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, sub := range subs {
		sub.push(snap)
	}
}

func (c *Cache) unsubscribe(key Key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	e := c.entries[ks]
	if e == nil {
		return
	}
	delete(e.subs, id)
	// 订阅数归零即刻驱逐；在途 fetch 的结果会因条目指针失配而被丢弃
	if len(e.subs) == 0 {
		delete(c.entries, ks)
	}
}

// launchLocked 以持锁状态发起一次抓取。fetcher 与条目指针在此刻捕获，
// singleflight 保证同键并发调用共享同一次执行。
func (c *Cache) launchLocked(e *entry) {
	ks := e.key.String()
	fetcher := e.fetcher

	go func() {
		data, err, _ := c.group.Do(ks, func() (interface{}, error) {
			return fetcher(context.Background())
		})
		c.applyResult(ks, e, data, err)
	}()
}

// applyResult 将抓取结果写回条目。条目若已被驱逐（指针失配），结果直接丢弃，
// 不允许迟到的响应复活一个已销毁的条目。
func (c *Cache) applyResult(ks string, expected *entry, data interface{}, err error) {
	c.mu.Lock()

	e := c.entries[ks]
	if e == nil || e != expected {
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"action":    "cache_apply",
				"cache_key": ks,
			}).Debug("discarding result for evicted entry")
		}
		return
	}

	e.fetching = false
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.fetchedAt = c.now()
	}

	// 在途期间收到的失效请求在这里兑现；即使本轮 fetch 失败也补一次刷新，
	// 失效表达的是"数据已变"，不随本轮结果作废。
	relaunch := false
	if e.needsRefetch {
		e.needsRefetch = false
		if e.fetcher != nil {
			e.fetching = true
			e.fetchedAt = time.Time{}
			if e.status == StatusError {
				e.status = StatusLoading
			}
			c.group.Forget(ks)
			c.launchLocked(e)
			relaunch = true
		}
	}

	snap := e.snapshotLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	if c.logger != nil {
		fields := logging.QueryFields(snap.Key.Resource(), ks, false)
		fields["action"] = "cache_apply"
		fields["status"] = string(snap.Status)
		fields["relaunch"] = relaunch
		c.logger.WithFields(fields).Debug("fetch applied")
	}

	for _, sub := range subs {
		sub.push(snap)
	}
}

func (c *Cache) isStaleLocked(e *entry) bool {
	if e.fetchedAt.IsZero() {
		return true
	}
	if e.staleTime <= 0 {
		return true
	}
	return c.now().Sub(e.fetchedAt) >= e.staleTime
}

func (e *entry) snapshotLocked() Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Fetching:  e.fetching,
	}
}

func (e *entry) subscribersLocked() []*Subscription {
	subs := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	return subs
}
