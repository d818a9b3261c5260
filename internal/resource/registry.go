package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var globalRegistry = newRegistry()

// Metadata 描述一种受管资源:缓存键前缀、默认新鲜度窗口以及是否要求登录。
type Metadata struct {
	// Key 是资源在缓存键与配置覆盖中的名称,全小写。
	Key string
	// Description 供 CLI 展示。
	Description string
	// DefaultStaleTime 为 0 时回落到全局 stale_time 配置。
	DefaultStaleTime time.Duration
	// RequiresAuth 标记读取该资源前必须持有令牌。
	RequiresAuth bool
}

type registry struct {
	mu        sync.RWMutex
	resources map[string]Metadata
}

func newRegistry() *registry {
	return &registry{resources: make(map[string]Metadata)}
}

// Register 将资源元数据加入全局注册表,重复键会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic,适合绑定文件的 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的资源元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// List 返回按键排序的资源元数据列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Keys 返回按字典序排序的已注册资源键。
func Keys() []string {
	return globalRegistry.keys()
}

func (r *registry) register(meta Metadata) error {
	key := normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("resource: 注册键不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[key]; exists {
		return fmt.Errorf("resource: 键 %q 已注册", key)
	}
	meta.Key = key
	r.resources[key] = meta
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.resources[normalizeKey(key)]
	return meta, ok
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.resources))
	for _, meta := range r.resources {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r *registry) keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.resources))
	for key := range r.resources {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
