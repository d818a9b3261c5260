package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Key 唯一定位一个缓存条目（资源名 + 规范化参数）。
// 两个 Key 相等当且仅当 String() 相同；参数在构造时即完成排序与清洗，
// 因此参数书写顺序不影响命中。
type Key struct {
	resource string
	params   string
}

// NewKey 构造缓存键：资源名统一小写，params 丢弃空值后按字典序编码。
func NewKey(resource string, params url.Values) Key {
	canonical := url.Values{}
	for name, values := range params {
		for _, value := range values {
			if strings.TrimSpace(value) == "" {
				continue
			}
			canonical.Add(name, value)
		}
	}
	return Key{
		resource: strings.ToLower(strings.TrimSpace(resource)),
		// url.Values.Encode 按 key 字典序输出，天然满足规范化要求
		params: canonical.Encode(),
	}
}

// ListKey 构造不带参数的集合级缓存键。
func ListKey(resource string) Key {
	return NewKey(resource, nil)
}

// DetailKey 构造按 id 定位的单条缓存键。
func DetailKey(resource string, id int64) Key {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	return NewKey(resource, params)
}

// Resource 返回键所属的资源名。
func (k Key) Resource() string {
	return k.resource
}

// String 返回键的规范字符串形式，同时作为相等性与 singleflight 的依据。
func (k Key) String() string {
	if k.params == "" {
		return k.resource
	}
	return k.resource + "?" + k.params
}

// Zero 判断是否为零值键。
func (k Key) Zero() bool {
	return k.resource == ""
}

// Predicate 描述一组需要被级联失效的缓存键。
type Predicate func(Key) bool

// ByResource 匹配指定资源下的所有键（含所有过滤参数变体）。
func ByResource(resources ...string) Predicate {
	normalized := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		normalized[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return func(k Key) bool {
		_, ok := normalized[k.resource]
		return ok
	}
}

// ByKey 精确匹配单个键。
func ByKey(target Key) Predicate {
	return func(k Key) bool {
		return k.String() == target.String()
	}
}
