package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/logging"
	"github.com/blogctl/blogctl/internal/query"
)

func init() {
	MustRegister(Metadata{
		Key:         "items",
		Description: "通用示例条目,支持分页与活跃状态过滤",
	})
	MustRegister(Metadata{
		Key:         "itemcount",
		Description: "条目总数统计",
	})
}

// ItemListParams 描述条目列表查询;零值表示服务端默认分页。
type ItemListParams struct {
	Skip       int
	Limit      int
	ActiveOnly *bool
}

// Values 将参数展开为规范化查询串,未设置的字段不参与缓存键。
func (p ItemListParams) Values() url.Values {
	values := url.Values{}
	if p.Skip > 0 {
		values.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.ActiveOnly != nil {
		values.Set("active_only", strconv.FormatBool(*p.ActiveOnly))
	}
	return values
}

// Items 绑定条目资源:列表、详情、计数走查询缓存,写操作直连 API
// 并在确认成功后触发失效级联。
type Items struct {
	cache     *query.Cache
	client    *api.Client
	logger    *logrus.Logger
	staleTime time.Duration
}

// NewItems 构造条目绑定;staleTime 控制列表与详情的新鲜度窗口。
func NewItems(cache *query.Cache, client *api.Client, logger *logrus.Logger, staleTime time.Duration) *Items {
	return &Items{cache: cache, client: client, logger: logger, staleTime: staleTime}
}

// List 订阅条目列表。相同参数共享同一缓存条目与在途请求。
func (r *Items) List(params ItemListParams) *query.Subscription {
	values := params.Values()
	key := query.NewKey("items", values)
	return r.cache.Subscribe(key, func(ctx context.Context) (interface{}, error) {
		var items []api.Item
		if err := r.client.Get(ctx, "/items", values, &items); err != nil {
			return nil, err
		}
		return items, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
}

// Get 订阅单个条目。id 非法时返回 (nil, false),不会发起任何请求。
func (r *Items) Get(id int64) (*query.Subscription, bool) {
	if id <= 0 {
		return nil, false
	}
	key := query.DetailKey("item", id)
	path := fmt.Sprintf("/items/%d", id)
	sub := r.cache.Subscribe(key, func(ctx context.Context) (interface{}, error) {
		var item api.Item
		if err := r.client.Get(ctx, path, nil, &item); err != nil {
			return nil, err
		}
		return &item, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
	return sub, true
}

// Count 订阅条目计数,参数与列表共享 active_only 语义。
func (r *Items) Count(activeOnly *bool) *query.Subscription {
	values := url.Values{}
	if activeOnly != nil {
		values.Set("active_only", strconv.FormatBool(*activeOnly))
	}
	key := query.NewKey("itemcount", values)
	return r.cache.Subscribe(key, func(ctx context.Context) (interface{}, error) {
		var count api.CountResult
		if err := r.client.Get(ctx, "/items/count", values, &count); err != nil {
			return nil, err
		}
		return count, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
}

// Create 新建条目。成功后失效所有列表与计数缓存,并用响应种子详情缓存;
// 失败时缓存保持原样。
func (r *Items) Create(ctx context.Context, payload api.ItemCreate) (*api.Item, error) {
	if strings.TrimSpace(payload.Title) == "" {
		return nil, api.NewValidationError("title", "不能为空")
	}

	var item api.Item
	if err := r.client.Post(ctx, "/items", payload, &item); err != nil {
		return nil, err
	}

	r.cache.Invalidate(query.ByResource("items", "itemcount"))
	r.cache.SetData(query.DetailKey("item", item.ID), &item)
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("items", "create", item.ID)).Info("条目已创建")
	}
	return &item, nil
}

// Update 更新条目。成功后失效列表缓存并刷新对应详情。
func (r *Items) Update(ctx context.Context, id int64, payload api.ItemUpdate) (*api.Item, error) {
	if id <= 0 {
		return nil, api.NewValidationError("id", "必须为正整数")
	}

	var item api.Item
	if err := r.client.Put(ctx, fmt.Sprintf("/items/%d", id), payload, &item); err != nil {
		return nil, err
	}

	r.cache.Invalidate(query.ByResource("items"))
	r.cache.SetData(query.DetailKey("item", id), &item)
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("items", "update", id)).Info("条目已更新")
	}
	return &item, nil
}

// Delete 删除条目。成功后失效列表与计数缓存,并移除详情条目。
func (r *Items) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return api.NewValidationError("id", "必须为正整数")
	}

	if err := r.client.Delete(ctx, fmt.Sprintf("/items/%d", id)); err != nil {
		return err
	}

	r.cache.Invalidate(query.ByResource("items", "itemcount"))
	r.cache.Remove(query.ByKey(query.DetailKey("item", id)))
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("items", "delete", id)).Info("条目已删除")
	}
	return nil
}
