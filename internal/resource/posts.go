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
		Key:         "posts",
		Description: "博客文章,支持状态/标签/关键词过滤与仅看自己",
	})
}

// PostListParams 描述文章列表查询。Mine 为 true 时只返回当前用户的文章,
// 需要已登录;其余过滤条件可自由组合。
type PostListParams struct {
	Skip   int
	Limit  int
	Status api.PostStatus
	Search string
	Tag    string
	Mine   bool
}

// Values 将参数展开为规范化查询串,空字段不参与缓存键。
func (p PostListParams) Values() url.Values {
	values := url.Values{}
	if p.Skip > 0 {
		values.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		values.Set("status", string(p.Status))
	}
	if search := strings.TrimSpace(p.Search); search != "" {
		values.Set("search", search)
	}
	if tag := strings.TrimSpace(p.Tag); tag != "" {
		values.Set("tag", tag)
	}
	if p.Mine {
		values.Set("mine", "true")
	}
	return values
}

// Posts 绑定文章资源。分页翻动时调用方应保持上一页订阅直到新页 settle,
// 配合缓存的 stale-while-revalidate 实现无空窗翻页。
type Posts struct {
	cache     *query.Cache
	client    *api.Client
	logger    *logrus.Logger
	staleTime time.Duration
}

// NewPosts 构造文章绑定。
func NewPosts(cache *query.Cache, client *api.Client, logger *logrus.Logger, staleTime time.Duration) *Posts {
	return &Posts{cache: cache, client: client, logger: logger, staleTime: staleTime}
}

// List 订阅文章列表。Status 非法时返回 (nil, false),不会发起请求。
func (r *Posts) List(params PostListParams) (*query.Subscription, bool) {
	if params.Status != "" && !api.ValidPostStatus(params.Status) {
		return nil, false
	}
	values := params.Values()
	key := query.NewKey("posts", values)
	sub := r.cache.Subscribe(key, func(ctx context.Context) (interface{}, error) {
		var posts []api.Post
		if err := r.client.Get(ctx, "/posts", values, &posts); err != nil {
			return nil, err
		}
		return posts, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
	return sub, true
}

// Get 订阅单篇文章。id 非法时返回 (nil, false),不会发起任何请求。
func (r *Posts) Get(id int64) (*query.Subscription, bool) {
	if id <= 0 {
		return nil, false
	}
	key := query.DetailKey("post", id)
	path := fmt.Sprintf("/posts/%d", id)
	sub := r.cache.Subscribe(key, func(ctx context.Context) (interface{}, error) {
		var post api.Post
		if err := r.client.Get(ctx, path, nil, &post); err != nil {
			return nil, err
		}
		return &post, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
	return sub, true
}

// Create 发布新文章。成功后失效所有文章列表并种子详情缓存。
func (r *Posts) Create(ctx context.Context, payload api.PostCreate) (*api.Post, error) {
	if strings.TrimSpace(payload.Title) == "" {
		return nil, api.NewValidationError("title", "不能为空")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return nil, api.NewValidationError("content", "不能为空")
	}
	if payload.Status != "" && !api.ValidPostStatus(payload.Status) {
		return nil, api.NewValidationError("status", "取值必须是 published/draft/private 之一")
	}

	var post api.Post
	if err := r.client.Post(ctx, "/posts", payload, &post); err != nil {
		return nil, err
	}

	r.cache.Invalidate(query.ByResource("posts"))
	r.cache.SetData(query.DetailKey("post", post.ID), &post)
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("posts", "create", post.ID)).Info("文章已创建")
	}
	return &post, nil
}

// Update 更新文章,仅作者可操作(服务端校验)。成功后失效列表并刷新详情。
func (r *Posts) Update(ctx context.Context, id int64, payload api.PostUpdate) (*api.Post, error) {
	if id <= 0 {
		return nil, api.NewValidationError("id", "必须为正整数")
	}
	if payload.Status != nil && !api.ValidPostStatus(*payload.Status) {
		return nil, api.NewValidationError("status", "取值必须是 published/draft/private 之一")
	}

	var post api.Post
	if err := r.client.Put(ctx, fmt.Sprintf("/posts/%d", id), payload, &post); err != nil {
		return nil, err
	}

	r.cache.Invalidate(query.ByResource("posts"))
	r.cache.SetData(query.DetailKey("post", id), &post)
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("posts", "update", id)).Info("文章已更新")
	}
	return &post, nil
}

// Delete 删除文章。成功后失效列表缓存并移除详情条目。
func (r *Posts) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return api.NewValidationError("id", "必须为正整数")
	}

	if err := r.client.Delete(ctx, fmt.Sprintf("/posts/%d", id)); err != nil {
		return err
	}

	r.cache.Invalidate(query.ByResource("posts"))
	r.cache.Remove(query.ByKey(query.DetailKey("post", id)))
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("posts", "delete", id)).Info("文章已删除")
	}
	return nil
}
