package resource

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/logging"
	"github.com/blogctl/blogctl/internal/query"
	"github.com/blogctl/blogctl/internal/session"
)

func init() {
	MustRegister(Metadata{
		Key:              "profile",
		Description:      "当前用户的个人资料",
		DefaultStaleTime: 5 * time.Minute,
		RequiresAuth:     true,
	})
	MustRegister(Metadata{
		Key:          "auth",
		Description:  "会话身份(/auth/me)",
		RequiresAuth: true,
	})
}

// ProfileKey 是个人资料在查询缓存中的键。
func ProfileKey() query.Key {
	return query.NewKey("profile", url.Values{})
}

// Profile 绑定个人资料资源。资料与会话身份指向同一用户,
// 因此更新成功后会同时种子 profile 与 auth/me 两个缓存键。
type Profile struct {
	cache     *query.Cache
	client    *api.Client
	store     *session.Store
	logger    *logrus.Logger
	staleTime time.Duration
}

// NewProfile 构造资料绑定;store 可为 nil,此时更新不回写会话用户。
func NewProfile(cache *query.Cache, client *api.Client, store *session.Store, logger *logrus.Logger, staleTime time.Duration) *Profile {
	return &Profile{cache: cache, client: client, store: store, logger: logger, staleTime: staleTime}
}

// Get 订阅当前用户资料,需要已登录。
func (r *Profile) Get() *query.Subscription {
	return r.cache.Subscribe(ProfileKey(), func(ctx context.Context) (interface{}, error) {
		var user api.User
		if err := r.client.Get(ctx, "/profile", nil, &user); err != nil {
			return nil, err
		}
		return &user, nil
	}, query.SubscribeOptions{StaleTime: r.staleTime})
}

// Update 更新资料。成功后用响应同时种子资料缓存与身份缓存,
// 并回写会话存储,保证两处展示的用户一致。
func (r *Profile) Update(ctx context.Context, payload api.ProfileUpdate) (*api.User, error) {
	if payload.DisplayName != nil && strings.TrimSpace(*payload.DisplayName) == "" {
		return nil, api.NewValidationError("display_name", "不能为空")
	}

	var user api.User
	if err := r.client.Put(ctx, "/profile", payload, &user); err != nil {
		return nil, err
	}

	r.cache.SetData(ProfileKey(), &user)
	r.cache.SetData(session.MeKey(), &user)
	if r.store != nil {
		r.store.SetUser(&user)
	}
	if r.logger != nil {
		r.logger.WithFields(logging.MutationFields("profile", "update", user.ID)).Info("资料已更新")
	}
	return &user, nil
}
