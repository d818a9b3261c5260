package session

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/query"
)

// MeKey 是当前用户身份在查询缓存中的键。
func MeKey() query.Key {
	params := url.Values{}
	params.Set("scope", "me")
	return query.NewKey("auth", params)
}

// Service 将认证接口、令牌存储与查询缓存粘合成完整的会话生命周期。
type Service struct {
	store     *Store
	client    *api.Client
	cache     *query.Cache
	logger    *logrus.Logger
	staleTime time.Duration
}

// NewService 构造会话服务；staleTime 控制身份缓存的新鲜度窗口。
func NewService(store *Store, client *api.Client, cache *query.Cache, logger *logrus.Logger, staleTime time.Duration) *Service {
	return &Service{
		store:     store,
		client:    client,
		cache:     cache,
		logger:    logger,
		staleTime: staleTime,
	}
}

// Store 暴露底层状态存储，供 CLI 查询当前会话状态。
func (s *Service) Store() *Store {
	return s.store
}

// Login 执行登录：成功时写入令牌、种子身份缓存并通知监听方；
// 失败时会话状态保持原样，错误原样返回。
func (s *Service) Login(ctx context.Context, creds api.Credentials) (*api.User, error) {
	if strings.TrimSpace(creds.Email) == "" {
		return nil, api.NewValidationError("email", "不能为空")
	}
	if creds.Password == "" {
		return nil, api.NewValidationError("password", "不能为空")
	}

	var resp api.AuthResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return s.applyAuth(resp, "login"), nil
}

// Register 注册新用户，成功后效果与登录一致（自动登录）。
func (s *Service) Register(ctx context.Context, reg api.Registration) (*api.User, error) {
	if strings.TrimSpace(reg.Email) == "" {
		return nil, api.NewValidationError("email", "不能为空")
	}
	if reg.Password == "" {
		return nil, api.NewValidationError("password", "不能为空")
	}
	if strings.TrimSpace(reg.DisplayName) == "" {
		return nil, api.NewValidationError("display_name", "不能为空")
	}

	var resp api.AuthResponse
	if err := s.client.Post(ctx, "/auth/register", reg, &resp); err != nil {
		return nil, err
	}
	return s.applyAuth(resp, "register"), nil
}

// Logout 同步清空令牌与身份缓存，不等待任何网络确认。
func (s *Service) Logout() {
	s.store.Clear()
	s.cache.Remove(query.ByResource("auth"))
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"action": "logout"}).Info("session cleared")
	}
}

// Current 解析当前用户：无令牌直接返回 (nil, nil)；持令牌时经查询缓存确认
// 身份。令牌失效（401）会将会话强制回退为匿名而不是当作普通错误上抛。
func (s *Service) Current(ctx context.Context) (*api.User, error) {
	if s.store.Token() == "" {
		return nil, nil
	}

	fetcher := func(fctx context.Context) (interface{}, error) {
		var user api.User
		if err := s.client.Get(fctx, "/auth/me", nil, &user); err != nil {
			return nil, err
		}
		return &user, nil
	}

	sub := s.cache.Subscribe(MeKey(), fetcher, query.SubscribeOptions{StaleTime: s.staleTime})
	defer sub.Close()

	snap, err := sub.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Status == query.StatusError {
		if api.IsUnauthorized(snap.Err) {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"action": "session_expired"}).Info("token rejected, falling back to anonymous")
			}
			s.store.Clear()
			s.cache.Remove(query.ByResource("auth"))
			return nil, nil
		}
		return nil, snap.Err
	}

	user, ok := snap.Data.(*api.User)
	if !ok {
		return nil, api.NewValidationError("", "身份缓存中的数据形状非法")
	}
	s.store.SetUser(user)
	return user, nil
}

func (s *Service) applyAuth(resp api.AuthResponse, action string) *api.User {
	user := resp.User
	s.store.SetAuthenticated(resp.AccessToken, &user)
	s.cache.SetData(MeKey(), &user)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"action": action,
			"user":   user.Email,
		}).Info("session established")
	}
	return &user
}
