package integration

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/config"
	"github.com/blogctl/blogctl/internal/devserver"
	"github.com/blogctl/blogctl/internal/logging"
	"github.com/blogctl/blogctl/internal/query"
	"github.com/blogctl/blogctl/internal/resource"
	"github.com/blogctl/blogctl/internal/session"
)

// env 把开发后端与一套完整的客户端栈(缓存/会话/资源绑定)装配在一起。
type env struct {
	baseURL   string
	tokenPath string

	cache   *query.Cache
	store   *session.Store
	client  *api.Client
	session *session.Service
	items   *resource.Items
	posts   *resource.Posts
	profile *resource.Profile
}

func startDevServer(t *testing.T) string {
	t.Helper()

	srv, err := devserver.New(devserver.Options{Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("devserver error: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go srv.App().Listener(ln)
	t.Cleanup(func() { srv.Shutdown() })

	baseURL := "http://" + ln.Addr().String()
	waitReachable(t, baseURL+"/health")
	return baseURL
}

func waitReachable(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("服务启动超时: %s", url)
}

func newEnv(t *testing.T, baseURL, tokenPath string) *env {
	t.Helper()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config error: %v", err)
	}
	cfg.Global.BaseURL = baseURL

	store, err := session.NewStore(tokenPath, nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	client, err := api.NewClient(cfg, store, nil)
	if err != nil {
		t.Fatalf("client error: %v", err)
	}
	cache := query.New(nil)

	return &env{
		baseURL:   baseURL,
		tokenPath: tokenPath,
		cache:     cache,
		store:     store,
		client:    client,
		session:   session.NewService(store, client, cache, nil, time.Minute),
		items:     resource.NewItems(cache, client, nil, time.Minute),
		posts:     resource.NewPosts(cache, client, nil, time.Minute),
		profile:   resource.NewProfile(cache, client, store, nil, time.Minute),
	}
}

func waitSettled(t *testing.T, sub *query.Subscription) query.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	snap, err := sub.Wait(ctx)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	return snap
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("等待超时: %s", what)
}

func TestAuthAndPostLifecycle(t *testing.T) {
	baseURL := startDevServer(t)
	env := newEnv(t, baseURL, filepath.Join(t.TempDir(), "token"))
	ctx := context.Background()

	user, err := env.session.Register(ctx, api.Registration{
		Email: "author@example.com", Password: "secret1", DisplayName: "Author",
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if env.store.Snapshot().State != session.StateAuthenticated {
		t.Fatalf("注册后应为已认证状态")
	}

	// 身份缓存被注册响应直接种子,Current 不再发请求也能立即返回。
	current, err := env.session.Current(ctx)
	if err != nil {
		t.Fatalf("current error: %v", err)
	}
	if current == nil || current.ID != user.ID {
		t.Fatalf("unexpected identity: %#v", current)
	}

	draft, err := env.posts.Create(ctx, api.PostCreate{Title: "wip", Content: "draft body"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if draft.Status != api.PostStatusDraft {
		t.Fatalf("缺省状态应为 draft: %v", draft.Status)
	}

	mine, ok := env.posts.List(resource.PostListParams{Mine: true})
	if !ok {
		t.Fatalf("mine 列表参数应合法")
	}
	snap := waitSettled(t, mine)
	if posts, _ := snap.Data.([]api.Post); len(posts) != 1 {
		t.Fatalf("mine 应返回一篇草稿: %#v", snap.Data)
	}
	mine.Close()

	published := api.PostStatusPublished
	if _, err := env.posts.Update(ctx, draft.ID, api.PostUpdate{Status: &published}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	// 匿名访客(独立客户端栈)能看到刚发布的文章。
	anon := newEnv(t, baseURL, filepath.Join(t.TempDir(), "token"))
	public, _ := anon.posts.List(resource.PostListParams{})
	snap = waitSettled(t, public)
	posts, _ := snap.Data.([]api.Post)
	if len(posts) != 1 || posts[0].Title != "wip" {
		t.Fatalf("发布后匿名应可见: %#v", snap.Data)
	}
	public.Close()

	env.session.Logout()
	if env.store.Snapshot().State != session.StateAnonymous {
		t.Fatalf("登出后应为匿名状态")
	}
	if current, err := env.session.Current(ctx); err != nil || current != nil {
		t.Fatalf("登出后 Current 应返回 nil: %v %v", current, err)
	}
}

func TestItemInvalidationCascade(t *testing.T) {
	baseURL := startDevServer(t)
	env := newEnv(t, baseURL, filepath.Join(t.TempDir(), "token"))
	ctx := context.Background()

	list := env.items.List(resource.ItemListParams{})
	defer list.Close()
	snap := waitSettled(t, list)
	if items, _ := snap.Data.([]api.Item); len(items) != 0 {
		t.Fatalf("初始列表应为空: %#v", snap.Data)
	}

	count := env.items.Count(nil)
	defer count.Close()
	waitSettled(t, count)

	if _, err := env.items.Create(ctx, api.ItemCreate{Title: "fresh"}); err != nil {
		t.Fatalf("create error: %v", err)
	}

	// 创建触发级联失效,存活的列表与计数订阅自动重新拉取。
	waitUntil(t, "列表包含新条目", func() bool {
		items, _ := list.Snapshot().Data.([]api.Item)
		return len(items) == 1 && items[0].Title == "fresh"
	})
	waitUntil(t, "计数更新", func() bool {
		result, ok := count.Snapshot().Data.(api.CountResult)
		return ok && result.Count == 1
	})
}

func TestSessionSurvivesRestart(t *testing.T) {
	baseURL := startDevServer(t)
	tokenPath := filepath.Join(t.TempDir(), "token")
	ctx := context.Background()

	first := newEnv(t, baseURL, tokenPath)
	if _, err := first.session.Register(ctx, api.Registration{
		Email: "keeper@example.com", Password: "secret1", DisplayName: "Keeper",
	}); err != nil {
		t.Fatalf("register error: %v", err)
	}

	// 新的客户端栈从磁盘令牌恢复:先 pending,确认身份后进入已认证。
	second := newEnv(t, baseURL, tokenPath)
	if got := second.store.Snapshot().State; got != session.StatePending {
		t.Fatalf("重启后应为 pending, got %v", got)
	}
	user, err := second.session.Current(ctx)
	if err != nil {
		t.Fatalf("current error: %v", err)
	}
	if user == nil || user.Email != "keeper@example.com" {
		t.Fatalf("unexpected restored identity: %#v", user)
	}
	if second.store.Snapshot().State != session.StateAuthenticated {
		t.Fatalf("确认身份后应为已认证状态")
	}
}

func TestProfileUpdateSyncsIdentity(t *testing.T) {
	baseURL := startDevServer(t)
	env := newEnv(t, baseURL, filepath.Join(t.TempDir(), "token"))
	ctx := context.Background()

	if _, err := env.session.Register(ctx, api.Registration{
		Email: "user@example.com", Password: "secret1", DisplayName: "Before",
	}); err != nil {
		t.Fatalf("register error: %v", err)
	}

	name := "After"
	if _, err := env.profile.Update(ctx, api.ProfileUpdate{DisplayName: &name}); err != nil {
		t.Fatalf("profile update error: %v", err)
	}

	// 资料更新后,身份缓存与会话用户同步到新显示名,无需额外请求。
	me := env.cache.Snapshot(session.MeKey())
	if user, ok := me.Data.(*api.User); !ok || user.DisplayName != "After" {
		t.Fatalf("身份缓存未同步: %#v", me.Data)
	}
	if got := env.store.Snapshot().User; got == nil || got.DisplayName != "After" {
		t.Fatalf("会话用户未同步: %#v", got)
	}

	current, err := env.session.Current(ctx)
	if err != nil || current == nil || current.DisplayName != "After" {
		t.Fatalf("Current 未反映更新: %#v %v", current, err)
	}
}

func TestExpiredTokenFallsBackToAnonymous(t *testing.T) {
	baseURL := startDevServer(t)
	tokenPath := filepath.Join(t.TempDir(), "token")

	// 手工写入一个后端不认识的令牌,模拟过期凭证。
	env := newEnv(t, baseURL, tokenPath)
	env.store.SetAuthenticated("stale-token", nil)

	user, err := env.session.Current(context.Background())
	if err != nil {
		t.Fatalf("过期令牌应静默回退, got %v", err)
	}
	if user != nil {
		t.Fatalf("过期令牌不应返回身份: %#v", user)
	}
	if env.store.Snapshot().State != session.StateAnonymous {
		t.Fatalf("过期令牌应清除会话")
	}
	if env.store.Token() != "" {
		t.Fatalf("过期令牌应从磁盘移除")
	}
}
