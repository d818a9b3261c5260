package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/config"
	"github.com/blogctl/blogctl/internal/logging"
	"github.com/blogctl/blogctl/internal/query"
	"github.com/blogctl/blogctl/internal/resource"
	"github.com/blogctl/blogctl/internal/session"
)

// App 聚合一次 CLI 调用所需的全部运行时组件。组件在第一条需要它们的
// 命令执行时惰性构建,纯本地命令(version 等)不触碰配置与网络。
type App struct {
	out    io.Writer
	errOut io.Writer

	configPath string

	cfg     *config.Config
	logger  *logrus.Logger
	cache   *query.Cache
	store   *session.Store
	client  *api.Client
	session *session.Service
	items   *resource.Items
	posts   *resource.Posts
	profile *resource.Profile
}

func newApp(out, errOut io.Writer) *App {
	return &App{out: out, errOut: errOut}
}

// init 构建运行时:配置 → 日志 → 会话存储 → HTTP 客户端 → 缓存 → 资源绑定。
func (a *App) init() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	store, err := session.NewStore(cfg.Global.TokenPath, logger)
	if err != nil {
		return fmt.Errorf("初始化令牌存储失败: %w", err)
	}
	client, err := api.NewClient(cfg, store, logger)
	if err != nil {
		return err
	}
	cache := query.New(logger)

	a.cfg = cfg
	a.logger = logger
	a.store = store
	a.client = client
	a.cache = cache
	a.session = session.NewService(store, client, cache, logger, a.staleFor("auth"))
	a.items = resource.NewItems(cache, client, logger, a.staleFor("items"))
	a.posts = resource.NewPosts(cache, client, logger, a.staleFor("posts"))
	a.profile = resource.NewProfile(cache, client, store, logger, a.staleFor("profile"))
	return nil
}

// loadConfig 按 标志/环境变量 > ./config.toml > 内置默认值 的顺序取配置。
func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return config.Load("config.toml")
	}
	return config.Default()
}

// staleFor 计算资源的新鲜度窗口:配置覆盖 > 注册表默认值 > 全局值。
func (a *App) staleFor(name string) time.Duration {
	if override := a.overrideStaleTime(name); override > 0 {
		return override
	}
	if meta, ok := resource.Resolve(name); ok && meta.DefaultStaleTime > 0 {
		return meta.DefaultStaleTime
	}
	return a.cfgOrDefault().Global.StaleTime.DurationValue()
}

func (a *App) overrideStaleTime(name string) time.Duration {
	cfg := a.cfgOrDefault()
	for _, rc := range cfg.Resources {
		if strings.EqualFold(strings.TrimSpace(rc.Name), name) && rc.StaleTime.DurationValue() > 0 {
			return rc.StaleTime.DurationValue()
		}
	}
	return 0
}

// cfgOrDefault 供 staleFor 在 init 流程内调用,此时 a.cfg 可能尚未赋值。
func (a *App) cfgOrDefault() *config.Config {
	if a.cfg != nil {
		return a.cfg
	}
	cfg, err := a.loadConfig()
	if err != nil {
		fallback, _ := config.Default()
		return fallback
	}
	return cfg
}

// opCtx 给单次操作加上请求超时之外的保护性截止时间。
func (a *App) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := a.cfg.Global.RequestTimeout.DurationValue() + 5*time.Second
	return context.WithTimeout(parent, timeout)
}

// await 等待订阅 settle 并返回其数据;错误快照转为普通错误返回。
func (a *App) await(ctx context.Context, sub *query.Subscription) (interface{}, error) {
	defer sub.Close()
	snap, err := sub.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Status == query.StatusError {
		return nil, snap.Err
	}
	return snap.Data, nil
}

// requireLogin 在需要凭证的命令入口做快速失败,避免发出注定 401 的请求。
func (a *App) requireLogin() error {
	if a.store.Token() == "" {
		return fmt.Errorf("尚未登录,请先执行 blogctl login")
	}
	return nil
}

func (a *App) printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(encoded))
	return nil
}
