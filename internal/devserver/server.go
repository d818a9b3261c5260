package devserver

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/api"
)

const contextKeyRequestID = "_blogctl_request_id"

// Options 控制开发服务的构建。
type Options struct {
	Logger *logrus.Logger
}

// Server 将 Fiber 应用与内存数据层组合成完整的开发后端。
type Server struct {
	app    *fiber.App
	store  *memoryStore
	logger *logrus.Logger
}

// New 构建开发服务:注册全部路由与中间件,数据层为空。
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	srv := &Server{
		app:    fiber.New(fiber.Config{CaseSensitive: true}),
		store:  newMemoryStore(),
		logger: opts.Logger,
	}

	srv.app.Use(recover.New())
	srv.app.Use(requestContextMiddleware(opts.Logger))

	srv.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	srv.registerAuthRoutes()
	srv.registerItemRoutes()
	srv.registerPostRoutes()
	srv.registerProfileRoutes()

	return srv, nil
}

// App 暴露底层 Fiber 应用,供 Listen 与测试使用。
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 在指定地址上阻塞服务。
func (s *Server) Listen(addr string) error {
	s.logger.WithFields(logrus.Fields{
		"action": "serve",
		"addr":   addr,
	}).Info("dev server listening")
	return s.app.Listen(addr)
}

// Run 阻塞服务直到监听出错或 ctx 取消;取消时优雅关闭后返回 nil。
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.WithFields(logrus.Fields{
			"action": "serve",
		}).Info("dev server shutting down")
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Shutdown 优雅关闭。
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// SeedUser 直接写入一个用户并返回其令牌,供测试跳过注册流程。
func (s *Server) SeedUser(email, password, displayName string) (*api.User, string, error) {
	user, err := s.store.createUser(email, password, displayName)
	if err != nil {
		return nil, "", err
	}
	return user, s.store.issueToken(user.ID), nil
}

// requestContextMiddleware 为每个请求生成 ID 并附加到响应头。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
		}).Debug("request handled")
		return err
	}
}

// detail 按后端约定渲染错误响应。
func detail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// currentUser 解析 Authorization 头对应的用户;未携带或无效令牌返回 nil。
func (s *Server) currentUser(c fiber.Ctx) *api.User {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	user, ok := s.store.userByToken(strings.TrimSpace(token))
	if !ok {
		return nil
	}
	return user
}

// requireUser 同 currentUser,但失败时直接渲染 401。
func (s *Server) requireUser(c fiber.Ctx) (*api.User, error) {
	user := s.currentUser(c)
	if user == nil {
		return nil, detail(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	return user, nil
}

func parseID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, detail(c, fiber.StatusUnprocessableEntity, "Invalid id")
	}
	return id, nil
}

func queryInt(c fiber.Ctx, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func queryBoolPtr(c fiber.Ctx, name string) *bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
