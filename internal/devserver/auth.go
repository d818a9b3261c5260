package devserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/blogctl/blogctl/internal/api"
)

func (s *Server) registerAuthRoutes() {
	s.app.Post("/auth/register", s.handleRegister)
	s.app.Post("/auth/login", s.handleLogin)
	s.app.Get("/auth/me", s.handleMe)
}

func (s *Server) handleRegister(c fiber.Ctx) error {
	var payload api.Registration
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if !strings.Contains(payload.Email, "@") {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid email address")
	}
	if len(payload.Password) < 6 {
		return detail(c, fiber.StatusUnprocessableEntity, "Password must be at least 6 characters")
	}
	if strings.TrimSpace(payload.DisplayName) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Display name is required")
	}

	user, err := s.store.createUser(payload.Email, payload.Password, strings.TrimSpace(payload.DisplayName))
	if err != nil {
		if errors.Is(err, errConflict) {
			return detail(c, fiber.StatusBadRequest, "Email already registered")
		}
		return detail(c, fiber.StatusInternalServerError, "Internal error")
	}

	token := s.store.issueToken(user.ID)
	s.logger.WithFields(map[string]interface{}{
		"action":  "register",
		"user_id": user.ID,
	}).Info("user registered")

	return c.Status(fiber.StatusCreated).JSON(api.AuthResponse{AccessToken: token, User: *user})
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var payload api.Credentials
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	token, user, err := s.store.authenticate(payload.Email, payload.Password)
	if err != nil {
		// 不区分"邮箱不存在"与"口令错误",避免账号探测。
		return detail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(api.AuthResponse{AccessToken: token, User: *user})
}

func (s *Server) handleMe(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
