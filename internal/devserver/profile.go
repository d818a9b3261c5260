package devserver

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/blogctl/blogctl/internal/api"
)

func (s *Server) registerProfileRoutes() {
	s.app.Get("/profile", s.handleGetProfile)
	s.app.Put("/profile", s.handleUpdateProfile)
}

func (s *Server) handleGetProfile(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) handleUpdateProfile(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	var payload api.ProfileUpdate
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if payload.DisplayName != nil && strings.TrimSpace(*payload.DisplayName) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Display name must not be empty")
	}

	updated, err := s.store.updateUser(user.ID, payload)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(updated)
}
