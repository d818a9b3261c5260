package devserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/blogctl/blogctl/internal/api"
)

func (s *Server) registerItemRoutes() {
	s.app.Get("/items", s.handleListItems)
	s.app.Get("/items/count", s.handleCountItems)
	s.app.Get("/items/:id", s.handleGetItem)
	s.app.Post("/items", s.handleCreateItem)
	s.app.Put("/items/:id", s.handleUpdateItem)
	s.app.Delete("/items/:id", s.handleDeleteItem)
}

func (s *Server) handleListItems(c fiber.Ctx) error {
	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 100)
	return c.JSON(s.store.listItems(skip, limit, queryBoolPtr(c, "active_only")))
}

func (s *Server) handleCountItems(c fiber.Ctx) error {
	return c.JSON(api.CountResult{Count: s.store.countItems(queryBoolPtr(c, "active_only"))})
}

func (s *Server) handleGetItem(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, err := s.store.getItem(id)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "Item not found")
	}
	return c.JSON(item)
}

func (s *Server) handleCreateItem(c fiber.Ctx) error {
	var payload api.ItemCreate
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if strings.TrimSpace(payload.Title) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Title is required")
	}
	return c.Status(fiber.StatusCreated).JSON(s.store.createItem(payload))
}

func (s *Server) handleUpdateItem(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var payload api.ItemUpdate
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if payload.Title != nil && strings.TrimSpace(*payload.Title) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Title must not be empty")
	}

	item, err := s.store.updateItem(id, payload)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "Item not found")
	}
	return c.JSON(item)
}

func (s *Server) handleDeleteItem(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.store.deleteItem(id); err != nil {
		if errors.Is(err, errNotFound) {
			return detail(c, fiber.StatusNotFound, "Item not found")
		}
		return detail(c, fiber.StatusInternalServerError, "Internal error")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
