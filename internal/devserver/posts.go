package devserver

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/blogctl/blogctl/internal/api"
)

func (s *Server) registerPostRoutes() {
	s.app.Get("/posts", s.handleListPosts)
	s.app.Get("/posts/:id", s.handleGetPost)
	s.app.Post("/posts", s.handleCreatePost)
	s.app.Put("/posts/:id", s.handleUpdatePost)
	s.app.Delete("/posts/:id", s.handleDeletePost)
}

func (s *Server) handleListPosts(c fiber.Ctx) error {
	filter := postFilter{
		skip:   queryInt(c, "skip", 0),
		limit:  queryInt(c, "limit", 20),
		search: c.Query("search"),
		tag:    strings.TrimSpace(c.Query("tag")),
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := api.PostStatus(raw)
		if !api.ValidPostStatus(status) {
			return detail(c, fiber.StatusUnprocessableEntity, "Invalid status value")
		}
		filter.status = status
	}

	if mine, _ := strconv.ParseBool(strings.TrimSpace(c.Query("mine"))); mine {
		user, err := s.requireUser(c)
		if err != nil {
			return err
		}
		filter.mine = true
		filter.viewer = user.ID
	}

	return c.JSON(s.store.listPosts(filter))
}

func (s *Server) handleGetPost(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var viewer int64
	if user := s.currentUser(c); user != nil {
		viewer = user.ID
	}
	post, err := s.store.getPost(id, viewer)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "Post not found")
	}
	return c.JSON(post)
}

func (s *Server) handleCreatePost(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	var payload api.PostCreate
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if strings.TrimSpace(payload.Title) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Title is required")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Content is required")
	}
	if payload.Status != "" && !api.ValidPostStatus(payload.Status) {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid status value")
	}

	return c.Status(fiber.StatusCreated).JSON(s.store.createPost(*user, payload))
}

func (s *Server) handleUpdatePost(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var payload api.PostUpdate
	if err := c.Bind().Body(&payload); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if payload.Status != nil && !api.ValidPostStatus(*payload.Status) {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid status value")
	}

	post, err := s.store.updatePost(id, user.ID, payload)
	if err != nil {
		if errors.Is(err, errForbidden) {
			return detail(c, fiber.StatusForbidden, "Not enough permissions")
		}
		return detail(c, fiber.StatusNotFound, "Post not found")
	}
	return c.JSON(post)
}

func (s *Server) handleDeletePost(c fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.store.deletePost(id, user.ID); err != nil {
		if errors.Is(err, errForbidden) {
			return detail(c, fiber.StatusForbidden, "Not enough permissions")
		}
		return detail(c, fiber.StatusNotFound, "Post not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
