package http

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard_server/core/service/roster"
	"leaderboard_server/pkg/apperr"
	"leaderboard_server/pkg/response"
)

// RosterHandler handles HTTP requests for roster management
type RosterHandler struct {
	service *roster.Service
}

// NewRosterHandler creates a new RosterHandler
func NewRosterHandler(service *roster.Service) *RosterHandler {
	return &RosterHandler{service: service}
}

// Register registers roster routes
func (h *RosterHandler) Register(router fiber.Router) {
	users := router.Group("/users")
	users.Get("/", h.List)
	users.Post("/", h.Create)
	users.Delete("/:username", h.Delete)

	admin := router.Group("/admin")
	admin.Post("/reconcile", h.Reconcile)
}

// List lists the tracked roster
// @Summary List roster members
// @Tags Roster
// @Produce json
// @Success 200 {array} domain.User
// @Router /api/v1/users [get]
func (h *RosterHandler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}

	return response.OKWithMeta(c, users, &response.Meta{Total: len(users)})
}

// Create adds a user to the roster
// @Summary Add a roster member
// @Tags Roster
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} domain.User
// @Router /api/v1/users [post]
func (h *RosterHandler) Create(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	user, err := h.service.AddUser(c.Context(), req.Username, req.Name)
	if err != nil {
		return err
	}

	return response.Created(c, user)
}

// Delete removes a user from the roster
// @Summary Remove a roster member
// @Tags Roster
// @Param username path string true "Username"
// @Success 204
// @Router /api/v1/users/{username} [delete]
func (h *RosterHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.RemoveUser(c.Context(), c.Params("username")); err != nil {
		return err
	}

	return response.NoContent(c)
}

// Reconcile rewrites drifted job counters from the job log
// @Summary Reconcile job counters
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/v1/admin/reconcile [post]
func (h *RosterHandler) Reconcile(c *fiber.Ctx) error {
	fixed, err := h.service.ReconcileJobCounts(c.Context())
	if err != nil {
		return err
	}

	return response.OK(c, fiber.Map{"corrected": fixed})
}

// CreateUserRequest is the add-user request body
type CreateUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}
