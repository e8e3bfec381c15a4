// Package http implements the inbound HTTP adapters.
package http

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard_server/core/domain"
	"leaderboard_server/core/service/leaderboard"
	"leaderboard_server/pkg/apperr"
	"leaderboard_server/pkg/response"
)

// LeaderboardHandler handles HTTP requests for leaderboard views
type LeaderboardHandler struct {
	service *leaderboard.Service
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(service *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Register registers leaderboard routes
func (h *LeaderboardHandler) Register(router fiber.Router) {
	lb := router.Group("/leaderboard")

	lb.Get("/:tab", h.Board)
	lb.Get("/:tab/previous", h.Previous)
	lb.Get("/:tab/countdown", h.Countdown)
}

// Board returns the requested leaderboard view
// @Summary Get a leaderboard tab
// @Tags Leaderboard
// @Produce json
// @Param tab path string true "Tab: alltime, weekly, monthly, yearly, jobs"
// @Success 200 {object} domain.Board
// @Router /api/v1/leaderboard/{tab} [get]
func (h *LeaderboardHandler) Board(c *fiber.Ctx) error {
	tab, err := parseTab(c)
	if err != nil {
		return err
	}

	board, err := h.service.Board(c.Context(), tab)
	if err != nil {
		return err
	}

	return response.OK(c, board)
}

// Previous returns the finished previous period's board
// @Summary Get the previous period's leaderboard
// @Tags Leaderboard
// @Produce json
// @Param tab path string true "Tab: weekly, monthly, yearly"
// @Success 200 {object} domain.Board
// @Router /api/v1/leaderboard/{tab}/previous [get]
func (h *LeaderboardHandler) Previous(c *fiber.Ctx) error {
	tab, err := parseTab(c)
	if err != nil {
		return err
	}

	board, err := h.service.PreviousBoard(c.Context(), tab)
	if err != nil {
		return err
	}

	return response.OK(c, board)
}

// Countdown returns the time left until the tab's period rolls over
// @Summary Get period rollover countdown
// @Tags Leaderboard
// @Produce json
// @Param tab path string true "Tab: weekly, monthly, yearly"
// @Success 200 {object} leaderboard.Countdown
// @Router /api/v1/leaderboard/{tab}/countdown [get]
func (h *LeaderboardHandler) Countdown(c *fiber.Ctx) error {
	tab, err := parseTab(c)
	if err != nil {
		return err
	}

	countdown, err := h.service.CountdownFor(tab)
	if err != nil {
		return err
	}

	return response.OK(c, countdown)
}

func parseTab(c *fiber.Ctx) (domain.Tab, error) {
	tab, ok := domain.ParseTab(c.Params("tab"))
	if !ok {
		return "", apperr.InvalidInput("tab", "must be one of alltime, weekly, monthly, yearly, jobs")
	}
	return tab, nil
}
