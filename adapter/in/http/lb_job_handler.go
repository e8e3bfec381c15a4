package http

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard_server/core/service/roster"
	"leaderboard_server/pkg/apperr"
	"leaderboard_server/pkg/response"
)

// JobHandler handles HTTP requests for the job-application log
type JobHandler struct {
	service *roster.Service
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(service *roster.Service) *JobHandler {
	return &JobHandler{service: service}
}

// Register registers job routes
func (h *JobHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Post("/:id/advance", h.Advance)
	jobs.Delete("/:id", h.Delete)

	router.Get("/users/:username/jobs", h.ListByUser)
	router.Post("/users/:username/jobs", h.Create)
}

// Create records a job application
// @Summary Add a job application
// @Tags Jobs
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body CreateJobRequest true "Job data"
// @Success 201 {object} domain.Job
// @Router /api/v1/users/{username}/jobs [post]
func (h *JobHandler) Create(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	job, err := h.service.AddJob(c.Context(), c.Params("username"), req.Title, req.Company, req.URL)
	if err != nil {
		return err
	}

	return response.Created(c, job)
}

// Advance moves a job one pipeline stage forward
// @Summary Advance a job application
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} domain.Job
// @Router /api/v1/jobs/{id}/advance [post]
func (h *JobHandler) Advance(c *fiber.Ctx) error {
	job, err := h.service.AdvanceJob(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return response.OK(c, job)
}

// Delete removes a job application
// @Summary Delete a job application
// @Tags Jobs
// @Param id path string true "Job ID"
// @Success 204
// @Router /api/v1/jobs/{id} [delete]
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteJob(c.Context(), c.Params("id")); err != nil {
		return err
	}

	return response.NoContent(c)
}

// ListByUser lists a user's job applications
// @Summary List a user's job applications
// @Tags Jobs
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} domain.Job
// @Router /api/v1/users/{username}/jobs [get]
func (h *JobHandler) ListByUser(c *fiber.Ctx) error {
	jobs, err := h.service.ListJobs(c.Context(), c.Params("username"))
	if err != nil {
		return err
	}

	return response.OKWithMeta(c, jobs, &response.Meta{Total: len(jobs)})
}

// CreateJobRequest is the add-job request body
type CreateJobRequest struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}
