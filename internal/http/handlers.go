package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"geocrawl/internal/supervisor"
)

const statusLogLines = 10

// Supervisor is the slice of the process manager the handlers use.
type Supervisor interface {
	Spawn(jobID, logLevel string) error
	Pause(jobID string) error
	Resume(jobID string) error
	Kill(jobID string) error
	Status(jobID string, logLines int) (supervisor.Snapshot, []string, error)
	List() []supervisor.Snapshot
}

func manager(c *fiber.Ctx) Supervisor {
	return c.Locals("supervisor").(Supervisor)
}

func opError(c *fiber.Ctx, err error) error {
	if errors.Is(err, supervisor.ErrNotTracked) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_state",
		Message: err.Error(),
	})
}

func spawnHandler(c *fiber.Ctx) error {
	var req SpawnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid JSON body",
		})
	}
	if req.JobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "job_id is required",
		})
	}

	if err := manager(c).Spawn(req.JobID, req.LogLevel); err != nil {
		return opError(c, err)
	}
	return c.JSON(SpawnResponse{JobID: req.JobID, Status: "running"})
}

func pauseHandler(c *fiber.Ctx) error {
	if err := manager(c).Pause(c.Params("job_id")); err != nil {
		return opError(c, err)
	}
	return c.JSON(fiber.Map{"status": "paused"})
}

func resumeHandler(c *fiber.Ctx) error {
	if err := manager(c).Resume(c.Params("job_id")); err != nil {
		return opError(c, err)
	}
	return c.JSON(fiber.Map{"status": "running"})
}

func killHandler(c *fiber.Ctx) error {
	if err := manager(c).Kill(c.Params("job_id")); err != nil {
		return opError(c, err)
	}
	return c.JSON(fiber.Map{"status": "killed"})
}

func statusHandler(c *fiber.Ctx) error {
	snap, logs, err := manager(c).Status(c.Params("job_id"), statusLogLines)
	if err != nil {
		return opError(c, err)
	}
	if logs == nil {
		logs = []string{}
	}
	return c.JSON(StatusResponse{Snapshot: snap, Logs: logs})
}

func jobsHandler(c *fiber.Ctx) error {
	jobs := manager(c).List()
	if jobs == nil {
		jobs = []supervisor.Snapshot{}
	}
	return c.JSON(JobsResponse{Jobs: jobs})
}
