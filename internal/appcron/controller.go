package appcron

import (
	"time"

	"github.com/creatorstation/editorial/internal/editorial"
	"github.com/gofiber/fiber/v2"
)

func (s *Scheduler) MountController(router fiber.Router) {
	router.Post("/run-cycle", s.RunCycleHandler)
}

// RunCycleHandler triggers one cycle outside the cron schedule.
func (s *Scheduler) RunCycleHandler(c *fiber.Ctx) error {
	requestID := editorial.RequestID(c)
	cycle, err := s.RunCycle(c.UserContext(), time.Now())
	if err != nil {
		s.logger.WithField("request_id", requestID).WithError(err).Error("manual cycle failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok":         false,
			"error":      editorial.CodePersistenceFailed,
			"message":    err.Error(),
			"request_id": requestID,
		})
	}
	return c.JSON(fiber.Map{
		"ok":         true,
		"cycle":      cycle.Key,
		"scheduled":  cycle.Scheduled,
		"skipped":    cycle.Skipped,
		"request_id": requestID,
	})
}
