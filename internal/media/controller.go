package media

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Controller serves stored media objects publicly.
type Controller struct {
	store  ObjectStore
	logger *logrus.Logger
}

func NewController(store ObjectStore, logger *logrus.Logger) *Controller {
	return &Controller{store: store, logger: logger}
}

func (ctl *Controller) MountController(router fiber.Router) {
	router.Get("/*", ctl.Serve)
}

func (ctl *Controller) Serve(c *fiber.Ctx) error {
	path := c.Params("*")
	if err := ValidateObjectPath(path); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	obj, err := ctl.store.Open(c.UserContext(), path)
	if errors.Is(err, ErrObjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not found",
		})
	}
	if err != nil {
		ctl.logger.WithField("path", path).WithError(err).Error("failed to read media object")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "storage unavailable",
		})
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Context().SetContentType(obj.ContentType)
	return c.Status(fiber.StatusOK).Send(obj.Data)
}
