package editorial

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderSecret    = "X-Editorial-Secret"
	HeaderRequestID = "X-Request-ID"

	localRequestID = "request_id"
)

// Runner is the pipeline as seen by the HTTP surface.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

type Controller struct {
	runner Runner
	logger *logrus.Logger
}

func NewController(runner Runner, logger *logrus.Logger) *Controller {
	return &Controller{runner: runner, logger: logger}
}

func (ctl *Controller) MountController(router fiber.Router) {
	router.Post("/generate", ctl.Generate)
}

// Guard admits server-to-server calls carrying the shared secret. Requests
// that look like they come from a browser are refused even with a valid
// secret. An empty configured secret refuses everything.
func Guard(secret string, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := strings.TrimSpace(c.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Locals(localRequestID, requestID)
		c.Set(HeaderRequestID, requestID)

		if fromBrowser(c) {
			logger.WithFields(logrus.Fields{"request_id": requestID, "origin": c.Get(fiber.HeaderOrigin)}).
				Warn("browser-origin request refused")
			return respondFailure(c, fail(CodeForbiddenOrigin, "browser-origin requests are not accepted", nil))
		}
		given := c.Get(HeaderSecret)
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			return respondFailure(c, fail(CodeUnauthorized, "missing or invalid shared secret", nil))
		}
		return c.Next()
	}
}

func fromBrowser(c *fiber.Ctx) bool {
	for _, h := range []string{fiber.HeaderOrigin, "Sec-Fetch-Site", "Sec-Fetch-Mode", "Sec-Fetch-Dest"} {
		if strings.TrimSpace(c.Get(h)) != "" {
			return true
		}
	}
	return false
}

// RequestID returns the correlation id Guard attached to the request.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localRequestID).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func (ctl *Controller) Generate(c *fiber.Ctx) error {
	requestID := RequestID(c)

	var body GenerateBody
	if err := c.BodyParser(&body); err != nil {
		return respondFailure(c, fail(CodeInvalidRequest, err.Error(), nil))
	}
	if err := body.Validate(); err != nil {
		return respondFailure(c, fail(CodeInvalidRequest, err.Error(), nil))
	}

	res, err := ctl.runner.Run(c.UserContext(), body.RunRequest(requestID))
	if err != nil {
		f := asFailure(err)
		ctl.logger.WithFields(logrus.Fields{
			"request_id":   requestID,
			"candidate_id": body.CandidateID,
			"code":         f.Code,
		}).WithError(err).Warn("editorial run failed")
		return respondFailure(c, f)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":                 true,
		"id":                 res.DraftID,
		"source_engine":      res.SourceEngine,
		"arbitration_reason": res.ArbitrationReason,
		"article_found":      res.ArticleFound,
		"published":          res.Published,
		"request_id":         requestID,
	})
}

func respondFailure(c *fiber.Ctx, f *Failure) error {
	body := fiber.Map{
		"ok":         false,
		"error":      f.Code,
		"message":    f.Message,
		"request_id": RequestID(c),
	}
	if len(f.Engines) > 0 {
		body["engines"] = f.EngineMap()
	}
	return c.Status(f.Status()).JSON(body)
}
