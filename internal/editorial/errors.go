package editorial

import (
	"errors"
	"fmt"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/gofiber/fiber/v2"
)

const (
	CodeNoBackend         = engine.CodeNoBackend
	CodeAllFailed         = engine.CodeAllFailed
	CodeOutOfBounds       = engine.CodeOutOfBounds
	CodePersistenceFailed = "persistence_failed"
	CodeAssertionFailed   = "assertion_failed"
	CodeCandidateNotFound = "candidate_not_found"
	CodeInvalidRequest    = "invalid_request"
	CodeUnauthorized      = "unauthorized"
	CodeForbiddenOrigin   = "forbidden_origin"
)

var statusByCode = map[string]int{
	CodeNoBackend:         fiber.StatusServiceUnavailable,
	CodeAllFailed:         fiber.StatusBadGateway,
	CodeOutOfBounds:       fiber.StatusBadGateway,
	CodePersistenceFailed: fiber.StatusInternalServerError,
	CodeAssertionFailed:   fiber.StatusInternalServerError,
	CodeCandidateNotFound: fiber.StatusNotFound,
	CodeInvalidRequest:    fiber.StatusBadRequest,
	CodeUnauthorized:      fiber.StatusUnauthorized,
	CodeForbiddenOrigin:   fiber.StatusForbidden,
}

// Failure is a run failure that maps onto one HTTP status.
type Failure struct {
	Code    string
	Message string
	Engines []models.EngineDiagnostic
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Status is the HTTP status the failure is reported with.
func (f *Failure) Status() int {
	if s, ok := statusByCode[f.Code]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// EngineMap keys the per-engine diagnostics by engine name.
func (f *Failure) EngineMap() map[string]models.EngineDiagnostic {
	out := make(map[string]models.EngineDiagnostic, len(f.Engines))
	for _, d := range f.Engines {
		out[d.Engine] = d
	}
	return out
}

func fail(code, message string, err error) *Failure {
	return &Failure{Code: code, Message: message, Err: err}
}

// asFailure converts any run error into a Failure; unknown errors become
// persistence failures.
func asFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	var ef *engine.Failure
	if errors.As(err, &ef) {
		return &Failure{Code: ef.Code, Message: ef.Message, Engines: ef.Diagnostics}
	}
	return fail(CodePersistenceFailed, "unexpected failure", err)
}
