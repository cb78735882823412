package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/metrics"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is an accepted generation.
type Result struct {
	Output      Output
	Engine      string
	Reason      string
	Corrected   bool
	Diagnostics []models.EngineDiagnostic
}

// Arbiter runs both backends and decides which output is used.
type Arbiter struct {
	backends []Backend
	timeout  time.Duration
	policy   *policy.Policy
	logger   *logrus.Logger
}

// NewArbiter orders the backends so the preferred one comes first.
func NewArbiter(primary, secondary Backend, preferred string, timeout time.Duration, pol *policy.Policy, logger *logrus.Logger) *Arbiter {
	backends := []Backend{primary, secondary}
	if secondary != nil && strings.EqualFold(preferred, secondary.Name()) {
		backends = []Backend{secondary, primary}
	}
	var kept []Backend
	for _, b := range backends {
		if b != nil {
			kept = append(kept, b)
		}
	}
	return &Arbiter{backends: kept, timeout: timeout, policy: pol, logger: logger}
}

// Configured reports whether at least one backend can be called.
func (a *Arbiter) Configured() bool {
	for _, b := range a.backends {
		if b.Configured() {
			return true
		}
	}
	return false
}

// Generate calls every configured backend concurrently, each under its own
// timeout, and waits for all of them so every diagnostic is kept. Any
// returned error is a *Failure.
func (a *Arbiter) Generate(ctx context.Context, in PromptInput) (*Result, error) {
	prompt := BuildPrompt(in)
	diags := make([]models.EngineDiagnostic, len(a.backends))
	outs := make([]*Output, len(a.backends))

	configured := 0
	var g errgroup.Group
	for i, b := range a.backends {
		if !b.Configured() {
			diags[i] = models.EngineDiagnostic{Engine: b.Name(), Error: ErrNotConfigured.Error()}
			metrics.EngineResults.WithLabelValues(b.Name(), "not_configured").Inc()
			continue
		}
		configured++
		g.Go(func() error {
			out, diag := a.attempt(ctx, b, prompt)
			diags[i] = diag
			if diag.OK {
				outs[i] = &out
			}
			return nil
		})
	}
	if configured == 0 {
		return nil, &Failure{Code: CodeNoBackend, Message: "no generative backend is configured", Diagnostics: diags}
	}
	_ = g.Wait()

	winner := -1
	for i := range outs {
		if outs[i] != nil {
			winner = i
			break
		}
	}
	if winner < 0 {
		return nil, &Failure{Code: CodeAllFailed, Message: failureSummary(diags), Diagnostics: diags}
	}

	res := &Result{
		Output:      *outs[winner],
		Engine:      a.backends[winner].Name(),
		Reason:      a.reason(winner, diags),
		Diagnostics: diags,
	}

	issues := a.qualityIssues(res.Output)
	if len(issues) == 0 {
		return res, nil
	}
	a.logger.WithFields(logrus.Fields{"engine": res.Engine, "issues": issues}).Info("output needs a corrective pass")
	a.correct(ctx, in, res, issues)

	if !IsSpanish(res.Output.Combined(), a.policy.Language) {
		return nil, &Failure{Code: CodeOutOfBounds, Message: "output is not in Spanish after correction", Diagnostics: res.Diagnostics}
	}
	return res, nil
}

func (a *Arbiter) attempt(ctx context.Context, b Backend, prompt Prompt) (Output, models.EngineDiagnostic) {
	start := time.Now()
	diag := models.EngineDiagnostic{Engine: b.Name(), Configured: true}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var out Output
	raw, err := b.Complete(cctx, prompt)
	if err == nil {
		out, diag.Extraction, err = Extract(raw, a.policy.Budget)
	}
	if err == nil && out.LongForm() == "" {
		err = ErrEmptyLongForm
	}
	if err == nil {
		if pattern := a.policy.SafetyViolation(out.Combined()); pattern != "" {
			err = ErrSafetyViolation
			a.logger.WithFields(logrus.Fields{"engine": b.Name(), "pattern": pattern}).Warn("engine output rejected by safety baseline")
		}
	}
	diag.DurationMS = time.Since(start).Milliseconds()

	outcome := "ok"
	switch {
	case err == nil:
		diag.OK = true
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded):
		outcome = "timeout"
		diag.Error = fmt.Sprintf("timeout after %s", a.timeout)
	case errors.Is(err, ErrSafetyViolation):
		outcome = "unsafe"
		diag.Error = err.Error()
	default:
		outcome = "error"
		diag.Error = err.Error()
	}
	metrics.EngineResults.WithLabelValues(b.Name(), outcome).Inc()

	entry := a.logger.WithFields(logrus.Fields{
		"engine":      b.Name(),
		"outcome":     outcome,
		"extraction":  diag.Extraction,
		"duration_ms": diag.DurationMS,
	})
	if err != nil {
		entry.WithError(err).Warn("engine attempt failed")
	} else {
		entry.Debug("engine attempt succeeded")
	}
	return out, diag
}

func (a *Arbiter) reason(winner int, diags []models.EngineDiagnostic) string {
	name := diags[winner].Engine
	if winner == 0 {
		if len(diags) > 1 {
			other := diags[1]
			if other.OK {
				return fmt.Sprintf("both engines valid; preferred %s", name)
			}
			if !other.Configured {
				return fmt.Sprintf("preferred %s valid; %s not configured", name, other.Engine)
			}
			return fmt.Sprintf("preferred %s valid; %s failed: %s", name, other.Engine, other.Error)
		}
		return fmt.Sprintf("only engine %s valid", name)
	}
	preferred := diags[0]
	if !preferred.Configured {
		return fmt.Sprintf("fallback to %s; preferred %s not configured", name, preferred.Engine)
	}
	return fmt.Sprintf("fallback to %s; preferred %s failed: %s", name, preferred.Engine, preferred.Error)
}

func (a *Arbiter) qualityIssues(out Output) []string {
	var issues []string
	if !IsSpanish(out.Combined(), a.policy.Language) {
		issues = append(issues, "el texto no está en español")
	}
	words := textnorm.WordCount(out.LongForm())
	if words < a.policy.WordWindow.Min || words > a.policy.WordWindow.Max {
		issues = append(issues, fmt.Sprintf("long_form tiene %d palabras; debe tener entre %d y %d",
			words, a.policy.WordWindow.Min, a.policy.WordWindow.Max))
	}
	return issues
}

// correct issues one corrective round-trip, preferred backend first and the
// other only if that attempt fails. The corrected text passes the same
// safety baseline before it replaces the original.
func (a *Arbiter) correct(ctx context.Context, in PromptInput, res *Result, issues []string) {
	prompt := CorrectionPrompt(in, res.Output, issues)
	for _, b := range a.backends {
		if !b.Configured() {
			continue
		}
		out, diag := a.attempt(ctx, b, prompt)
		diag.Engine = b.Name() + ":correction"
		res.Diagnostics = append(res.Diagnostics, diag)
		if !diag.OK {
			continue
		}
		res.Output = out
		res.Corrected = true
		if b.Name() != res.Engine {
			res.Reason += fmt.Sprintf("; corrected by %s", b.Name())
		} else {
			res.Reason += "; corrected"
		}
		res.Engine = b.Name()
		return
	}
}

// GenerateImage asks image-capable backends in preference order.
func (a *Arbiter) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	var errs []string
	for _, b := range a.backends {
		if !b.ImageCapable() {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		img, err := b.GenerateImage(cctx, prompt)
		cancel()
		if err == nil {
			return img, nil
		}
		a.logger.WithFields(logrus.Fields{"engine": b.Name()}).WithError(err).Warn("image synthesis failed")
		errs = append(errs, b.Name()+": "+err.Error())
	}
	if len(errs) == 0 {
		return nil, ErrNoImageModel
	}
	return nil, errors.New(strings.Join(errs, "; "))
}

func failureSummary(diags []models.EngineDiagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, d.Engine+": "+d.Error)
	}
	return strings.Join(parts, "; ")
}
