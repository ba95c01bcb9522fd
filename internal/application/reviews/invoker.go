package reviews

import (
	"context"
	"time"

	"github.com/bryanwahyu/review-swarm/internal/domain/ai"
	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

// Invoker wraps a single generation call for one perspective. All failure
// modes (transport error, timeout, unparseable body) come back as a failed
// PerspectiveResult; nothing escapes as an error.
type Invoker struct {
	Gen ai.Generator
}

func NewInvoker(gen ai.Generator) *Invoker {
	return &Invoker{Gen: gen}
}

// Invoke runs one perspective against the submission with its own timeout.
// The raw model response is returned alongside the result so the caller can
// archive it.
func (iv *Invoker) Invoke(ctx context.Context, p domain.PerspectiveConfig, sub domain.Submission, timeout time.Duration) (domain.PerspectiveResult, string) {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := domain.PerspectiveResult{Perspective: p.Name}

	raw, err := iv.Gen.Generate(ctx, domain.SystemPrompt(p), domain.UserPrompt(p, sub))
	if err != nil {
		res.Status = domain.ResultFailed
		res.Error = err.Error()
		res.DurationMS = time.Since(start).Milliseconds()
		return res, ""
	}

	findings, summary, err := domain.ParseFindings(p, raw)
	if err != nil {
		res.Status = domain.ResultFailed
		res.Error = err.Error()
		res.DurationMS = time.Since(start).Milliseconds()
		return res, raw
	}

	// zero findings is a valid clean result
	res.Status = domain.ResultOK
	res.Findings = findings
	res.Summary = summary
	res.DurationMS = time.Since(start).Milliseconds()
	return res, raw
}
