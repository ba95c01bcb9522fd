package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

// stubGenerator fakes the external generation service.
type stubGenerator struct {
	delay   time.Duration
	respond func(system, user string) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.respond != nil {
		return s.respond(system, user)
	}
	return `{"issues": [], "summary": "clean"}`, nil
}

var testSubmission = domain.Submission{
	Code:     `query = "SELECT * FROM users WHERE id=" + user_id`,
	Language: "python",
}

func allPerspectives(t *testing.T) []domain.PerspectiveConfig {
	t.Helper()
	ps, err := domain.BuiltinPerspectives().Resolve(nil)
	require.NoError(t, err)
	return ps
}

func newSwarm(gen *stubGenerator, timeout time.Duration) *Swarm {
	return &Swarm{Invoker: NewInvoker(gen), PerCallTimeout: timeout}
}

func TestSwarmOneResultPerPerspective(t *testing.T) {
	// one perspective fails, the report still carries every perspective
	gen := &stubGenerator{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "performance") {
			return "", errors.New("connection refused")
		}
		return `{"issues": [], "summary": "clean"}`, nil
	}}

	out := newSwarm(gen, time.Second).Review(context.Background(), testSubmission, allPerspectives(t))

	require.Len(t, out.Results, 3)
	assert.Equal(t, domain.ResultOK, out.Results["security"].Status)
	assert.Equal(t, domain.ResultOK, out.Results["quality"].Status)
	assert.Equal(t, domain.ResultFailed, out.Results["performance"].Status)
	assert.Contains(t, out.Results["performance"].Error, "connection refused")
}

func TestSwarmAllFailedStillCompletes(t *testing.T) {
	gen := &stubGenerator{respond: func(system, user string) (string, error) {
		return "", errors.New("boom")
	}}

	out := newSwarm(gen, time.Second).Review(context.Background(), testSubmission, allPerspectives(t))

	require.Len(t, out.Results, 3)
	for name, pr := range out.Results {
		assert.Equal(t, domain.ResultFailed, pr.Status, name)
		assert.NotEmpty(t, pr.Error, name)
	}
	assert.Empty(t, out.RawOutputs)
}

func TestSwarmRunsPerspectivesInParallel(t *testing.T) {
	perCall := 100 * time.Millisecond
	gen := &stubGenerator{delay: perCall}

	start := time.Now()
	out := newSwarm(gen, time.Second).Review(context.Background(), testSubmission, allPerspectives(t))
	elapsed := time.Since(start)

	require.Len(t, out.Results, 3)
	// sequential execution would take ~3x the per-call delay
	assert.Less(t, elapsed, 3*perCall/2, "perspectives did not run concurrently")
	assert.GreaterOrEqual(t, out.DurationMS, perCall.Milliseconds())
	assert.Less(t, out.DurationMS, (3 * perCall / 2).Milliseconds())
}

func TestSwarmPerCallTimeout(t *testing.T) {
	// deliberately slow service against a 1ms budget
	gen := &stubGenerator{delay: 200 * time.Millisecond}

	out := newSwarm(gen, time.Millisecond).Review(context.Background(), testSubmission, allPerspectives(t))

	require.Len(t, out.Results, 3)
	for name, pr := range out.Results {
		assert.Equal(t, domain.ResultFailed, pr.Status, name)
		assert.NotEmpty(t, pr.Error, name)
	}
}

func TestSwarmSecurityFindingScenario(t *testing.T) {
	gen := &stubGenerator{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "security expert") {
			return `{"issues": [{"severity": "critical", "title": "SQL injection", "description": "query built by string concatenation", "line": 1}], "summary": "1 critical"}`, nil
		}
		return `{"issues": [], "summary": "clean"}`, nil
	}}

	out := newSwarm(gen, time.Second).Review(context.Background(), testSubmission, allPerspectives(t))

	sec := out.Results["security"]
	require.Equal(t, domain.ResultOK, sec.Status)
	require.NotEmpty(t, sec.Findings)
	assert.Contains(t, []domain.Severity{domain.SeverityCritical, domain.SeverityHigh}, sec.Findings[0].Severity)
	assert.Contains(t, sec.Findings[0].Description, "concatenation")

	assert.Equal(t, domain.ResultOK, out.Results["performance"].Status)
	assert.Equal(t, domain.ResultOK, out.Results["quality"].Status)
}

func TestSwarmRawOutputsKeyedByPerspective(t *testing.T) {
	gen := &stubGenerator{respond: func(system, user string) (string, error) {
		return fmt.Sprintf(`{"issues": [], "summary": "len=%d"}`, len(user)), nil
	}}

	out := newSwarm(gen, time.Second).Review(context.Background(), testSubmission, allPerspectives(t))

	require.Len(t, out.RawOutputs, 3)
	for _, name := range []string{"security", "performance", "quality"} {
		assert.NotEmpty(t, out.RawOutputs[name])
	}
}
