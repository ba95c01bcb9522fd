package reviews

import (
	"context"
	"sync"
	"time"

	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

// Swarm fans perspective invocations out concurrently and joins their
// results. One goroutine per perspective; each writes only its own slot, so
// the join needs no locking. A failed perspective never cancels siblings.
type Swarm struct {
	Invoker        *Invoker
	PerCallTimeout time.Duration
}

// SwarmOutcome is the joined result of one fan-out.
type SwarmOutcome struct {
	Results    map[string]domain.PerspectiveResult
	RawOutputs map[string]string
	DurationMS int64
}

// Review dispatches every perspective before waiting on any of them, then
// blocks until all reach a terminal state. The returned map holds exactly
// one entry per requested perspective regardless of how many failed.
// total duration is wall clock from dispatch to last completion, not the
// sum of the individual durations.
func (s *Swarm) Review(ctx context.Context, sub domain.Submission, perspectives []domain.PerspectiveConfig) SwarmOutcome {
	start := time.Now()

	type slot struct {
		result domain.PerspectiveResult
		raw    string
	}
	slots := make([]slot, len(perspectives))

	var wg sync.WaitGroup
	for i, p := range perspectives {
		wg.Add(1)
		go func(i int, p domain.PerspectiveConfig) {
			defer wg.Done()
			res, raw := s.Invoker.Invoke(ctx, p, sub, s.PerCallTimeout)
			slots[i] = slot{result: res, raw: raw}
		}(i, p)
	}
	wg.Wait()

	out := SwarmOutcome{
		Results:    make(map[string]domain.PerspectiveResult, len(perspectives)),
		RawOutputs: make(map[string]string, len(perspectives)),
		DurationMS: time.Since(start).Milliseconds(),
	}
	for _, sl := range slots {
		out.Results[sl.result.Perspective] = sl.result
		if sl.raw != "" {
			out.RawOutputs[sl.result.Perspective] = sl.raw
		}
	}
	return out
}
