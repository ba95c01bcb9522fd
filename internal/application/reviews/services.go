package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

// Service implements use-cases untuk Review
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo         domain.Repository
	Swarm        *Swarm
	Artifacts    domain.ArtifactStore // optional
	Perspectives *domain.PerspectiveSet
	Clock        Clock
	MaxCodeBytes int
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const (
	defaultLanguage     = "python"
	defaultMaxCodeBytes = 200 * 1024
)

//
// ==== USE CASES ====
//

// Command untuk submit review
type SubmitReviewCommand struct {
	Code         string
	Language     string
	Filename     string
	Perspectives []string
}

// validate rejects bad submissions before any perspective is dispatched and
// resolves the perspective configs to run.
func (s *Service) validate(cmd SubmitReviewCommand) (domain.Submission, []domain.PerspectiveConfig, error) {
	if strings.TrimSpace(cmd.Code) == "" {
		return domain.Submission{}, nil, fmt.Errorf("%w: code is required", domain.ErrValidation)
	}
	max := s.MaxCodeBytes
	if max <= 0 {
		max = defaultMaxCodeBytes
	}
	if len(cmd.Code) > max {
		return domain.Submission{}, nil, fmt.Errorf("%w: code exceeds %d bytes", domain.ErrValidation, max)
	}
	lang := strings.ToLower(strings.TrimSpace(cmd.Language))
	if lang == "" {
		lang = defaultLanguage
	}
	ps, err := s.Perspectives.Resolve(cmd.Perspectives)
	if err != nil {
		return domain.Submission{}, nil, err
	}
	return domain.Submission{Code: cmd.Code, Language: lang, Filename: cmd.Filename}, ps, nil
}

// StartReview validates, stores an initial running row and fans the swarm
// out in the background so the HTTP caller gets the id right away.
func (s *Service) StartReview(ctx context.Context, cmd SubmitReviewCommand) (*domain.Review, error) {
	sub, ps, err := s.validate(cmd)
	if err != nil {
		return nil, err
	}

	initial := s.newReview(sub)
	if err := s.Repo.Save(ctx, initial); err != nil {
		return nil, err
	}

	// jalankan di background, biar jalan sampai selesai
	go func() {
		done, err := s.runSwarm(context.Background(), initial, ps)
		if err != nil {
			log.Printf("background review save error: id=%s err=%v", initial.ID, err)
			return
		}
		log.Printf("review finished: id=%s findings=%d duration_ms=%d",
			done.ID, done.Counts.Total, done.DurationMS)
	}()

	return initial, nil
}

// RunReview is the synchronous variant: it blocks until every perspective
// reached a terminal state. A storage failure does not discard the computed
// report; it is returned alongside the error so the caller can retry Save.
func (s *Service) RunReview(ctx context.Context, cmd SubmitReviewCommand) (*domain.Review, error) {
	sub, ps, err := s.validate(cmd)
	if err != nil {
		return nil, err
	}

	initial := s.newReview(sub)
	if err := s.Repo.Save(ctx, initial); err != nil {
		return nil, err
	}
	return s.runSwarm(ctx, initial, ps)
}

func (s *Service) newReview(sub domain.Submission) *domain.Review {
	id := fmt.Sprintf("review_%s", strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return &domain.Review{
		ID:         domain.ReviewID(id),
		Submission: sub,
		Status:     domain.StatusRunning,
		Results:    map[string]domain.PerspectiveResult{},
		CreatedAt:  s.Clock.Now(),
	}
}

func (s *Service) runSwarm(ctx context.Context, r *domain.Review, ps []domain.PerspectiveConfig) (*domain.Review, error) {
	outcome := s.Swarm.Review(ctx, r.Submission, ps)

	completed := s.Clock.Now()
	done := &domain.Review{
		ID:          r.ID,
		Submission:  r.Submission,
		Status:      domain.StatusCompleted,
		Results:     outcome.Results,
		Counts:      domain.CountFindings(outcome.Results),
		ArtifactURL: s.archiveRawOutputs(ctx, r.ID, outcome.RawOutputs),
		CreatedAt:   r.CreatedAt,
		CompletedAt: &completed,
		DurationMS:  outcome.DurationMS,
	}

	if err := s.Repo.Save(ctx, done); err != nil {
		return done, err
	}
	return done, nil
}

// archiveRawOutputs uploads the raw model responses when an artifact store
// is configured. Archival is best-effort; a failed upload never fails the
// review.
func (s *Service) archiveRawOutputs(ctx context.Context, id domain.ReviewID, raw map[string]string) string {
	if s.Artifacts == nil || len(raw) == 0 {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	key := fmt.Sprintf("reviews/%s/raw.json", id)
	url, err := s.Artifacts.UploadJSON(ctx, key, data)
	if err != nil {
		log.Printf("artifact upload error: id=%s err=%v", id, err)
		return ""
	}
	return url
}

// Get ambil 1 review by id
func (s *Service) Get(ctx context.Context, id domain.ReviewID) (*domain.Review, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N review terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Review, error) {
	return s.Repo.Latest(ctx, limit)
}

// Stats rekap hasil review N hari terakhir
func (s *Service) Stats(ctx context.Context, sinceDays int) (domain.Stats, error) {
	return s.Repo.Stats(ctx, sinceDays)
}
