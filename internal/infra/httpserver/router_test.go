package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/review-swarm/internal/application"
	appreviews "github.com/bryanwahyu/review-swarm/internal/application/reviews"
	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

type memRepo struct {
	mu    sync.Mutex
	saved map[domain.ReviewID]*domain.Review
}

func (m *memRepo) EnsureSchema(ctx context.Context) error { return nil }

func (m *memRepo) Save(ctx context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *r
	m.saved[r.ID] = &clone
	return nil
}

func (m *memRepo) Get(ctx context.Context, id domain.ReviewID) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.saved[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) Latest(ctx context.Context, limit int) ([]*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Review, 0, len(m.saved))
	for _, r := range m.saved {
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) Stats(ctx context.Context, sinceDays int) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.Stats
	for _, r := range m.saved {
		s.TotalReviews++
		s.TotalFindings += r.Counts.Total
	}
	return s, nil
}

type stubGen struct{}

func (stubGen) Generate(ctx context.Context, system, user string) (string, error) {
	if strings.Contains(system, "security expert") {
		return `{"issues": [{"severity": "critical", "title": "SQL injection", "description": "string concatenation in query", "line": 1}], "summary": "1 critical"}`, nil
	}
	return `{"issues": [], "summary": "clean"}`, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memRepo) {
	t.Helper()
	repo := &memRepo{saved: make(map[domain.ReviewID]*domain.Review)}
	svc := &appreviews.Service{
		Repo: repo,
		Swarm: &appreviews.Swarm{
			Invoker:        appreviews.NewInvoker(stubGen{}),
			PerCallTimeout: time.Second,
		},
		Perspectives: domain.BuiltinPerspectives(),
		Clock:        application.SystemClock{},
	}
	handler := NewRouter(svc, Options{
		AllowedOrigins:     []string{"*"},
		HealthPerspectives: []string{"security", "performance", "quality"},
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestSubmitWaitReturnsFullReport(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"code": "query = \"SELECT * FROM users WHERE id=\" + user_id", "language": "python", "filename": "app.py"}`
	resp, err := http.Post(srv.URL+"/v1/reviews?wait=true", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var review domain.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&review))
	assert.Equal(t, domain.StatusCompleted, review.Status)
	assert.Len(t, review.Results, 3)
	assert.Equal(t, 1, review.Counts.Critical)
}

func TestSubmitQueuedThenPoll(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/reviews", "application/json",
		strings.NewReader(`{"code": "x = 1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var queued struct {
		ReviewID string `json:"review_id"`
		Status   string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&queued))
	assert.Equal(t, "queued", queued.Status)
	require.NotEmpty(t, queued.ReviewID)

	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/v1/reviews/" + queued.ReviewID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		var review domain.Review
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			return false
		}
		return review.Status == domain.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty code", `{"code": ""}`},
		{"unknown perspective", `{"code": "x = 1", "perspectives": ["style"]}`},
		{"bad json", `{"code": `},
		{"bad language", `{"code": "x = 1", "language": "py thon!"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/reviews?wait=true", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetUnknownReview(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/reviews/review_0123456789ab")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed ids are rejected as validation errors
	resp, err = http.Get(srv.URL + "/v1/reviews/not-a-review-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLatestAndStats(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/v1/reviews?wait=true", "application/json",
			strings.NewReader(`{"code": "x = 1"}`))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/v1/reviews/latest?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []*domain.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 2)

	resp2, err := http.Get(srv.URL + "/v1/stats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var stats domain.Stats
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&stats))
	assert.Equal(t, 2, stats.TotalReviews)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status       string   `json:"status"`
		Perspectives []string `json:"perspectives"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, []string{"security", "performance", "quality"}, health.Perspectives)
}

func TestAPIKeyAuth(t *testing.T) {
	repo := &memRepo{saved: make(map[domain.ReviewID]*domain.Review)}
	svc := &appreviews.Service{
		Repo: repo,
		Swarm: &appreviews.Swarm{
			Invoker:        appreviews.NewInvoker(stubGen{}),
			PerCallTimeout: time.Second,
		},
		Perspectives: domain.BuiltinPerspectives(),
		Clock:        application.SystemClock{},
	}
	handler := NewRouter(svc, Options{
		AllowedOrigins: []string{"*"},
		APIKeys:        []string{"sekrit"},
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
