package httpserver

import (
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/cors"

    appreviews "github.com/bryanwahyu/review-swarm/internal/application/reviews"
    domai "github.com/bryanwahyu/review-swarm/internal/domain/ai"
    domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
    "github.com/bryanwahyu/review-swarm/internal/middleware"
)

type Router struct {
    svc *appreviews.Service
}

// Options configures the outer middleware stack.
type Options struct {
    AllowedOrigins     []string
    APIKeys            []string
    RateLimitCapacity  int
    RateLimitRefill    int
    HealthPerspectives []string
    HealthCheckers     map[string]middleware.HealthChecker
}

func NewRouter(svc *appreviews.Service, opts Options) http.Handler {
    r := &Router{svc: svc}
    mux := chi.NewRouter()

    mux.Use(middleware.LoggingMiddleware)
    mux.Use(middleware.MetricsMiddleware)
    mux.Use(cors.Handler(cors.Options{
        AllowedOrigins: opts.AllowedOrigins,
        AllowedMethods: []string{"GET", "POST", "OPTIONS"},
        AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
    }))
    if opts.RateLimitCapacity > 0 {
        mux.Use(middleware.RateLimitMiddleware(opts.RateLimitCapacity, opts.RateLimitRefill))
    }
    mux.Use(middleware.APIKeyAuth(opts.APIKeys))

    mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        json.NewEncoder(w).Encode(map[string]any{
            "message": "code review swarm api",
            "health":  "/health",
        })
    })
    mux.Get("/health", middleware.HealthHandler(opts.HealthPerspectives, opts.HealthCheckers))
    mux.Get("/metrics", middleware.MetricsHandler)

    mux.Route("/v1", func(rt chi.Router) {
        rt.Post("/reviews", r.wrap(r.handleSubmit))
        rt.Get("/reviews/latest", r.wrap(r.handleLatest))
        rt.Get("/reviews/{id}", r.wrap(r.handleGet))
        rt.Get("/stats", r.wrap(r.handleStats))
    })

    return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, req *http.Request) {
        if err := h(w, req); err != nil {
            switch {
            case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
                http.Error(w, "not found", http.StatusNotFound)
            case errors.Is(err, domain.ErrValidation):
                http.Error(w, err.Error(), http.StatusBadRequest)
            case errors.Is(err, domai.ErrQuotaExceeded):
                http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
            default:
                http.Error(w, err.Error(), http.StatusInternalServerError)
            }
        }
    }
}

// POST /v1/reviews
// Body: {"code": "...", "language": "python", "filename": "app.py", "perspectives": ["security"]}
// By default the swarm runs in the background and the caller polls the
// review id; ?wait=true blocks until every perspective is done.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
    var body struct {
        Code         string   `json:"code"`
        Language     string   `json:"language"`
        Filename     string   `json:"filename"`
        Perspectives []string `json:"perspectives"`
    }
    if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
        return fmt.Errorf("%w: %v", domain.ErrValidation, err)
    }
    if err := middleware.ValidateLanguage(body.Language); err != nil {
        return fmt.Errorf("%w: %v", domain.ErrValidation, err)
    }
    if err := middleware.ValidateFilename(body.Filename); err != nil {
        return fmt.Errorf("%w: %v", domain.ErrValidation, err)
    }

    cmd := appreviews.SubmitReviewCommand{
        Code:         body.Code,
        Language:     body.Language,
        Filename:     middleware.SanitizeString(body.Filename),
        Perspectives: body.Perspectives,
    }

    middleware.IncrementReviews()

    if req.URL.Query().Get("wait") == "true" {
        middleware.IncrementReviewsRunning()
        defer middleware.DecrementReviewsRunning()

        review, err := r.svc.RunReview(req.Context(), cmd)
        if err != nil {
            middleware.IncrementReviewsFailed()
            return err
        }
        w.Header().Set("Content-Type", "application/json")
        return json.NewEncoder(w).Encode(review)
    }

    review, err := r.svc.StartReview(req.Context(), cmd)
    if err != nil {
        middleware.IncrementReviewsFailed()
        return err
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusAccepted)
    return json.NewEncoder(w).Encode(map[string]any{
        "review_id": review.ID,
        "status":    "queued",
        "queuedAt":  review.CreatedAt,
    })
}

// GET /v1/reviews/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
    id := chi.URLParam(req, "id")
    if err := middleware.ValidateReviewID(id); err != nil {
        return fmt.Errorf("%w: %v", domain.ErrValidation, err)
    }

    review, err := r.svc.Get(req.Context(), domain.ReviewID(id))
    if err != nil {
        return err
    }

    w.Header().Set("Content-Type", "application/json")
    return json.NewEncoder(w).Encode(review)
}

// GET /v1/reviews/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
    limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
    limit = middleware.ValidateLimit(limit)

    list, err := r.svc.Latest(req.Context(), limit)
    if err != nil {
        return err
    }

    w.Header().Set("Content-Type", "application/json")
    return json.NewEncoder(w).Encode(list)
}

// GET /v1/stats?days=7
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
    days, _ := strconv.Atoi(req.URL.Query().Get("days"))
    days = middleware.ValidateDays(days)

    stats, err := r.svc.Stats(req.Context(), days)
    if err != nil {
        return err
    }

    w.Header().Set("Content-Type", "application/json")
    return json.NewEncoder(w).Encode(stats)
}
