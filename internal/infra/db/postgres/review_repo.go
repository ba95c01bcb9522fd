package postgres

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

type ReviewRepository struct { db *sql.DB }

func NewReviewRepository(db *sql.DB) *ReviewRepository { return &ReviewRepository{db: db} }

// EnsureSchema creates the review tables when missing.
func (r *ReviewRepository) EnsureSchema(ctx context.Context) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS reviews (
  id             VARCHAR(100) PRIMARY KEY,
  code           TEXT NOT NULL,
  language       VARCHAR(50) NOT NULL,
  filename       VARCHAR(255),
  status         VARCHAR(50) NOT NULL,
  critical       INT NOT NULL DEFAULT 0,
  high           INT NOT NULL DEFAULT 0,
  medium         INT NOT NULL DEFAULT 0,
  low            INT NOT NULL DEFAULT 0,
  info           INT NOT NULL DEFAULT 0,
  findings_total INT NOT NULL DEFAULT 0,
  artifact_url   TEXT,
  duration_ms    BIGINT NOT NULL DEFAULT 0,
  created_at     TIMESTAMPTZ NOT NULL,
  completed_at   TIMESTAMPTZ
);`,
        `CREATE TABLE IF NOT EXISTS review_results (
  id            BIGSERIAL PRIMARY KEY,
  review_id     VARCHAR(100) NOT NULL REFERENCES reviews(id),
  perspective   VARCHAR(50) NOT NULL,
  status        VARCHAR(20) NOT NULL,
  findings      JSONB,
  summary       TEXT,
  error_message TEXT,
  duration_ms   BIGINT NOT NULL DEFAULT 0,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
        `CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at DESC);`,
        `CREATE INDEX IF NOT EXISTS idx_review_results_review ON review_results(review_id);`,
    }
    for _, q := range stmts {
        if _, err := r.db.ExecContext(ctx, q); err != nil {
            return fmt.Errorf("ensuring schema: %w", err)
        }
    }
    return nil
}

// Save upserts the review row and rewrites its perspective results in one
// transaction. The service calls it once for the initial running row and
// once with the completed report.
func (r *ReviewRepository) Save(ctx context.Context, rev *domain.Review) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("beginning tx: %w", err)
    }
    defer tx.Rollback()

    const q = `
INSERT INTO reviews
(id, code, language, filename, status,
 critical, high, medium, low, info, findings_total,
 artifact_url, duration_ms, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,$10,$11,
        $12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 critical = EXCLUDED.critical,
 high = EXCLUDED.high,
 medium = EXCLUDED.medium,
 low = EXCLUDED.low,
 info = EXCLUDED.info,
 findings_total = EXCLUDED.findings_total,
 artifact_url = EXCLUDED.artifact_url,
 duration_ms = EXCLUDED.duration_ms,
 completed_at = EXCLUDED.completed_at;`

    created := rev.CreatedAt
    if created.IsZero() { created = time.Now() }

    if _, err := tx.ExecContext(ctx, q,
        rev.ID, rev.Submission.Code, rev.Submission.Language, rev.Submission.Filename, rev.Status,
        rev.Counts.Critical, rev.Counts.High, rev.Counts.Medium, rev.Counts.Low, rev.Counts.Info, rev.Counts.Total,
        rev.ArtifactURL, rev.DurationMS, created, rev.CompletedAt,
    ); err != nil {
        return fmt.Errorf("saving review: %w", err)
    }

    if _, err := tx.ExecContext(ctx, `DELETE FROM review_results WHERE review_id = $1;`, rev.ID); err != nil {
        return fmt.Errorf("clearing results: %w", err)
    }

    const qr = `
INSERT INTO review_results
(review_id, perspective, status, findings, summary, error_message, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
    for _, name := range sortedResultKeys(rev.Results) {
        pr := rev.Results[name]
        findings, err := json.Marshal(pr.Findings)
        if err != nil {
            return fmt.Errorf("encoding findings: %w", err)
        }
        if _, err := tx.ExecContext(ctx, qr,
            rev.ID, pr.Perspective, pr.Status, findings, pr.Summary, pr.Error, pr.DurationMS,
        ); err != nil {
            return fmt.Errorf("saving result %s: %w", pr.Perspective, err)
        }
    }

    return tx.Commit()
}

// Get by ID
func (r *ReviewRepository) Get(ctx context.Context, id domain.ReviewID) (*domain.Review, error) {
    const q = `
SELECT id, code, language, filename, status,
       critical, high, medium, low, info, findings_total,
       artifact_url, duration_ms, created_at, completed_at
FROM reviews
WHERE id=$1
LIMIT 1;`
    rev, err := scanReview(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, domain.ErrNotFound
        }
        return nil, err
    }

    if rev.Results, err = r.loadResults(ctx, rev.ID); err != nil {
        return nil, err
    }
    return rev, nil
}

// Latest reviews, newest first
func (r *ReviewRepository) Latest(ctx context.Context, limit int) ([]*domain.Review, error) {
    if limit <= 0 { limit = 20 }
    const q = `
SELECT id, code, language, filename, status,
       critical, high, medium, low, info, findings_total,
       artifact_url, duration_ms, created_at, completed_at
FROM reviews
ORDER BY created_at DESC, id DESC
LIMIT $1;`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil { return nil, err }
    defer rows.Close()

    var out []*domain.Review
    for rows.Next() {
        rev, err := scanReview(rows)
        if err != nil { return nil, err }
        out = append(out, rev)
    }
    if err := rows.Err(); err != nil { return nil, err }

    for _, rev := range out {
        if rev.Results, err = r.loadResults(ctx, rev.ID); err != nil {
            return nil, err
        }
    }
    return out, nil
}

// Stats counts review results since N days
func (r *ReviewRepository) Stats(ctx context.Context, sinceDays int) (domain.Stats, error) {
    if sinceDays <= 0 { sinceDays = 7 }
    cut := time.Now().AddDate(0, 0, -sinceDays)
    const q = `
SELECT COUNT(*)                        AS total_reviews,
       COALESCE(SUM(findings_total),0) AS total_findings,
       COALESCE(AVG(duration_ms),0)    AS avg_duration_ms
FROM reviews
WHERE created_at >= $1;`
    var s domain.Stats
    if err := r.db.QueryRowContext(ctx, q, cut).Scan(&s.TotalReviews, &s.TotalFindings, &s.AvgDurationMS); err != nil {
        return domain.Stats{}, err
    }
    return s, nil
}

func (r *ReviewRepository) loadResults(ctx context.Context, id domain.ReviewID) (map[string]domain.PerspectiveResult, error) {
    const q = `
SELECT perspective, status, findings, summary, error_message, duration_ms
FROM review_results
WHERE review_id=$1
ORDER BY id;`
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil { return nil, err }
    defer rows.Close()

    out := make(map[string]domain.PerspectiveResult)
    for rows.Next() {
        var pr domain.PerspectiveResult
        var findings []byte
        var summary, errMsg sql.NullString
        if err := rows.Scan(&pr.Perspective, &pr.Status, &findings, &summary, &errMsg, &pr.DurationMS); err != nil {
            return nil, err
        }
        pr.Summary = summary.String
        pr.Error = errMsg.String
        if len(findings) > 0 {
            if err := json.Unmarshal(findings, &pr.Findings); err != nil {
                return nil, fmt.Errorf("decoding findings for %s: %w", pr.Perspective, err)
            }
        }
        out[pr.Perspective] = pr
    }
    return out, rows.Err()
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReview(row rowScanner) (*domain.Review, error) {
    var rev domain.Review
    var filename, artifactURL sql.NullString
    var completed sql.NullTime
    if err := row.Scan(
        &rev.ID, &rev.Submission.Code, &rev.Submission.Language, &filename, &rev.Status,
        &rev.Counts.Critical, &rev.Counts.High, &rev.Counts.Medium, &rev.Counts.Low, &rev.Counts.Info, &rev.Counts.Total,
        &artifactURL, &rev.DurationMS, &rev.CreatedAt, &completed,
    ); err != nil {
        return nil, err
    }
    rev.Submission.Filename = filename.String
    rev.ArtifactURL = artifactURL.String
    if completed.Valid {
        t := completed.Time
        rev.CompletedAt = &t
    }
    return &rev, nil
}
