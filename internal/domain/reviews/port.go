package reviews

import "context"

// Repository port (interface untuk persistence)
// Save is append-only from the caller's point of view: a review row is
// written once as running and once more as completed; it is never mutated
// after the coordinator returns.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, r *Review) error
	Get(ctx context.Context, id ReviewID) (*Review, error)
	Latest(ctx context.Context, limit int) ([]*Review, error)
	Stats(ctx context.Context, sinceDays int) (Stats, error)
}

// ArtifactStore port (interface untuk penyimpanan raw model output)
type ArtifactStore interface {
	UploadJSON(ctx context.Context, key string, data []byte) (string, error)
}
