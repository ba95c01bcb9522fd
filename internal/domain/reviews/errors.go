package reviews

import "errors"

// ErrNotFound indicates no review exists for the requested id. This is a
// normal outcome on the read path, not a storage failure.
var ErrNotFound = errors.New("review not found")

// ErrValidation marks requests rejected before any perspective is dispatched.
var ErrValidation = errors.New("invalid review request")
