package normative

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a framework does not exist.
var ErrNotFound = errors.New("framework not found")

// Repository is the durable storage collaborator for frameworks. A store must
// provide read-your-writes semantics to the engine instance that wrote; the
// in-memory implementation satisfies this trivially.
type Repository interface {
	// GetFramework retrieves a framework by ID.
	GetFramework(ctx context.Context, id uuid.UUID) (*Framework, error)
	// GetActiveFrameworks returns all frameworks in the active state.
	GetActiveFrameworks(ctx context.Context) ([]*Framework, error)
	// ListFrameworks returns all frameworks regardless of state.
	ListFrameworks(ctx context.Context) ([]*Framework, error)
	// SearchFrameworks returns frameworks matching the query against title,
	// description, authority, or tags.
	SearchFrameworks(ctx context.Context, query string) ([]*Framework, error)
	// StoreFramework persists a new framework.
	StoreFramework(ctx context.Context, framework *Framework) error
	// UpdateFramework persists changes to an existing framework.
	UpdateFramework(ctx context.Context, framework *Framework) error
}

// Validator is the structural validation collaborator. It returns
// human-readable validation error messages; an empty slice means valid.
type Validator interface {
	ValidateFramework(ctx context.Context, framework *Framework) []string
}
