package normative

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// Service defines the normative engine interface consumed by presentation
// adapters.
type Service interface {
	// RegisterFramework validates and activates a framework, screening it
	// against active frameworks for direct conflicts before persisting.
	RegisterFramework(ctx context.Context, framework *normative.Framework) (uuid.UUID, error)
	// GetFramework retrieves a framework through the read-through cache.
	GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error)
	// GetActiveFrameworks returns all active frameworks.
	GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error)
	// SearchFrameworks searches the repository.
	SearchFrameworks(ctx context.Context, query string) ([]*normative.Framework, error)
	// GetFrameworkHierarchy returns the transitive dependency closure of a
	// framework, depth-first and cycle-safe.
	GetFrameworkHierarchy(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	// DetectConflicts runs all conflict-finding passes over the frameworks.
	DetectConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Conflict, error)
	// ResolveFrameworkConflicts returns the given frameworks only when no
	// conflicts exist among them; otherwise it fails with a conflict error.
	ResolveFrameworkConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Framework, error)
	// AssessCompliance evaluates an entity's evidence against the named
	// frameworks' requirements.
	AssessCompliance(ctx context.Context, req AssessmentRequest) (*normative.Assessment, error)
	// GenerateComplianceReport renders a deterministic plain-text report.
	GenerateComplianceReport(assessment *normative.Assessment) string
}

// FrameworkCache is an optional second-level cache sitting between the
// engine's in-memory state and the repository.
type FrameworkCache interface {
	// GetFramework returns (nil, nil) on a cache miss.
	GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error)
	SetFramework(ctx context.Context, framework *normative.Framework) error
	DeleteFramework(ctx context.Context, id uuid.UUID) error
}

// MetricsCollector records engine-level metrics.
type MetricsCollector interface {
	RecordRegistration(ctx context.Context)
	RecordConflictScan(ctx context.Context, conflicts int, elapsed time.Duration)
	RecordAssessment(ctx context.Context, status normative.ComplianceStatus, elapsed time.Duration)
}

// AssessmentRequest names the entity, the frameworks to assess against, and
// the entity's evidence keyed by field name.
type AssessmentRequest struct {
	EntityID     string
	FrameworkIDs []uuid.UUID
	Evidence     map[string]string
}

// ServiceConfig holds the engine configuration.
type ServiceConfig struct {
	// DirectConflictThreshold gates the registration-time screening of
	// mandatory requirement pairs.
	DirectConflictThreshold float64 `json:"direct_conflict_threshold"`
	// CompliantReviewDays and NonCompliantReviewDays set the next-review
	// horizon after an assessment.
	CompliantReviewDays    int `json:"compliant_review_days"`
	NonCompliantReviewDays int `json:"non_compliant_review_days"`
}

// DefaultServiceConfig returns the default engine configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DirectConflictThreshold: 0.8,
		CompliantReviewDays:     365,
		NonCompliantReviewDays:  90,
	}
}
