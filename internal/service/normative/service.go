package normative

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
	"github.com/davidleathers/normative-engine/internal/service/conflict"
)

// service implements the Service interface. It is the single logical owner of
// the in-memory framework cache and the derived hierarchy cache; registrations
// are serialized against each other and against cache invalidation, while
// read-only operations share a read lock.
type service struct {
	logger    *zap.Logger
	repo      normative.Repository
	validator normative.Validator
	detector  *conflict.Detector
	cache     FrameworkCache
	metrics   MetricsCollector
	config    ServiceConfig

	mu          sync.RWMutex
	frameworks  map[uuid.UUID]*normative.Framework
	hierarchies map[uuid.UUID][]uuid.UUID
}

// NewService creates a new normative engine. The cache and metrics
// collaborators are optional.
func NewService(
	logger *zap.Logger,
	repo normative.Repository,
	validator normative.Validator,
	detector *conflict.Detector,
	cache FrameworkCache,
	metrics MetricsCollector,
	config ServiceConfig,
) Service {
	if config.DirectConflictThreshold <= 0 {
		config.DirectConflictThreshold = DefaultServiceConfig().DirectConflictThreshold
	}
	if config.CompliantReviewDays <= 0 {
		config.CompliantReviewDays = DefaultServiceConfig().CompliantReviewDays
	}
	if config.NonCompliantReviewDays <= 0 {
		config.NonCompliantReviewDays = DefaultServiceConfig().NonCompliantReviewDays
	}

	return &service{
		logger:      logger,
		repo:        repo,
		validator:   validator,
		detector:    detector,
		cache:       cache,
		metrics:     metrics,
		config:      config,
		frameworks:  make(map[uuid.UUID]*normative.Framework),
		hierarchies: make(map[uuid.UUID][]uuid.UUID),
	}
}

// RegisterFramework validates, screens, persists, and caches a framework.
// Validation and conflict screening happen strictly before persistence, so a
// failed registration leaves no partial write.
func (s *service) RegisterFramework(ctx context.Context, framework *normative.Framework) (uuid.UUID, error) {
	if framework == nil {
		return uuid.Nil, errors.NewValidationError("framework", "framework cannot be nil")
	}

	s.logger.Info("registering framework",
		zap.String("framework_id", framework.ID.String()),
		zap.String("title", framework.Title),
		zap.String("jurisdiction", framework.Jurisdiction.String()),
	)

	if msgs := s.validator.ValidateFramework(ctx, framework); len(msgs) > 0 {
		return uuid.Nil, errors.NewValidationError("framework", strings.Join(msgs, "; "))
	}
	if err := framework.Validate(); err != nil {
		return uuid.Nil, errors.NewValidationError("framework", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.activeFrameworksLocked(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for _, existing := range active {
		if existing.ID == framework.ID {
			return uuid.Nil, errors.NewConflictError(
				fmt.Sprintf("framework %s is already registered", framework.ID))
		}
		if s.directlyConflicts(framework, existing) {
			return uuid.Nil, errors.NewConflictError(
				fmt.Sprintf("framework %q directly conflicts with active framework %q",
					framework.Title, existing.Title))
		}
	}

	for _, depID := range framework.Dependencies {
		dep, err := s.lookupLocked(ctx, depID)
		if err != nil {
			return uuid.Nil, err
		}
		if dep.Status != normative.FrameworkStatusActive {
			return uuid.Nil, errors.NewValidationError("dependencies",
				fmt.Sprintf("dependency %q is not active", dep.Title))
		}
	}

	if framework.Status != normative.FrameworkStatusActive {
		if err := framework.Activate(); err != nil {
			return uuid.Nil, errors.NewValidationError("framework", err.Error())
		}
	}

	if err := s.repo.StoreFramework(ctx, framework); err != nil {
		return uuid.Nil, errors.NewInternalError("failed to persist framework").WithCause(err)
	}

	s.frameworks[framework.ID] = framework
	// Any write invalidates the whole hierarchy cache.
	s.hierarchies = make(map[uuid.UUID][]uuid.UUID)

	if s.cache != nil {
		if err := s.cache.SetFramework(ctx, framework); err != nil {
			s.logger.Warn("failed to populate framework cache",
				zap.String("framework_id", framework.ID.String()),
				zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordRegistration(ctx)
	}

	s.logger.Info("framework registered",
		zap.String("framework_id", framework.ID.String()),
		zap.Int("requirements", len(framework.Requirements)),
	)

	return framework.ID, nil
}

// directlyConflicts implements the registration-time screen: same
// jurisdiction plus any requirement pair in the same category with similar
// descriptions and differing mandatory flags, where at least one side is
// mandatory.
func (s *service) directlyConflicts(a, b *normative.Framework) bool {
	if a.Jurisdiction != b.Jurisdiction {
		return false
	}
	for i := range a.Requirements {
		ra := &a.Requirements[i]
		for j := range b.Requirements {
			rb := &b.Requirements[j]
			if ra.Category != rb.Category {
				continue
			}
			if ra.Mandatory == rb.Mandatory {
				continue
			}
			if conflict.TextSimilarity(ra.Description, rb.Description) > s.config.DirectConflictThreshold {
				return true
			}
		}
	}
	return false
}

// GetFramework reads through the in-memory cache, then the second-level
// cache, then the repository.
func (s *service) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	s.mu.RLock()
	if f, ok := s.frameworks[id]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	if s.cache != nil {
		f, err := s.cache.GetFramework(ctx, id)
		if err != nil {
			s.logger.Warn("framework cache read failed",
				zap.String("framework_id", id.String()), zap.Error(err))
		} else if f != nil {
			s.storeInMemory(f)
			return f, nil
		}
	}

	f, err := s.repo.GetFramework(ctx, id)
	if err != nil {
		if stderrors.Is(err, normative.ErrNotFound) {
			return nil, errors.NewFrameworkNotFoundError(id.String())
		}
		return nil, errors.NewInternalError("failed to load framework").WithCause(err)
	}
	s.storeInMemory(f)
	if s.cache != nil {
		if err := s.cache.SetFramework(ctx, f); err != nil {
			s.logger.Warn("framework cache write failed",
				zap.String("framework_id", id.String()), zap.Error(err))
		}
	}
	return f, nil
}

// GetActiveFrameworks returns all active frameworks, refreshing the in-memory
// cache from the repository.
func (s *service) GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFrameworksLocked(ctx)
}

// SearchFrameworks delegates to the repository's search.
func (s *service) SearchFrameworks(ctx context.Context, query string) ([]*normative.Framework, error) {
	return s.repo.SearchFrameworks(ctx, query)
}

// DetectConflicts runs the detector over the given frameworks.
func (s *service) DetectConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Conflict, error) {
	start := time.Now()
	conflicts, err := s.detector.DetectAllConflicts(ctx, frameworks)
	if err != nil {
		return nil, errors.NewValidationError("frameworks", err.Error())
	}
	if s.metrics != nil {
		s.metrics.RecordConflictScan(ctx, len(conflicts), time.Since(start))
	}
	return conflicts, nil
}

// ResolveFrameworkConflicts fails with a conflict error when any conflicts
// exist among the given frameworks; callers must resolve before proceeding.
func (s *service) ResolveFrameworkConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Framework, error) {
	conflicts, err := s.DetectConflicts(ctx, frameworks)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		descriptions := make([]string, 0, len(conflicts))
		for _, c := range conflicts {
			descriptions = append(descriptions, c.Description)
		}
		return nil, errors.NewConflictError(
			fmt.Sprintf("%d unresolved conflicts among %d frameworks", len(conflicts), len(frameworks)),
		).WithDetails(map[string]interface{}{"conflicts": descriptions})
	}
	return frameworks, nil
}

// activeFrameworksLocked merges repository actives into the in-memory cache
// and returns every cached framework currently in the active state. Callers
// must hold the write lock.
func (s *service) activeFrameworksLocked(ctx context.Context) ([]*normative.Framework, error) {
	stored, err := s.repo.GetActiveFrameworks(ctx)
	if err != nil {
		return nil, errors.NewInternalError("failed to load active frameworks").WithCause(err)
	}
	for _, f := range stored {
		if _, ok := s.frameworks[f.ID]; !ok {
			s.frameworks[f.ID] = f
		}
	}

	var active []*normative.Framework
	for _, f := range s.frameworks {
		if f.Status == normative.FrameworkStatusActive {
			active = append(active, f)
		}
	}
	return active, nil
}

// lookupLocked resolves a framework by id from the in-memory cache or the
// repository. Callers must hold the write lock.
func (s *service) lookupLocked(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	if f, ok := s.frameworks[id]; ok {
		return f, nil
	}
	f, err := s.repo.GetFramework(ctx, id)
	if err != nil {
		if stderrors.Is(err, normative.ErrNotFound) {
			return nil, errors.NewFrameworkNotFoundError(id.String())
		}
		return nil, errors.NewInternalError("failed to load framework").WithCause(err)
	}
	s.frameworks[f.ID] = f
	return f, nil
}

func (s *service) storeInMemory(f *normative.Framework) {
	s.mu.Lock()
	s.frameworks[f.ID] = f
	s.mu.Unlock()
}
