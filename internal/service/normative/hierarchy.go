package normative

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetFrameworkHierarchy returns the transitive dependency closure of a
// framework in depth-first order. The traversal carries a visited set, so a
// dependency graph containing a cycle still produces a finite result with
// each id appearing at most once. Results are memoized per id until the next
// write invalidates the hierarchy cache.
func (s *service) GetFrameworkHierarchy(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	if cached, ok := s.hierarchies[id]; ok {
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	root, err := s.GetFramework(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{id: true}
	order := make([]uuid.UUID, 0, len(root.Dependencies))
	s.walkDependencies(ctx, root.Dependencies, visited, &order)

	s.mu.Lock()
	s.hierarchies[id] = order
	s.mu.Unlock()

	return order, nil
}

func (s *service) walkDependencies(ctx context.Context, deps []uuid.UUID, visited map[uuid.UUID]bool, order *[]uuid.UUID) {
	for _, depID := range deps {
		if visited[depID] {
			continue
		}
		visited[depID] = true
		*order = append(*order, depID)

		dep, err := s.GetFramework(ctx, depID)
		if err != nil {
			// Unresolvable dependencies terminate that branch; registration
			// prevents them for frameworks registered through this engine.
			s.logger.Warn("hierarchy traversal skipped unresolvable dependency",
				zap.String("dependency_id", depID.String()), zap.Error(err))
			continue
		}
		s.walkDependencies(ctx, dep.Dependencies, visited, order)
	}
}
