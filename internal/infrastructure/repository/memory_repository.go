package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// MemoryFrameworkRepository is an in-memory framework store used by tests and
// single-node deployments without PostgreSQL.
type MemoryFrameworkRepository struct {
	mu         sync.RWMutex
	frameworks map[uuid.UUID]*normative.Framework
}

func NewMemoryFrameworkRepository() *MemoryFrameworkRepository {
	return &MemoryFrameworkRepository{
		frameworks: make(map[uuid.UUID]*normative.Framework),
	}
}

func (r *MemoryFrameworkRepository) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	framework, ok := r.frameworks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return framework, nil
}

func (r *MemoryFrameworkRepository) GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*normative.Framework
	for _, f := range r.frameworks {
		if f.Status == normative.FrameworkStatusActive {
			active = append(active, f)
		}
	}
	sortByEffectiveDate(active)
	return active, nil
}

func (r *MemoryFrameworkRepository) ListFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*normative.Framework, 0, len(r.frameworks))
	for _, f := range r.frameworks {
		all = append(all, f)
	}
	sortByEffectiveDate(all)
	return all, nil
}

func (r *MemoryFrameworkRepository) SearchFrameworks(ctx context.Context, query string) ([]*normative.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	var matches []*normative.Framework
	for _, f := range r.frameworks {
		if frameworkMatches(f, needle) {
			matches = append(matches, f)
		}
	}
	sortByEffectiveDate(matches)
	return matches, nil
}

func (r *MemoryFrameworkRepository) StoreFramework(ctx context.Context, framework *normative.Framework) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.frameworks[framework.ID]; exists {
		return ErrDuplicateKey
	}
	r.frameworks[framework.ID] = framework
	return nil
}

func (r *MemoryFrameworkRepository) UpdateFramework(ctx context.Context, framework *normative.Framework) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.frameworks[framework.ID]; !exists {
		return ErrNotFound
	}
	r.frameworks[framework.ID] = framework
	return nil
}

func frameworkMatches(f *normative.Framework, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(f.Title), needle) ||
		strings.Contains(strings.ToLower(f.Description), needle) ||
		strings.Contains(strings.ToLower(f.Authority), needle) {
		return true
	}
	for _, tag := range f.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// sortByEffectiveDate gives list operations a stable order, with the id as a
// tie breaker.
func sortByEffectiveDate(frameworks []*normative.Framework) {
	sort.Slice(frameworks, func(i, j int) bool {
		if frameworks[i].EffectiveDate.Equal(frameworks[j].EffectiveDate) {
			return frameworks[i].ID.String() < frameworks[j].ID.String()
		}
		return frameworks[i].EffectiveDate.Before(frameworks[j].EffectiveDate)
	})
}
