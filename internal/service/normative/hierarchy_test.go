package normative

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

func TestGetFrameworkHierarchy(t *testing.T) {
	ctx := context.Background()

	t.Run("depth-first transitive closure", func(t *testing.T) {
		//   root -> a -> c
		//        -> b
		c := buildFramework("Leaf C", normative.JurisdictionFederal)
		a := buildFramework("Mid A", normative.JurisdictionFederal)
		a.Dependencies = []uuid.UUID{c.ID}
		b := buildFramework("Leaf B", normative.JurisdictionFederal)
		root := buildFramework("Root", normative.JurisdictionFederal)
		root.Dependencies = []uuid.UUID{a.ID, b.ID}

		repo := &mockRepository{}
		for _, f := range []*normative.Framework{root, a, b, c} {
			repo.On("GetFramework", ctx, f.ID).Return(f, nil).Once()
		}
		svc, _ := newTestService(t, repo, passValidator{})

		order, err := svc.GetFrameworkHierarchy(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, c.ID, b.ID}, order)
	})

	t.Run("memoized after first traversal", func(t *testing.T) {
		dep := buildFramework("Dep", normative.JurisdictionFederal)
		root := buildFramework("Root", normative.JurisdictionFederal)
		root.Dependencies = []uuid.UUID{dep.ID}

		repo := &mockRepository{}
		repo.On("GetFramework", ctx, root.ID).Return(root, nil).Once()
		repo.On("GetFramework", ctx, dep.ID).Return(dep, nil).Once()
		svc, _ := newTestService(t, repo, passValidator{})

		first, err := svc.GetFrameworkHierarchy(ctx, root.ID)
		require.NoError(t, err)
		second, err := svc.GetFrameworkHierarchy(ctx, root.ID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		repo.AssertExpectations(t)
	})

	t.Run("cyclic dependencies terminate", func(t *testing.T) {
		a := buildFramework("Cycle A", normative.JurisdictionFederal)
		b := buildFramework("Cycle B", normative.JurisdictionFederal)
		a.Dependencies = []uuid.UUID{b.ID}
		b.Dependencies = []uuid.UUID{a.ID}

		repo := &mockRepository{}
		repo.On("GetFramework", ctx, a.ID).Return(a, nil)
		repo.On("GetFramework", ctx, b.ID).Return(b, nil)
		svc, _ := newTestService(t, repo, passValidator{})

		order, err := svc.GetFrameworkHierarchy(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID}, order)
	})

	t.Run("shared dependency appears once", func(t *testing.T) {
		shared := buildFramework("Shared", normative.JurisdictionFederal)
		a := buildFramework("Branch A", normative.JurisdictionFederal)
		a.Dependencies = []uuid.UUID{shared.ID}
		b := buildFramework("Branch B", normative.JurisdictionFederal)
		b.Dependencies = []uuid.UUID{shared.ID}
		root := buildFramework("Root", normative.JurisdictionFederal)
		root.Dependencies = []uuid.UUID{a.ID, b.ID}

		repo := &mockRepository{}
		for _, f := range []*normative.Framework{root, a, b, shared} {
			repo.On("GetFramework", ctx, f.ID).Return(f, nil)
		}
		svc, _ := newTestService(t, repo, passValidator{})

		order, err := svc.GetFrameworkHierarchy(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, shared.ID, b.ID}, order)
	})

	t.Run("unresolvable dependency is skipped", func(t *testing.T) {
		missing := uuid.New()
		root := buildFramework("Root", normative.JurisdictionFederal)
		root.Dependencies = []uuid.UUID{missing}

		repo := &mockRepository{}
		repo.On("GetFramework", ctx, root.ID).Return(root, nil)
		repo.On("GetFramework", ctx, missing).Return(nil, normative.ErrNotFound)
		svc, _ := newTestService(t, repo, passValidator{})

		order, err := svc.GetFrameworkHierarchy(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{missing}, order)
	})

	t.Run("unknown root fails", func(t *testing.T) {
		id := uuid.New()
		repo := &mockRepository{}
		repo.On("GetFramework", ctx, id).Return(nil, normative.ErrNotFound)
		svc, _ := newTestService(t, repo, passValidator{})

		_, err := svc.GetFrameworkHierarchy(ctx, id)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})
}
