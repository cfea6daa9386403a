package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

func newTestFramework(title string, jurisdiction normative.Jurisdiction, effective time.Time) *normative.Framework {
	f := normative.NewFramework(title, "Test Authority", jurisdiction, effective)
	f.Description = "test framework"
	return f
}

func TestMemoryFrameworkRepository_StoreAndGet(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	f := newTestFramework("Privacy Baseline", normative.JurisdictionFederal, time.Now())
	require.NoError(t, repo.StoreFramework(ctx, f))

	got, err := repo.GetFramework(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	_, err = repo.GetFramework(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFrameworkRepository_DuplicateStore(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	f := newTestFramework("Privacy Baseline", normative.JurisdictionFederal, time.Now())
	require.NoError(t, repo.StoreFramework(ctx, f))
	assert.ErrorIs(t, repo.StoreFramework(ctx, f), ErrDuplicateKey)
}

func TestMemoryFrameworkRepository_GetActiveFrameworks(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	active := newTestFramework("Active", normative.JurisdictionFederal, time.Now().Add(-time.Hour))
	require.NoError(t, active.Activate())
	draft := newTestFramework("Draft", normative.JurisdictionFederal, time.Now())

	require.NoError(t, repo.StoreFramework(ctx, active))
	require.NoError(t, repo.StoreFramework(ctx, draft))

	got, err := repo.GetActiveFrameworks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestMemoryFrameworkRepository_Search(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	gdpr := newTestFramework("General Data Protection Regulation", normative.JurisdictionRegional, time.Now())
	gdpr.Tags = []string{"privacy", "data"}
	sox := newTestFramework("Sarbanes-Oxley", normative.JurisdictionFederal, time.Now())
	sox.Tags = []string{"financial"}

	require.NoError(t, repo.StoreFramework(ctx, gdpr))
	require.NoError(t, repo.StoreFramework(ctx, sox))

	t.Run("matches title", func(t *testing.T) {
		got, err := repo.SearchFrameworks(ctx, "data protection")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, gdpr.ID, got[0].ID)
	})

	t.Run("matches tag", func(t *testing.T) {
		got, err := repo.SearchFrameworks(ctx, "financial")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, sox.ID, got[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := repo.SearchFrameworks(ctx, "aviation")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryFrameworkRepository_ListOrder(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	later := newTestFramework("Later", normative.JurisdictionState, time.Now().Add(time.Hour))
	earlier := newTestFramework("Earlier", normative.JurisdictionState, time.Now().Add(-time.Hour))

	require.NoError(t, repo.StoreFramework(ctx, later))
	require.NoError(t, repo.StoreFramework(ctx, earlier))

	got, err := repo.ListFrameworks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestMemoryFrameworkRepository_Update(t *testing.T) {
	repo := NewMemoryFrameworkRepository()
	ctx := context.Background()

	f := newTestFramework("Original", normative.JurisdictionFederal, time.Now())
	require.NoError(t, repo.StoreFramework(ctx, f))

	f.Title = "Renamed"
	require.NoError(t, repo.UpdateFramework(ctx, f))

	got, err := repo.GetFramework(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	missing := newTestFramework("Missing", normative.JurisdictionFederal, time.Now())
	assert.ErrorIs(t, repo.UpdateFramework(ctx, missing), ErrNotFound)
}
