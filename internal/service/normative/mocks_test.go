package normative

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	args := m.Called(ctx, id)
	if f := args.Get(0); f != nil {
		return f.(*normative.Framework), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	args := m.Called(ctx)
	if f := args.Get(0); f != nil {
		return f.([]*normative.Framework), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	args := m.Called(ctx)
	if f := args.Get(0); f != nil {
		return f.([]*normative.Framework), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) SearchFrameworks(ctx context.Context, query string) ([]*normative.Framework, error) {
	args := m.Called(ctx, query)
	if f := args.Get(0); f != nil {
		return f.([]*normative.Framework), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) StoreFramework(ctx context.Context, framework *normative.Framework) error {
	args := m.Called(ctx, framework)
	return args.Error(0)
}

func (m *mockRepository) UpdateFramework(ctx context.Context, framework *normative.Framework) error {
	args := m.Called(ctx, framework)
	return args.Error(0)
}

// passValidator accepts every framework.
type passValidator struct{}

func (passValidator) ValidateFramework(ctx context.Context, framework *normative.Framework) []string {
	return nil
}

// failValidator rejects every framework with the given messages.
type failValidator struct {
	messages []string
}

func (v failValidator) ValidateFramework(ctx context.Context, framework *normative.Framework) []string {
	return v.messages
}

// recordingMetrics counts collector invocations.
type recordingMetrics struct {
	registrations int
	scans         int
	assessments   int
}

func (m *recordingMetrics) RecordRegistration(ctx context.Context) { m.registrations++ }

func (m *recordingMetrics) RecordConflictScan(ctx context.Context, conflicts int, elapsed time.Duration) {
	m.scans++
}

func (m *recordingMetrics) RecordAssessment(ctx context.Context, status normative.ComplianceStatus, elapsed time.Duration) {
	m.assessments++
}
