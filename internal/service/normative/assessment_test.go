package normative

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

func assessableFramework() *normative.Framework {
	f := normative.NewFramework("Data Handling Standard", "Data Authority", normative.JurisdictionFederal, time.Now().Add(-time.Hour))
	f.Status = normative.FrameworkStatusActive
	f.Requirements = []normative.Requirement{
		{
			ID:        uuid.New(),
			Title:     "Consent recorded",
			Category:  "privacy",
			Mandatory: true,
			ValidationRules: []normative.ValidationRule{
				{
					RuleType:     normative.RuleTypePresence,
					Expression:   "consent_record",
					ErrorMessage: "consent record is missing",
				},
			},
		},
		{
			ID:        uuid.New(),
			Title:     "Retention window",
			Category:  "privacy",
			Mandatory: true,
			ValidationRules: []normative.ValidationRule{
				{
					RuleType:     normative.RuleTypeRange,
					Expression:   "retention_days 30 365",
					ErrorMessage: "retention days must be between 30 and 365",
				},
			},
		},
		{
			ID:        uuid.New(),
			Title:     "Policy version format",
			Category:  "documentation",
			Mandatory: false,
			ValidationRules: []normative.ValidationRule{
				{
					RuleType:     normative.RuleTypeFormat,
					Expression:   "policy_version ^v[0-9]+$",
					ErrorMessage: "policy version must look like v1",
				},
			},
		},
		{
			ID:        uuid.New(),
			Title:     "Advisory guideline",
			Category:  "documentation",
			Mandatory: false,
		},
	}
	return f
}

func assessmentService(t *testing.T, frameworks ...*normative.Framework) (Service, *recordingMetrics) {
	t.Helper()
	repo := &mockRepository{}
	for _, f := range frameworks {
		repo.On("GetFramework", context.Background(), f.ID).Return(f, nil)
	}
	return newTestService(t, repo, passValidator{})
}

func TestAssessCompliance(t *testing.T) {
	ctx := context.Background()

	t.Run("all evidence satisfied is compliant", func(t *testing.T) {
		f := assessableFramework()
		svc, metrics := assessmentService(t, f)

		assessment, err := svc.AssessCompliance(ctx, AssessmentRequest{
			EntityID:     "acme-corp",
			FrameworkIDs: []uuid.UUID{f.ID},
			Evidence: map[string]string{
				"consent_record": "signed 2026-01-15",
				"retention_days": "90",
				"policy_version": "v3",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, normative.StatusCompliant, assessment.OverallStatus)
		assert.Empty(t, assessment.Findings)
		assert.Empty(t, assessment.Recommendations)
		assert.Len(t, assessment.RequirementAssessments, 4)
		assert.Equal(t, 1, metrics.assessments)

		// Next review a year out for compliant entities.
		wantReview := assessment.AssessmentDate.AddDate(0, 0, 365)
		assert.Equal(t, wantReview, assessment.NextReviewDate)
	})

	t.Run("failed mandatory requirement is non-compliant", func(t *testing.T) {
		f := assessableFramework()
		svc, _ := assessmentService(t, f)

		assessment, err := svc.AssessCompliance(ctx, AssessmentRequest{
			EntityID:     "acme-corp",
			FrameworkIDs: []uuid.UUID{f.ID},
			Evidence: map[string]string{
				"retention_days": "90",
				"policy_version": "v3",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, normative.StatusNonCompliant, assessment.OverallStatus)
		require.Len(t, assessment.Findings, 1)
		assert.Contains(t, assessment.Findings[0].Description, "consent record is missing")
		assert.Equal(t, "low", assessment.Findings[0].RiskLevel)
		require.Len(t, assessment.Recommendations, 1)
		assert.Equal(t, "high", assessment.Recommendations[0].Priority)

		wantReview := assessment.AssessmentDate.AddDate(0, 0, 90)
		assert.Equal(t, wantReview, assessment.NextReviewDate)
	})

	t.Run("failed optional requirement stays compliant overall", func(t *testing.T) {
		f := assessableFramework()
		svc, _ := assessmentService(t, f)

		assessment, err := svc.AssessCompliance(ctx, AssessmentRequest{
			EntityID:     "acme-corp",
			FrameworkIDs: []uuid.UUID{f.ID},
			Evidence: map[string]string{
				"consent_record": "signed",
				"retention_days": "90",
				"policy_version": "3.0", // fails the format rule
			},
		})
		require.NoError(t, err)

		assert.Equal(t, normative.StatusCompliant, assessment.OverallStatus)
		// Optional failure still produces a finding.
		assert.Len(t, assessment.Findings, 1)
	})

	t.Run("requirement without rules is not applicable", func(t *testing.T) {
		f := assessableFramework()
		svc, _ := assessmentService(t, f)

		assessment, err := svc.AssessCompliance(ctx, AssessmentRequest{
			EntityID:     "acme-corp",
			FrameworkIDs: []uuid.UUID{f.ID},
			Evidence: map[string]string{
				"consent_record": "signed",
				"retention_days": "90",
				"policy_version": "v1",
			},
		})
		require.NoError(t, err)

		var advisory *normative.RequirementAssessment
		for i := range assessment.RequirementAssessments {
			if assessment.RequirementAssessments[i].Title == "Advisory guideline" {
				advisory = &assessment.RequirementAssessments[i]
			}
		}
		require.NotNil(t, advisory)
		assert.Equal(t, normative.StatusNotApplicable, advisory.Status)
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		f := assessableFramework()
		svc, _ := assessmentService(t, f)

		for _, days := range []string{"30", "365"} {
			assessment, err := svc.AssessCompliance(ctx, AssessmentRequest{
				EntityID:     "acme-corp",
				FrameworkIDs: []uuid.UUID{f.ID},
				Evidence: map[string]string{
					"consent_record": "signed",
					"retention_days": days,
				},
			})
			require.NoError(t, err)
			assert.Equal(t, normative.StatusCompliant, assessment.OverallStatus, "retention_days=%s", days)
		}
	})

	t.Run("non-active framework rejected", func(t *testing.T) {
		for _, status := range []normative.FrameworkStatus{
			normative.FrameworkStatusDraft,
			normative.FrameworkStatusSuperseded,
			normative.FrameworkStatusExpired,
		} {
			f := assessableFramework()
			f.Status = status
			svc, metrics := assessmentService(t, f)

			_, err := svc.AssessCompliance(ctx, AssessmentRequest{
				EntityID:     "acme-corp",
				FrameworkIDs: []uuid.UUID{f.ID},
			})
			require.Error(t, err, "status=%s", status)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Equal(t, 0, metrics.assessments)
		}
	})

	t.Run("empty entity id rejected", func(t *testing.T) {
		svc, _ := assessmentService(t)
		_, err := svc.AssessCompliance(ctx, AssessmentRequest{FrameworkIDs: []uuid.UUID{uuid.New()}})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("empty framework list rejected", func(t *testing.T) {
		svc, _ := assessmentService(t)
		_, err := svc.AssessCompliance(ctx, AssessmentRequest{EntityID: "acme-corp"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestEvaluateRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     normative.ValidationRule
		evidence map[string]string
		want     bool
	}{
		{
			name:     "presence satisfied",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypePresence, Expression: "field"},
			evidence: map[string]string{"field": "value"},
			want:     true,
		},
		{
			name:     "presence fails on empty value",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypePresence, Expression: "field"},
			evidence: map[string]string{"field": ""},
			want:     false,
		},
		{
			name:     "presence fails on missing field",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypePresence, Expression: "field"},
			evidence: map[string]string{},
			want:     false,
		},
		{
			name:     "format matches",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeFormat, Expression: "code ^[A-Z]{3}$"},
			evidence: map[string]string{"code": "ABC"},
			want:     true,
		},
		{
			name:     "format mismatch",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeFormat, Expression: "code ^[A-Z]{3}$"},
			evidence: map[string]string{"code": "abc"},
			want:     false,
		},
		{
			name:     "format with invalid pattern fails closed",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeFormat, Expression: "code ^[unclosed"},
			evidence: map[string]string{"code": "anything"},
			want:     false,
		},
		{
			name:     "range inside bounds",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeRange, Expression: "n 1 10"},
			evidence: map[string]string{"n": "5.5"},
			want:     true,
		},
		{
			name:     "range outside bounds",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeRange, Expression: "n 1 10"},
			evidence: map[string]string{"n": "11"},
			want:     false,
		},
		{
			name:     "range with non-numeric evidence fails closed",
			rule:     normative.ValidationRule{RuleType: normative.RuleTypeRange, Expression: "n 1 10"},
			evidence: map[string]string{"n": "many"},
			want:     false,
		},
		{
			name:     "unknown rule type fails closed",
			rule:     normative.ValidationRule{RuleType: "checksum", Expression: "field"},
			evidence: map[string]string{"field": "value"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluateRule(tt.rule, tt.evidence))
		})
	}
}

func TestRiskLevelForGaps(t *testing.T) {
	assert.Equal(t, "low", normative.RiskLevelForGaps(1))
	assert.Equal(t, "medium", normative.RiskLevelForGaps(2))
	assert.Equal(t, "high", normative.RiskLevelForGaps(3))
}
