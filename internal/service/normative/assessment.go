package normative

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// AssessCompliance evaluates the entity's evidence against every requirement
// of every named framework. A requirement is compliant iff all of its
// validation rules pass; the overall status is compliant iff every mandatory
// requirement assessment is compliant or not applicable.
func (s *service) AssessCompliance(ctx context.Context, req AssessmentRequest) (*normative.Assessment, error) {
	start := time.Now()

	if req.EntityID == "" {
		return nil, errors.NewValidationError("entity_id", "entity id cannot be empty")
	}
	if len(req.FrameworkIDs) == 0 {
		return nil, errors.NewValidationError("framework_ids", "at least one framework id is required")
	}

	s.logger.Info("assessing compliance",
		zap.String("entity_id", req.EntityID),
		zap.Int("frameworks", len(req.FrameworkIDs)),
	)

	assessment := normative.NewAssessment(req.EntityID, req.FrameworkIDs)

	mandatoryOK := true
	for _, frameworkID := range req.FrameworkIDs {
		framework, err := s.GetFramework(ctx, frameworkID)
		if err != nil {
			return nil, err
		}
		// Superseded and expired frameworks stay retrievable but no longer
		// bind; only active frameworks participate in assessment.
		if framework.Status != normative.FrameworkStatusActive {
			return nil, errors.NewValidationError("framework_ids",
				fmt.Sprintf("framework %s is %s and cannot be assessed", framework.ID, framework.Status))
		}

		for i := range framework.Requirements {
			r := &framework.Requirements[i]
			ra := s.assessRequirement(r, req.Evidence)

			if r.Mandatory && ra.Status != normative.StatusCompliant && ra.Status != normative.StatusNotApplicable {
				mandatoryOK = false
			}
			if ra.Status == normative.StatusNonCompliant && len(ra.Gaps) > 0 {
				assessment.Findings = append(assessment.Findings, normative.Finding{
					ID:            uuid.New(),
					RequirementID: r.ID,
					Description:   fmt.Sprintf("requirement %q is non-compliant: %s", r.Title, strings.Join(ra.Gaps, "; ")),
					RiskLevel:     ra.RiskLevel,
				})
			}

			assessment.RequirementAssessments = append(assessment.RequirementAssessments, ra)
		}
	}

	reviewDays := s.config.CompliantReviewDays
	if mandatoryOK {
		assessment.OverallStatus = normative.StatusCompliant
	} else {
		assessment.OverallStatus = normative.StatusNonCompliant
		reviewDays = s.config.NonCompliantReviewDays
		assessment.Recommendations = append(assessment.Recommendations, normative.Recommendation{
			ID: uuid.New(),
			Description: fmt.Sprintf("remediate the %d finding(s) and resubmit evidence for reassessment",
				len(assessment.Findings)),
			Priority: "high",
		})
	}
	assessment.NextReviewDate = assessment.AssessmentDate.AddDate(0, 0, reviewDays)

	if s.metrics != nil {
		s.metrics.RecordAssessment(ctx, assessment.OverallStatus, time.Since(start))
	}

	s.logger.Info("compliance assessment completed",
		zap.String("entity_id", req.EntityID),
		zap.String("status", assessment.OverallStatus.String()),
		zap.Int("findings", len(assessment.Findings)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return assessment, nil
}

// assessRequirement evaluates one requirement's validation rules against the
// evidence. Requirements without rules are not applicable.
func (s *service) assessRequirement(r *normative.Requirement, evidence map[string]string) normative.RequirementAssessment {
	ra := normative.RequirementAssessment{
		RequirementID: r.ID,
		Title:         r.Title,
		Mandatory:     r.Mandatory,
		RiskLevel:     "low",
	}

	if len(r.ValidationRules) == 0 {
		ra.Status = normative.StatusNotApplicable
		return ra
	}

	ra.Evidence = make(map[string]string)
	for _, rule := range r.ValidationRules {
		field := ruleField(rule.Expression)
		if v, ok := evidence[field]; ok {
			ra.Evidence[field] = v
		}

		if evaluateRule(rule, evidence) {
			continue
		}
		msg := rule.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("%s check failed for %q", rule.RuleType, field)
		}
		ra.Gaps = append(ra.Gaps, msg)
	}

	if len(ra.Gaps) == 0 {
		ra.Status = normative.StatusCompliant
		return ra
	}
	ra.Status = normative.StatusNonCompliant
	ra.RiskLevel = normative.RiskLevelForGaps(len(ra.Gaps))
	return ra
}

// evaluateRule evaluates one validation rule against the evidence.
// Recognized rule types are presence, format, and range; anything else
// evaluates to not satisfied.
//
// Expression grammar, whitespace-delimited:
//
//	presence: <field>
//	format:   <field> <regexp>
//	range:    <field> <min> <max>
func evaluateRule(rule normative.ValidationRule, evidence map[string]string) bool {
	tokens := strings.Fields(rule.Expression)
	if len(tokens) == 0 {
		return false
	}
	value, present := evidence[tokens[0]]

	switch rule.RuleType {
	case normative.RuleTypePresence:
		return present && value != ""

	case normative.RuleTypeFormat:
		if !present || len(tokens) < 2 {
			return false
		}
		pattern, err := regexp.Compile(strings.Join(tokens[1:], " "))
		if err != nil {
			return false
		}
		return pattern.MatchString(value)

	case normative.RuleTypeRange:
		if !present || len(tokens) < 3 {
			return false
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		min, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil {
			return false
		}
		max, err := strconv.ParseFloat(tokens[2], 64)
		if err != nil {
			return false
		}
		return v >= min && v <= max

	default:
		return false
	}
}

func ruleField(expression string) string {
	tokens := strings.Fields(expression)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
