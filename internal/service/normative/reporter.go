package normative

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// GenerateComplianceReport renders the assessment as a deterministic
// plain-text report. Sections appear in a fixed order and rows follow the
// order of the assessment's slices, so the same assessment always yields the
// same text.
func (s *service) GenerateComplianceReport(assessment *normative.Assessment) string {
	var b strings.Builder

	b.WriteString("COMPLIANCE ASSESSMENT REPORT\n")
	b.WriteString("============================\n\n")

	fmt.Fprintf(&b, "Entity:         %s\n", assessment.EntityID)
	fmt.Fprintf(&b, "Assessed:       %s\n", assessment.AssessmentDate.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Frameworks:     %d\n", len(assessment.FrameworkIDs))
	fmt.Fprintf(&b, "Overall Status: %s\n", strings.ToUpper(assessment.OverallStatus.String()))
	fmt.Fprintf(&b, "Next Review:    %s\n", assessment.NextReviewDate.UTC().Format("2006-01-02"))

	b.WriteString("\nRequirements\n------------\n")
	if len(assessment.RequirementAssessments) == 0 {
		b.WriteString("(none assessed)\n")
	}
	for _, ra := range assessment.RequirementAssessments {
		fmt.Fprintf(&b, "[%s] %s (risk: %s)\n",
			strings.ToUpper(ra.Status.String()), ra.Title, ra.RiskLevel)
		for _, gap := range ra.Gaps {
			fmt.Fprintf(&b, "  - %s\n", gap)
		}
	}

	if len(assessment.Findings) > 0 {
		b.WriteString("\nFindings\n--------\n")
		for i, f := range assessment.Findings {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(f.RiskLevel), f.Description)
		}
	}

	if len(assessment.Recommendations) > 0 {
		b.WriteString("\nRecommendations\n---------------\n")
		for i, r := range assessment.Recommendations {
			fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, r.Priority, r.Description)
		}
	}

	return b.String()
}
