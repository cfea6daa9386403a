package validation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// FrameworkValidator performs structural validation of frameworks before
// registration. It checks field constraints and the well-formedness of
// requirement rule expressions; temporal and state invariants stay with the
// domain's own Validate.
type FrameworkValidator struct {
	validate *validator.Validate
}

func NewFrameworkValidator() *FrameworkValidator {
	v := validator.New()
	v.RegisterValidation("rule_type", validateRuleType)
	return &FrameworkValidator{validate: v}
}

// ValidateFramework returns human-readable validation messages; an empty
// slice means valid.
func (fv *FrameworkValidator) ValidateFramework(ctx context.Context, framework *normative.Framework) []string {
	var messages []string

	if framework == nil {
		return []string{"framework cannot be nil"}
	}

	if err := fv.validate.VarCtx(ctx, framework.Title, "required,max=512"); err != nil {
		messages = append(messages, "title is required and must be at most 512 characters")
	}
	if err := fv.validate.VarCtx(ctx, framework.Authority, "required,max=256"); err != nil {
		messages = append(messages, "authority is required and must be at most 256 characters")
	}

	for i, req := range framework.Requirements {
		if err := fv.validate.VarCtx(ctx, req.Title, "required"); err != nil {
			messages = append(messages, fmt.Sprintf("requirement %d: title is required", i))
		}
		if err := fv.validate.VarCtx(ctx, req.Category, "required"); err != nil {
			messages = append(messages, fmt.Sprintf("requirement %d: category is required", i))
		}

		for j, cond := range req.Conditions {
			if strings.TrimSpace(cond.Expression) == "" {
				messages = append(messages, fmt.Sprintf("requirement %d: condition %d has an empty expression", i, j))
			}
		}

		for j, rule := range req.ValidationRules {
			if err := fv.validate.VarCtx(ctx, string(rule.RuleType), "rule_type"); err != nil {
				messages = append(messages, fmt.Sprintf("requirement %d: rule %d has unknown type %q", i, j, rule.RuleType))
				continue
			}
			if msg := checkRuleExpression(rule); msg != "" {
				messages = append(messages, fmt.Sprintf("requirement %d: rule %d: %s", i, j, msg))
			}
		}
	}

	return messages
}

func validateRuleType(fl validator.FieldLevel) bool {
	switch normative.RuleType(fl.Field().String()) {
	case normative.RuleTypePresence, normative.RuleTypeFormat, normative.RuleTypeRange:
		return true
	default:
		return false
	}
}

// checkRuleExpression verifies the expression has the arity its rule type
// demands and that format patterns compile and range bounds parse.
func checkRuleExpression(rule normative.ValidationRule) string {
	tokens := strings.Fields(rule.Expression)
	if len(tokens) == 0 {
		return "expression cannot be empty"
	}

	switch rule.RuleType {
	case normative.RuleTypePresence:
		// field name only

	case normative.RuleTypeFormat:
		if len(tokens) < 2 {
			return "format expression needs a field and a pattern"
		}
		if _, err := regexp.Compile(strings.Join(tokens[1:], " ")); err != nil {
			return fmt.Sprintf("format pattern does not compile: %v", err)
		}

	case normative.RuleTypeRange:
		if len(tokens) != 3 {
			return "range expression needs a field, a minimum, and a maximum"
		}
		min, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil {
			return fmt.Sprintf("range minimum %q is not numeric", tokens[1])
		}
		max, err := strconv.ParseFloat(tokens[2], 64)
		if err != nil {
			return fmt.Sprintf("range maximum %q is not numeric", tokens[2])
		}
		if min > max {
			return "range minimum exceeds maximum"
		}
	}

	return ""
}
