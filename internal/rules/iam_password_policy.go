package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const minPasswordLength = 14

// IAMWeakPasswordPolicyRule flags an account password policy that is missing
// or does not require length ≥ 14, symbols, numbers, and mixed case.
type IAMWeakPasswordPolicyRule struct{}

func (r IAMWeakPasswordPolicyRule) ID() string   { return "IAM_WEAK_PASSWORD_POLICY" }
func (r IAMWeakPasswordPolicyRule) Name() string { return "Weak Account Password Policy" }
func (r IAMWeakPasswordPolicyRule) FindingType() models.FindingType {
	return models.FindingWeakPasswordPolicy
}

func (r IAMWeakPasswordPolicyRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Snapshot == nil {
		return nil
	}
	pp := ctx.Snapshot.PasswordPolicy
	if pp.Unavailable {
		return nil
	}

	var gaps []string
	if !pp.Present {
		gaps = append(gaps, "no password policy configured")
	} else {
		if pp.MinimumPasswordLength < minPasswordLength {
			gaps = append(gaps, fmt.Sprintf("minimum length %d is below %d", pp.MinimumPasswordLength, minPasswordLength))
		}
		if !pp.RequireSymbols {
			gaps = append(gaps, "symbols not required")
		}
		if !pp.RequireNumbers {
			gaps = append(gaps, "numbers not required")
		}
		if !pp.RequireUppercaseCharacters || !pp.RequireLowercaseCharacters {
			gaps = append(gaps, "mixed case not required")
		}
	}
	if len(gaps) == 0 {
		return nil
	}
	desc := "Account password policy is weak: " + strings.Join(gaps, "; ") + "."
	return []models.Finding{newAccountFinding(ctx, r, models.SeverityMedium, desc, map[string]any{
		"gaps":                    gaps,
		"minimum_password_length": pp.MinimumPasswordLength,
	})}
}
