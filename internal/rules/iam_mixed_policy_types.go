package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// IAMMixedPolicyTypesRule flags roles carrying both inline and managed
// policies, which makes effective permissions harder to review.
type IAMMixedPolicyTypesRule struct{}

func (r IAMMixedPolicyTypesRule) ID() string   { return "IAM_MIXED_POLICY_TYPES" }
func (r IAMMixedPolicyTypesRule) Name() string { return "Role With Inline And Managed Policies" }
func (r IAMMixedPolicyTypesRule) FindingType() models.FindingType {
	return models.FindingMixedPolicyTypes
}

func (r IAMMixedPolicyTypesRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalRole || len(p.InlinePolicies) == 0 || len(p.ManagedPolicies) == 0 {
			continue
		}
		desc := fmt.Sprintf("Role %s has %d inline and %d managed policies.", p.Name, len(p.InlinePolicies), len(p.ManagedPolicies))
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityLow, p, "", desc, map[string]any{
			"inline_policies":  len(p.InlinePolicies),
			"managed_policies": len(p.ManagedPolicies),
		}))
	}
	return findings
}
