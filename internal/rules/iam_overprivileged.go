package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// broadManagedPolicies are AWS managed policies granting administrative or
// near-administrative access.
var broadManagedPolicies = map[string]struct{}{
	"AdministratorAccess": {},
	"PowerUserAccess":     {},
	"IAMFullAccess":       {},
}

// IAMOverprivilegedRule flags principals with a broad administrative managed
// policy attached directly.
type IAMOverprivilegedRule struct{}

func (r IAMOverprivilegedRule) ID() string   { return "IAM_OVERPRIVILEGED_PRINCIPAL" }
func (r IAMOverprivilegedRule) Name() string { return "Administrative Policy Attached" }
func (r IAMOverprivilegedRule) FindingType() models.FindingType {
	return models.FindingOverprivilegedPrincipal
}

func (r IAMOverprivilegedRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range principals(ctx) {
		var matched []string
		for _, mp := range p.ManagedPolicies {
			if _, ok := broadManagedPolicies[mp.Name]; ok {
				matched = append(matched, mp.Name)
			}
		}
		if len(matched) == 0 {
			continue
		}
		desc := fmt.Sprintf("%s %s has administrative policy %s attached.", strings.ToLower(string(p.Kind)), p.Name, strings.Join(matched, ", "))
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityCritical, p, "", desc, map[string]any{
			"policies": matched,
		}))
	}
	return findings
}
