package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const externalIDConditionKey = "sts:ExternalId"

var accountInPrincipal = regexp.MustCompile(`^(?:arn:aws[a-z-]*:iam::)?(\d{12})(?::|$)`)

// IAMCrossAccountTrustRule flags role trust policies that let a principal
// from another account (or any account) assume the role without requiring
// sts:ExternalId.
type IAMCrossAccountTrustRule struct{}

func (r IAMCrossAccountTrustRule) ID() string { return "IAM_CROSS_ACCOUNT_TRUST_NO_EXTERNAL_ID" }
func (r IAMCrossAccountTrustRule) Name() string {
	return "Cross-Account Trust Without ExternalId"
}
func (r IAMCrossAccountTrustRule) FindingType() models.FindingType {
	return models.FindingCrossAccountNoExternalID
}

func (r IAMCrossAccountTrustRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Snapshot == nil {
		return nil
	}
	account := ctx.Snapshot.AccountID

	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalRole || p.TrustPolicy == nil {
			continue
		}
		var external []string
		for _, st := range p.TrustPolicy.Statement {
			if !st.IsAllow() || st.Principal == nil || st.HasConditionKey(externalIDConditionKey) {
				continue
			}
			if st.Principal.Wildcard {
				external = append(external, "*")
				continue
			}
			for _, v := range st.Principal.AWS() {
				if isExternalPrincipal(v, account) {
					external = append(external, v)
				}
			}
		}
		if len(external) == 0 {
			continue
		}
		desc := fmt.Sprintf("Role %s trusts external principal(s) %v without requiring sts:ExternalId.", p.Name, external)
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityHigh, p, "", desc, map[string]any{
			"trusted_principals": external,
		}))
	}
	return findings
}

// isExternalPrincipal reports whether an AWS principal value refers to an
// account other than own. "*" and wildcard-account ARNs count as external.
func isExternalPrincipal(v, own string) bool {
	if v == "*" || strings.Contains(v, ":iam::*") {
		return true
	}
	m := accountInPrincipal.FindStringSubmatch(v)
	if m == nil {
		return false
	}
	return m[1] != own
}
