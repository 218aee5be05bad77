package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// IAMUserNoMFARule flags IAM users that can sign in to the console (have a
// login profile) but have no MFA device. API-only users are not flagged.
type IAMUserNoMFARule struct{}

func (r IAMUserNoMFARule) ID() string                      { return "IAM_USER_NO_MFA" }
func (r IAMUserNoMFARule) Name() string                    { return "IAM User Without MFA" }
func (r IAMUserNoMFARule) FindingType() models.FindingType { return models.FindingMFANotEnabled }

func (r IAMUserNoMFARule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalUser || !p.HasLoginProfile || p.MFAEnabled {
			continue
		}
		desc := fmt.Sprintf("IAM user %s has console access without MFA enabled.", p.Name)
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityHigh, p, "", desc, nil))
	}
	return findings
}
