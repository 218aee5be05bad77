package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGMissingDescriptionsRule reports inbound rules without a description.
// One finding per security group carries the count. Outbound rules are not
// counted: the default egress rule AWS creates has no description.
type SGMissingDescriptionsRule struct{}

func (r SGMissingDescriptionsRule) ID() string   { return "SG_MISSING_DESCRIPTIONS" }
func (r SGMissingDescriptionsRule) Name() string { return "Security Group Rules Without Descriptions" }
func (r SGMissingDescriptionsRule) FindingType() models.FindingType {
	return models.FindingMissingDescriptions
}

func (r SGMissingDescriptionsRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		n := 0
		for _, rule := range sg.Inbound {
			if rule.Description == "" {
				n++
			}
		}
		if n == 0 {
			continue
		}
		desc := fmt.Sprintf("%d rules lack descriptions in security group %s.", n, sg.GroupID)
		findings = append(findings, newSGFinding(ctx, r, models.SeverityLow, sg, "", desc, map[string]any{
			"rules_without_description": n,
		}))
	}
	return findings
}
