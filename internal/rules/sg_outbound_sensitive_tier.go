package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
)

// tierTagKey is the tag naming a security group's application tier.
const tierTagKey = "Tier"

// SGOutboundSensitiveTierRule flags outbound all-traffic rules to the
// internet on security groups whose Tier tag names a sensitive tier.
type SGOutboundSensitiveTierRule struct{}

func (r SGOutboundSensitiveTierRule) ID() string { return "SG_UNRESTRICTED_OUTBOUND_SENSITIVE_TIER" }
func (r SGOutboundSensitiveTierRule) Name() string {
	return "Unrestricted Egress From Sensitive Tier"
}
func (r SGOutboundSensitiveTierRule) FindingType() models.FindingType {
	return models.FindingUnrestrictedOutboundTier
}

func (r SGOutboundSensitiveTierRule) Evaluate(ctx RuleContext) []models.Finding {
	tiers := policy.SensitiveTiers(ctx.Policy)

	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		tier := strings.ToLower(strings.TrimSpace(sg.Tags[tierTagKey]))
		if _, ok := tiers[tier]; !ok || tier == "" {
			continue
		}
		for i, rule := range sg.Outbound {
			if rule.Protocol != models.ProtocolAll || !rule.HasOpenSource() {
				continue
			}
			desc := fmt.Sprintf("Security group %s in sensitive tier %q allows all outbound traffic to the internet.", sg.GroupID, sg.Tags[tierTagKey])
			findings = append(findings, newSGFinding(ctx, r, models.SeverityHigh, sg, fmt.Sprintf("out%d", i), desc, map[string]any{
				"tier":         sg.Tags[tierTagKey],
				"destinations": sourceValues(rule),
			}))
		}
	}
	return findings
}
