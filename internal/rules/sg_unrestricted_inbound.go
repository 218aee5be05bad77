package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGUnrestrictedInboundRule flags inbound rules open to 0.0.0.0/0 or ::/0.
// Rules exposing a management or high-risk port are CRITICAL; any other
// open rule is HIGH.
type SGUnrestrictedInboundRule struct{}

func (r SGUnrestrictedInboundRule) ID() string   { return "SG_UNRESTRICTED_INBOUND" }
func (r SGUnrestrictedInboundRule) Name() string { return "Security Group Open To The Internet" }
func (r SGUnrestrictedInboundRule) FindingType() models.FindingType {
	return models.FindingUnrestrictedInbound
}

// Evaluate returns one finding per open inbound rule.
func (r SGUnrestrictedInboundRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			if !rule.HasOpenSource() {
				continue
			}
			ports, sensitive := exposedPorts(rule)
			sev := models.SeverityHigh
			if sensitive {
				sev = models.SeverityCritical
			}
			desc := fmt.Sprintf("Security group %s allows inbound %s traffic on ports %s from the internet.",
				sg.GroupID, protocolLabel(rule), portRange(rule))
			findings = append(findings, newSGFinding(ctx, r, sev, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				models.DetailExposedPorts: ports,
				"protocol":                rule.Protocol,
				"port_range":              portRange(rule),
				"sources":                 sourceValues(rule),
			}))
		}
	}
	return findings
}

func protocolLabel(rule models.SecurityGroupRule) string {
	if rule.Protocol == models.ProtocolAll {
		return "all-protocol"
	}
	return rule.Protocol
}
