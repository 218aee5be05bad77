package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGUnnecessaryICMPRule flags inbound ICMP/ICMPv6 rules allowing every
// ICMP type (type -1).
type SGUnnecessaryICMPRule struct{}

func (r SGUnnecessaryICMPRule) ID() string                      { return "SG_UNNECESSARY_ICMP" }
func (r SGUnnecessaryICMPRule) Name() string                    { return "All ICMP Types Allowed" }
func (r SGUnnecessaryICMPRule) FindingType() models.FindingType { return models.FindingUnnecessaryICMP }

func (r SGUnnecessaryICMPRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			if !rule.IsICMP() || rule.FromPort != models.AllPorts {
				continue
			}
			desc := fmt.Sprintf("Security group %s allows all ICMP types from %v.", sg.GroupID, sourceValues(rule))
			findings = append(findings, newSGFinding(ctx, r, models.SeverityLow, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				"protocol": rule.Protocol,
				"sources":  sourceValues(rule),
			}))
		}
	}
	return findings
}
