package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGManagementPortExposureRule flags inbound rules exposing a remote
// administration port (SSH, RDP, WinRM, VNC) to 0.0.0.0/0. It may fire on
// the same rule as SGUnrestrictedInboundRule.
type SGManagementPortExposureRule struct{}

func (r SGManagementPortExposureRule) ID() string   { return "SG_MANAGEMENT_PORT_EXPOSURE" }
func (r SGManagementPortExposureRule) Name() string { return "Management Port Exposed To The Internet" }
func (r SGManagementPortExposureRule) FindingType() models.FindingType {
	return models.FindingManagementPortExposure
}

func (r SGManagementPortExposureRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			if !rule.HasSource(models.SourceIPv4, models.AnyIPv4) {
				continue
			}
			ports := portsInRule(rule, managementPorts)
			if len(ports) == 0 {
				continue
			}
			desc := fmt.Sprintf("Security group %s exposes management port(s) %v to 0.0.0.0/0.", sg.GroupID, ports)
			findings = append(findings, newSGFinding(ctx, r, models.SeverityCritical, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				models.DetailExposedPorts: ports,
				"port_range":              portRange(rule),
			}))
		}
	}
	return findings
}
