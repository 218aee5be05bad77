package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGIPv6ExposureRule flags inbound rules open to ::/0, independently of any
// IPv4 exposure. Severity follows SGUnrestrictedInboundRule.
type SGIPv6ExposureRule struct{}

func (r SGIPv6ExposureRule) ID() string                      { return "SG_IPV6_EXPOSURE" }
func (r SGIPv6ExposureRule) Name() string                    { return "Security Group Open To IPv6 Internet" }
func (r SGIPv6ExposureRule) FindingType() models.FindingType { return models.FindingIPv6Exposure }

func (r SGIPv6ExposureRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			if !rule.HasSource(models.SourceIPv6, models.AnyIPv6) {
				continue
			}
			ports, sensitive := exposedPorts(rule)
			sev := models.SeverityHigh
			if sensitive {
				sev = models.SeverityCritical
			}
			desc := fmt.Sprintf("Security group %s allows inbound %s traffic on ports %s from ::/0.",
				sg.GroupID, protocolLabel(rule), portRange(rule))
			findings = append(findings, newSGFinding(ctx, r, sev, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				models.DetailExposedPorts: ports,
				"port_range":              portRange(rule),
			}))
		}
	}
	return findings
}
