package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SGDeprecatedProtocolsRule flags inbound rules that open a port used by a
// cleartext or legacy protocol (FTP, Telnet, TFTP, POP3, IMAP, SNMP, r-services),
// whatever the source. All-port rules are reported by SGAllTrafficRule instead.
type SGDeprecatedProtocolsRule struct{}

func (r SGDeprecatedProtocolsRule) ID() string   { return "SG_DEPRECATED_PROTOCOLS" }
func (r SGDeprecatedProtocolsRule) Name() string { return "Deprecated Protocol Allowed" }
func (r SGDeprecatedProtocolsRule) FindingType() models.FindingType {
	return models.FindingDeprecatedProtocols
}

func (r SGDeprecatedProtocolsRule) Evaluate(ctx RuleContext) []models.Finding {
	var deprecatedPorts []int
	for p := range deprecatedProtocols {
		deprecatedPorts = append(deprecatedPorts, p)
	}

	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			if rule.AllPortsRule() {
				continue
			}
			ports := portsInRule(rule, deprecatedPorts)
			if len(ports) == 0 {
				continue
			}
			names := make([]string, len(ports))
			for j, p := range ports {
				names[j] = fmt.Sprintf("%s (%d)", deprecatedProtocols[p], p)
			}
			desc := fmt.Sprintf("Security group %s allows deprecated protocol %s from %s.",
				sg.GroupID, strings.Join(names, ", "), strings.Join(sourceValues(rule), ", "))
			protocols := make([]string, len(ports))
			for j, p := range ports {
				protocols[j] = deprecatedProtocols[p]
			}
			findings = append(findings, newSGFinding(ctx, r, models.SeverityHigh, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				models.DetailExposedPorts: ports,
				"protocols":               protocols,
				"sources":                 sourceValues(rule),
			}))
		}
	}
	return findings
}
