package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// broadAllTrafficPrefix is the widest IPv4 prefix that still makes an
// all-traffic rule MEDIUM rather than HIGH.
const broadAllTrafficPrefix = 16

// SGAllTrafficRule flags inbound and outbound rules with protocol -1 (every
// protocol and port). HIGH when a peer is open or an IPv4 block of /16 or
// wider; MEDIUM for narrower CIDRs and security-group or prefix-list peers.
type SGAllTrafficRule struct{}

func (r SGAllTrafficRule) ID() string                      { return "SG_ALL_TRAFFIC" }
func (r SGAllTrafficRule) Name() string                    { return "All Traffic Allowed" }
func (r SGAllTrafficRule) FindingType() models.FindingType { return models.FindingAllTrafficRule }

func (r SGAllTrafficRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		findings = r.evaluateRules(ctx, findings, sg, models.Inbound, sg.Inbound)
		findings = r.evaluateRules(ctx, findings, sg, models.Outbound, sg.Outbound)
	}
	return findings
}

func (r SGAllTrafficRule) evaluateRules(ctx RuleContext, findings []models.Finding, sg models.SecurityGroup, dir models.Direction, sgRules []models.SecurityGroupRule) []models.Finding {
	keyPrefix, peer := "in", "from"
	if dir == models.Outbound {
		keyPrefix, peer = "out", "to"
	}
	for i, rule := range sgRules {
		if rule.Protocol != models.ProtocolAll {
			continue
		}
		sev := models.SeverityMedium
		if allTrafficBroad(rule) {
			sev = models.SeverityHigh
		}
		desc := fmt.Sprintf("Security group %s allows all %s traffic %s %v.", sg.GroupID, dir, peer, sourceValues(rule))
		findings = append(findings, newSGFinding(ctx, r, sev, sg, fmt.Sprintf("%s%d", keyPrefix, i), desc, map[string]any{
			"direction": string(dir),
			"sources":   sourceValues(rule),
		}))
	}
	return findings
}

func allTrafficBroad(rule models.SecurityGroupRule) bool {
	for _, s := range rule.Sources {
		if s.IsOpen() {
			return true
		}
		if s.Kind != models.SourceIPv4 {
			continue
		}
		if bits, ok := cidrPrefix(s); ok && bits <= broadAllTrafficPrefix {
			return true
		}
	}
	return false
}
