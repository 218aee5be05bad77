package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const (
	defaultBroadIPv4Prefix = 8
	defaultBroadIPv6Prefix = 32
)

// SGOverlyBroadSourceRule flags inbound rules whose CIDR source is at least
// as wide as the broadness threshold (/8 IPv4, /32 IPv6 by default) without
// being fully open; open sources belong to SGUnrestrictedInboundRule.
//
// Policy params: broad_ipv4_prefix, broad_ipv6_prefix.
type SGOverlyBroadSourceRule struct{}

func (r SGOverlyBroadSourceRule) ID() string   { return "SG_OVERLY_BROAD_SOURCE" }
func (r SGOverlyBroadSourceRule) Name() string { return "Overly Broad Source CIDR" }
func (r SGOverlyBroadSourceRule) FindingType() models.FindingType {
	return models.FindingOverlyBroadSource
}

func (r SGOverlyBroadSourceRule) Evaluate(ctx RuleContext) []models.Finding {
	v4 := int(paramOr(ctx, r.ID(), "broad_ipv4_prefix", defaultBroadIPv4Prefix))
	v6 := int(paramOr(ctx, r.ID(), "broad_ipv6_prefix", defaultBroadIPv6Prefix))

	var findings []models.Finding
	for _, sg := range securityGroups(ctx) {
		for i, rule := range sg.Inbound {
			var broad []string
			for _, s := range rule.Sources {
				bits, ok := cidrPrefix(s)
				if !ok || bits == 0 {
					continue
				}
				if (s.Kind == models.SourceIPv4 && bits <= v4) || (s.Kind == models.SourceIPv6 && bits <= v6) {
					broad = append(broad, s.Value)
				}
			}
			if len(broad) == 0 {
				continue
			}
			desc := fmt.Sprintf("Security group %s allows inbound traffic from overly broad range(s) %v.", sg.GroupID, broad)
			findings = append(findings, newSGFinding(ctx, r, models.SeverityMedium, sg, fmt.Sprintf("in%d", i), desc, map[string]any{
				"broad_sources": broad,
				"port_range":    portRange(rule),
			}))
		}
	}
	return findings
}
