package rules

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/exclusion"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// managementPorts are remote-administration ports.
var managementPorts = []int{22, 3389, 5985, 5986, 5900}

// highRiskPorts are data stores and control planes that must never face the
// internet. The sensitive set is managementPorts ∪ highRiskPorts.
var highRiskPorts = []int{1433, 1521, 2375, 2376, 3306, 5432, 5601, 6379, 9200, 9300, 11211, 27017}

// deprecatedProtocols maps cleartext or legacy protocol ports to their names.
var deprecatedProtocols = map[int]string{
	20:  "FTP-data",
	21:  "FTP",
	23:  "Telnet",
	69:  "TFTP",
	110: "POP3",
	143: "IMAP",
	161: "SNMP",
	512: "rexec",
	513: "rlogin",
	514: "rsh",
}

// portsInRule returns the sorted members of ports covered by rule.
func portsInRule(rule models.SecurityGroupRule, ports ...[]int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, set := range ports {
		for _, p := range set {
			if _, dup := seen[p]; dup || !rule.CoversPort(p) {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// exposedPorts computes the exposed_ports detail of an open rule: [-1] for
// all-port rules, the sensitive ports in range when any, else the single
// port of a one-port rule. The second result reports whether a sensitive
// port is exposed.
func exposedPorts(rule models.SecurityGroupRule) ([]int, bool) {
	if rule.AllPortsRule() {
		return []int{models.AllPorts}, true
	}
	if sensitive := portsInRule(rule, managementPorts, highRiskPorts); len(sensitive) > 0 {
		return sensitive, true
	}
	if !rule.IsICMP() && rule.FromPort == rule.ToPort {
		return []int{rule.FromPort}, false
	}
	return []int{}, false
}

// portRange renders the rule's range for details ("22", "1000-2000", "all").
func portRange(rule models.SecurityGroupRule) string {
	switch {
	case rule.AllPortsRule():
		return "all"
	case rule.FromPort == rule.ToPort:
		return fmt.Sprintf("%d", rule.FromPort)
	default:
		return fmt.Sprintf("%d-%d", rule.FromPort, rule.ToPort)
	}
}

// sourceValues lists source values for details, in rule order.
func sourceValues(rule models.SecurityGroupRule) []string {
	out := make([]string, 0, len(rule.Sources))
	for _, s := range rule.Sources {
		out = append(out, s.Value)
	}
	return out
}

// cidrPrefix parses a CIDR source and returns its prefix length.
func cidrPrefix(s models.Source) (int, bool) {
	if s.Kind != models.SourceIPv4 && s.Kind != models.SourceIPv6 {
		return 0, false
	}
	p, err := netip.ParsePrefix(s.Value)
	if err != nil {
		return 0, false
	}
	return p.Bits(), true
}

// ── exclusion ────────────────────────────────────────────────────────────────

func sgResource(sg models.SecurityGroup) exclusion.Resource {
	return exclusion.Resource{Name: sg.Name, Tags: sg.Tags}
}

func principalResource(p models.Principal) exclusion.Resource {
	return exclusion.Resource{Name: p.Name, Tags: p.Tags, IAM: true}
}

func bucketResource(b models.S3Bucket) exclusion.Resource {
	return exclusion.Resource{Name: b.Name, Tags: b.Tags}
}

// ── finding construction ─────────────────────────────────────────────────────

// securityGroups returns the in-scope groups of the snapshot.
func securityGroups(ctx RuleContext) []models.SecurityGroup {
	if ctx.Snapshot == nil {
		return nil
	}
	var out []models.SecurityGroup
	for _, sg := range ctx.Snapshot.SecurityGroups {
		if ctx.Exclusions.ShouldExclude(sgResource(sg)) {
			continue
		}
		out = append(out, sg)
	}
	return out
}

// principals returns the in-scope IAM principals of the snapshot.
func principals(ctx RuleContext) []models.Principal {
	if ctx.Snapshot == nil {
		return nil
	}
	var out []models.Principal
	for _, p := range ctx.Snapshot.Principals {
		if ctx.Exclusions.ShouldExclude(principalResource(p)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// attachments resolves the resources using groupID. A failed lookup yields
// AttachmentUnknown and an empty list; it never fails the check.
func attachments(ctx RuleContext, groupID string) ([]models.AttachedResource, models.AttachmentStatus) {
	var resolver models.AttachmentResolver = ctx.Attachments
	if resolver == nil {
		if ctx.Snapshot == nil {
			return []models.AttachedResource{}, models.AttachmentUnknown
		}
		resolver = ctx.Snapshot
	}
	res, err := resolver.AttachedResources(groupID)
	if err != nil {
		return []models.AttachedResource{}, models.AttachmentUnknown
	}
	if res == nil {
		res = []models.AttachedResource{}
	}
	return res, models.AttachmentResolved
}

func baseFinding(ctx RuleContext, r Rule, sev models.Severity, details map[string]any) models.Finding {
	f := models.Finding{
		RuleID:               r.ID(),
		FindingType:          r.FindingType(),
		Severity:             sev,
		RuleDetails:          details,
		AttachedResources:    []models.AttachedResource{},
		AttachmentStatus:     models.AttachmentNotApplicable,
		ComplianceFrameworks: []string{},
	}
	if ctx.Snapshot != nil {
		f.AccountID = ctx.Snapshot.AccountID
		f.Region = ctx.Snapshot.Region
	}
	return f
}

// newSGFinding builds a finding on sg. key distinguishes multiple findings of
// one rule on the same group (typically "in<N>"/"out<N>" rule positions).
func newSGFinding(ctx RuleContext, r Rule, sev models.Severity, sg models.SecurityGroup, key, description string, details map[string]any) models.Finding {
	if details == nil {
		details = map[string]any{}
	}
	details[models.DetailRiskDescription] = description
	f := baseFinding(ctx, r, sev, details)
	f.ID = findingID(r.ID(), sg.GroupID, key)
	f.ResourceType = models.ResourceSecurityGroup
	f.ResourceID = sg.GroupID
	f.ResourceName = sg.Name
	f.VPCID = sg.VPCID
	if sg.Region != "" {
		f.Region = sg.Region
	}
	f.AttachedResources, f.AttachmentStatus = attachments(ctx, sg.GroupID)
	f.IsException, f.ExceptionJustification = ctx.Exclusions.IsApprovedException(sgResource(sg))
	return f
}

func newPrincipalFinding(ctx RuleContext, r Rule, sev models.Severity, p models.Principal, key, description string, details map[string]any) models.Finding {
	if details == nil {
		details = map[string]any{}
	}
	details[models.DetailRiskDescription] = description
	f := baseFinding(ctx, r, sev, details)
	f.ID = findingID(r.ID(), p.ARNOrName(), key)
	f.ResourceType = p.ResourceType()
	f.ResourceID = p.ARNOrName()
	f.ResourceName = p.Name
	f.IsException, f.ExceptionJustification = ctx.Exclusions.IsApprovedException(principalResource(p))
	return f
}

func newBucketFinding(ctx RuleContext, r Rule, sev models.Severity, b models.S3Bucket, description string, details map[string]any) models.Finding {
	if details == nil {
		details = map[string]any{}
	}
	details[models.DetailRiskDescription] = description
	f := baseFinding(ctx, r, sev, details)
	f.ID = findingID(r.ID(), b.Name, "")
	f.ResourceType = models.ResourceS3Bucket
	f.ResourceID = b.Name
	f.ResourceName = b.Name
	if b.Region != "" {
		f.Region = b.Region
	}
	f.IsException, f.ExceptionJustification = ctx.Exclusions.IsApprovedException(bucketResource(b))
	return f
}

func newAccountFinding(ctx RuleContext, r Rule, sev models.Severity, description string, details map[string]any) models.Finding {
	if details == nil {
		details = map[string]any{}
	}
	details[models.DetailRiskDescription] = description
	f := baseFinding(ctx, r, sev, details)
	f.ResourceType = models.ResourceAccount
	f.ResourceID = f.AccountID
	f.ResourceName = f.AccountID
	f.ID = findingID(r.ID(), f.AccountID, "")
	return f
}

func findingID(ruleID, resource, key string) string {
	if key == "" {
		return fmt.Sprintf("%s-%s", ruleID, resource)
	}
	return fmt.Sprintf("%s-%s-%s", ruleID, resource, key)
}
