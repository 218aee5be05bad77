// Package compliance maps finding types to the controls they violate.
package compliance

import (
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Framework names as rendered in reports.
const (
	CIS    = "CIS AWS Foundations"
	PCIDSS = "PCI-DSS"
	HIPAA  = "HIPAA"
	NIST   = "NIST 800-53"
	SOC2   = "SOC 2"
)

// Control is one framework and the control ids a finding type violates in it.
type Control struct {
	Framework string
	IDs       []string
}

// String renders the control as "PCI-DSS: 1.2.1, 1.3.1".
func (c Control) String() string {
	return c.Framework + ": " + strings.Join(c.IDs, ", ")
}

// table is the static mapping. Every entry of models.AllFindingTypes must be
// present; mapper_test enforces it.
var table = map[models.FindingType][]Control{
	models.FindingUnrestrictedInbound: {
		{CIS, []string{"5.2", "5.3"}},
		{PCIDSS, []string{"1.2.1", "1.3.1"}},
		{HIPAA, []string{"164.312(a)(1)"}},
		{NIST, []string{"SC-7", "AC-4"}},
	},
	models.FindingManagementPortExposure: {
		{CIS, []string{"5.2", "5.3"}},
		{PCIDSS, []string{"1.2.1", "1.3.1", "2.2.2"}},
		{HIPAA, []string{"164.312(a)(1)", "164.312(e)(1)"}},
		{NIST, []string{"SC-7", "AC-17"}},
	},
	models.FindingDeprecatedProtocols: {
		{PCIDSS, []string{"2.2.2", "4.1"}},
		{HIPAA, []string{"164.312(e)(1)"}},
		{NIST, []string{"SC-8", "CM-7"}},
	},
	models.FindingAllTrafficRule: {
		{CIS, []string{"5.2"}},
		{PCIDSS, []string{"1.2.1"}},
		{NIST, []string{"SC-7", "CM-7"}},
	},
	models.FindingMissingDescriptions: {
		{PCIDSS, []string{"1.1.6"}},
		{NIST, []string{"CM-8"}},
		{SOC2, []string{"CC6.6"}},
	},
	models.FindingUnnecessaryICMP: {
		{PCIDSS, []string{"1.2.1"}},
		{NIST, []string{"SC-7"}},
	},
	models.FindingOverlyBroadSource: {
		{PCIDSS, []string{"1.2.1", "1.3.2"}},
		{NIST, []string{"SC-7", "AC-4"}},
	},
	models.FindingIPv6Exposure: {
		{CIS, []string{"5.3"}},
		{PCIDSS, []string{"1.3.1"}},
		{NIST, []string{"SC-7"}},
	},
	models.FindingUnrestrictedOutboundTier: {
		{PCIDSS, []string{"1.2.1", "1.3.4"}},
		{HIPAA, []string{"164.312(e)(1)"}},
		{NIST, []string{"SC-7(5)", "AC-4"}},
	},
	models.FindingMFANotEnabled: {
		{CIS, []string{"1.10"}},
		{PCIDSS, []string{"8.3.1"}},
		{HIPAA, []string{"164.312(d)"}},
		{NIST, []string{"IA-2(1)"}},
		{SOC2, []string{"CC6.1"}},
	},
	models.FindingOldAccessKey: {
		{CIS, []string{"1.14"}},
		{PCIDSS, []string{"8.2.4"}},
		{NIST, []string{"IA-5(1)"}},
	},
	models.FindingMultipleActiveKeys: {
		{CIS, []string{"1.13"}},
		{NIST, []string{"IA-5", "AC-2"}},
	},
	models.FindingOverprivilegedPrincipal: {
		{CIS, []string{"1.16"}},
		{PCIDSS, []string{"7.1.2"}},
		{HIPAA, []string{"164.308(a)(4)"}},
		{NIST, []string{"AC-6"}},
		{SOC2, []string{"CC6.3"}},
	},
	models.FindingDangerousCustomPolicy: {
		{CIS, []string{"1.16"}},
		{PCIDSS, []string{"7.1.2"}},
		{NIST, []string{"AC-6(1)"}},
		{SOC2, []string{"CC6.3"}},
	},
	models.FindingExcessiveSessionDuration: {
		{PCIDSS, []string{"8.1.8"}},
		{NIST, []string{"AC-12"}},
	},
	models.FindingCrossAccountNoExternalID: {
		{PCIDSS, []string{"7.1"}},
		{NIST, []string{"AC-3", "IA-8"}},
		{SOC2, []string{"CC6.1"}},
	},
	models.FindingWeakPasswordPolicy: {
		{CIS, []string{"1.8", "1.9"}},
		{PCIDSS, []string{"8.2.3", "8.2.5"}},
		{HIPAA, []string{"164.308(a)(5)(ii)(D)"}},
		{NIST, []string{"IA-5(1)"}},
	},
	models.FindingMixedPolicyTypes: {
		{CIS, []string{"1.15"}},
		{NIST, []string{"AC-6", "AC-2"}},
	},
	models.FindingS3CrossAccountExposure: {
		{CIS, []string{"2.1.5"}},
		{PCIDSS, []string{"1.3.1", "7.1"}},
		{HIPAA, []string{"164.312(a)(1)"}},
		{NIST, []string{"AC-3", "AC-21"}},
		{SOC2, []string{"CC6.1"}},
	},
}

// Controls returns the controls violated by findingType, nil when unmapped.
func Controls(findingType models.FindingType) []Control {
	return table[findingType]
}

// Frameworks returns the rendered control strings for findingType.
func Frameworks(findingType models.FindingType) []string {
	controls := table[findingType]
	out := make([]string, 0, len(controls))
	for _, c := range controls {
		out = append(out, c.String())
	}
	return out
}

// Apply stamps ComplianceFrameworks on every finding in place.
func Apply(findings []models.Finding) {
	for i := range findings {
		findings[i].ComplianceFrameworks = Frameworks(findings[i].FindingType)
	}
}
