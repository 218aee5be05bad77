package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// AllSeverities lists every severity from most to least severe.
var AllSeverities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// severityRank maps Severity values to sort keys (lower = higher priority).
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort key of s. Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// ResourceType identifies the kind of resource a finding refers to.
type ResourceType string

const (
	ResourceSecurityGroup ResourceType = "SecurityGroup"
	ResourceUser          ResourceType = "User"
	ResourceRole          ResourceType = "Role"
	ResourceGroup         ResourceType = "Group"
	ResourceAccount       ResourceType = "Account"
	ResourceS3Bucket      ResourceType = "S3Bucket"
)

// FindingType is the stable identifier of a detected misconfiguration class.
// Compliance mappings and remediation templates are keyed by FindingType.
type FindingType string

// Network finding types.
const (
	FindingUnrestrictedInbound      FindingType = "unrestricted_inbound"
	FindingDeprecatedProtocols      FindingType = "deprecated_protocols"
	FindingAllTrafficRule           FindingType = "all_traffic_rule"
	FindingMissingDescriptions      FindingType = "missing_descriptions"
	FindingUnnecessaryICMP          FindingType = "unnecessary_icmp"
	FindingOverlyBroadSource        FindingType = "overly_broad_source"
	FindingIPv6Exposure             FindingType = "ipv6_exposure"
	FindingUnrestrictedOutboundTier FindingType = "unrestricted_outbound_sensitive_tier"
	FindingManagementPortExposure   FindingType = "management_port_exposure"
)

// IAM and account finding types.
const (
	FindingMFANotEnabled            FindingType = "mfa_not_enabled"
	FindingOldAccessKey             FindingType = "old_access_key"
	FindingMultipleActiveKeys       FindingType = "multiple_active_access_keys"
	FindingOverprivilegedPrincipal  FindingType = "overprivileged_principal"
	FindingDangerousCustomPolicy    FindingType = "dangerous_custom_policy"
	FindingExcessiveSessionDuration FindingType = "excessive_session_duration"
	FindingCrossAccountNoExternalID FindingType = "cross_account_trust_without_external_id"
	FindingWeakPasswordPolicy       FindingType = "weak_password_policy"
	FindingMixedPolicyTypes         FindingType = "mixed_policy_types"
	FindingS3CrossAccountExposure   FindingType = "s3_cross_account_exposure"
)

// AllFindingTypes enumerates every finding type the checks can emit.
var AllFindingTypes = []FindingType{
	FindingUnrestrictedInbound,
	FindingDeprecatedProtocols,
	FindingAllTrafficRule,
	FindingMissingDescriptions,
	FindingUnnecessaryICMP,
	FindingOverlyBroadSource,
	FindingIPv6Exposure,
	FindingUnrestrictedOutboundTier,
	FindingManagementPortExposure,
	FindingMFANotEnabled,
	FindingOldAccessKey,
	FindingMultipleActiveKeys,
	FindingOverprivilegedPrincipal,
	FindingDangerousCustomPolicy,
	FindingExcessiveSessionDuration,
	FindingCrossAccountNoExternalID,
	FindingWeakPasswordPolicy,
	FindingMixedPolicyTypes,
	FindingS3CrossAccountExposure,
}

// Well-known RuleDetails keys.
const (
	DetailRiskDescription = "risk_description"
	DetailExposedPorts    = "exposed_ports"
)

// AttachedResource is a compute or data resource currently using a
// security group.
type AttachedResource struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

// AttachmentStatus records whether the attached-resource lookup for a
// finding's security group produced an answer.
type AttachmentStatus string

const (
	// AttachmentNotApplicable is used for findings on non-network resources.
	AttachmentNotApplicable AttachmentStatus = "not_applicable"
	// AttachmentResolved means the lookup succeeded; the list may be empty.
	AttachmentResolved AttachmentStatus = "resolved"
	// AttachmentUnknown means the lookup failed; the list is always empty.
	AttachmentUnknown AttachmentStatus = "unknown"
)

// Finding is a single detected misconfiguration.
// It is the atomic output unit of the rule engine.
type Finding struct {
	ID                     string             `json:"id"`
	RuleID                 string             `json:"rule_id"`
	FindingType            FindingType        `json:"finding_type"`
	Severity               Severity           `json:"severity"`
	ResourceType           ResourceType       `json:"principal_type"`
	ResourceID             string             `json:"resource_id"`
	ResourceName           string             `json:"resource_name"`
	VPCID                  string             `json:"vpc_id,omitempty"`
	Region                 string             `json:"region"`
	AccountID              string             `json:"account_id"`
	RuleDetails            map[string]any     `json:"rule_details"`
	AttachedResources      []AttachedResource `json:"attached_resources"`
	AttachmentStatus       AttachmentStatus   `json:"attachment_status"`
	ComplianceFrameworks   []string           `json:"compliance_frameworks"`
	RemediationSteps       string             `json:"remediation_steps"`
	IsException            bool               `json:"is_exception"`
	ExceptionJustification string             `json:"exception_justification"`
	RiskScore              int                `json:"risk_score"`
}

// RiskDescription returns the human-readable risk description carried in
// RuleDetails, or "" when absent.
func (f Finding) RiskDescription() string {
	if s, ok := f.RuleDetails[DetailRiskDescription].(string); ok {
		return s
	}
	return ""
}

// EscalationPath is a privilege-escalation pattern matched for one principal.
type EscalationPath struct {
	PrincipalName     string       `json:"principal_name"`
	PrincipalType     ResourceType `json:"principal_type"`
	PrincipalARN      string       `json:"principal_arn,omitempty"`
	EscalationPattern string       `json:"escalation_pattern"`
	Description       string       `json:"description"`
	DangerousActions  []string     `json:"dangerous_actions"`
	IntermediateHops  []string     `json:"intermediate_hops,omitempty"`
	IsException       bool         `json:"is_exception"`
}

// Recommendation is a structured remediation artifact for one finding.
// Exactly one of the policy fields is populated.
type Recommendation struct {
	IssueType               FindingType    `json:"issue_type"`
	PrincipalName           string         `json:"principal_name"`
	RecommendedPolicy       map[string]any `json:"recommended_policy,omitempty"`
	RecommendedTrustPolicy  map[string]any `json:"recommended_trust_policy,omitempty"`
	RecommendedBucketPolicy map[string]any `json:"recommended_bucket_policy,omitempty"`
}

// CheckError records a check that failed during evaluation. Its findings
// are absent from the result.
type CheckError struct {
	RuleID string `json:"rule_id"`
	Error  string `json:"error"`
}

// ScanState is a step of the scan state machine.
type ScanState string

const (
	ScanIdle        ScanState = "Idle"
	ScanCollecting  ScanState = "Collecting"
	ScanEvaluating  ScanState = "Evaluating"
	ScanScoring     ScanState = "Scoring"
	ScanAggregating ScanState = "Aggregating"
	ScanDone        ScanState = "Done"
)

// AuditResult is the canonical output of one scan invocation. It is
// produced once and is read-only afterwards.
type AuditResult struct {
	ScanID             string           `json:"scan_id"`
	AuditTimestamp     time.Time        `json:"audit_timestamp"`
	Region             string           `json:"region"`
	AccountID          string           `json:"account_id"`
	TotalFindings      int              `json:"total_findings"`
	FindingsBySeverity map[Severity]int `json:"findings_by_severity"`
	Findings           []Finding        `json:"findings"`
	EscalationPaths    []EscalationPath `json:"privilege_escalation_paths"`
	Recommendations    []Recommendation `json:"recommendations"`
	CheckErrors        []CheckError     `json:"check_errors,omitempty"`
	State              ScanState        `json:"state"`
}

// ExceptionCount returns the number of findings marked as approved exceptions.
func (r *AuditResult) ExceptionCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.IsException {
			n++
		}
	}
	return n
}
