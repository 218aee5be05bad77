package models

import (
	"strings"
	"time"
)

// Direction of a security-group rule.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Protocol values as reported by EC2. ProtocolAll is the "-1" sentinel.
const (
	ProtocolTCP    = "tcp"
	ProtocolUDP    = "udp"
	ProtocolICMP   = "icmp"
	ProtocolICMPv6 = "icmpv6"
	ProtocolAll    = "-1"
)

// AllPorts is the port sentinel meaning "every port" (or "every ICMP type"
// when the rule protocol is ICMP).
const AllPorts = -1

// SourceKind identifies the type of a rule source or destination.
type SourceKind string

const (
	SourceIPv4          SourceKind = "ipv4"
	SourceIPv6          SourceKind = "ipv6"
	SourceSecurityGroup SourceKind = "sg"
	SourcePrefixList    SourceKind = "prefix-list"
)

// Well-known open CIDRs.
const (
	AnyIPv4 = "0.0.0.0/0"
	AnyIPv6 = "::/0"
)

// Source is one peer referenced by a security-group rule: a CIDR, a
// referenced security group, or a managed prefix list.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value"`
}

// IsOpen reports whether the source is 0.0.0.0/0 or ::/0.
func (s Source) IsOpen() bool {
	return (s.Kind == SourceIPv4 && s.Value == AnyIPv4) ||
		(s.Kind == SourceIPv6 && s.Value == AnyIPv6)
}

// SecurityGroupRule is one normalized EC2 permission entry.
// FromPort and ToPort are AllPorts when the protocol is "-1"; for ICMP
// rules FromPort carries the ICMP type (AllPorts = every type).
// Description is the first non-empty description across the entry's ranges.
type SecurityGroupRule struct {
	Direction   Direction `json:"direction"`
	Protocol    string    `json:"protocol"`
	FromPort    int       `json:"from_port"`
	ToPort      int       `json:"to_port"`
	Sources     []Source  `json:"sources"`
	Description string    `json:"description,omitempty"`
}

// AllPortsRule reports whether the rule covers every port. ICMP rules never
// do: their port fields carry ICMP type and code.
func (r SecurityGroupRule) AllPortsRule() bool {
	if r.Protocol == ProtocolAll {
		return true
	}
	if r.IsICMP() {
		return false
	}
	return r.FromPort == AllPorts || r.ToPort == AllPorts
}

// CoversPort reports whether port p falls in the rule's range.
func (r SecurityGroupRule) CoversPort(p int) bool {
	if r.AllPortsRule() {
		return true
	}
	if r.IsICMP() {
		return false
	}
	return p >= r.FromPort && p <= r.ToPort
}

// IsICMP reports whether the rule protocol is ICMP or ICMPv6.
func (r SecurityGroupRule) IsICMP() bool {
	switch strings.ToLower(r.Protocol) {
	case ProtocolICMP, ProtocolICMPv6, "1", "58":
		return true
	}
	return false
}

// HasOpenSource reports whether any source is 0.0.0.0/0 or ::/0.
func (r SecurityGroupRule) HasOpenSource() bool {
	for _, s := range r.Sources {
		if s.IsOpen() {
			return true
		}
	}
	return false
}

// HasSource reports whether the rule references the exact source kind/value.
func (r SecurityGroupRule) HasSource(kind SourceKind, value string) bool {
	for _, s := range r.Sources {
		if s.Kind == kind && s.Value == value {
			return true
		}
	}
	return false
}

// SecurityGroup is an EC2 security group with its ordered rules.
type SecurityGroup struct {
	GroupID  string              `json:"group_id"`
	Name     string              `json:"group_name"`
	VPCID    string              `json:"vpc_id"`
	Region   string              `json:"region"`
	Tags     map[string]string   `json:"tags,omitempty"`
	Inbound  []SecurityGroupRule `json:"inbound"`
	Outbound []SecurityGroupRule `json:"outbound"`
}

// PrincipalKind is the IAM identity type.
type PrincipalKind string

const (
	PrincipalUser  PrincipalKind = "User"
	PrincipalRole  PrincipalKind = "Role"
	PrincipalGroup PrincipalKind = "Group"
)

// ManagedPolicyRef is a managed policy attached to a principal, together with
// the document of its default version. AWSManaged is true for policies owned
// by AWS (arn:aws:iam::aws:policy/...).
type ManagedPolicyRef struct {
	Name       string          `json:"name"`
	ARN        string          `json:"arn"`
	AWSManaged bool            `json:"aws_managed"`
	Document   *PolicyDocument `json:"document,omitempty"`
}

// InlinePolicy is a policy embedded directly in a principal.
type InlinePolicy struct {
	Name     string         `json:"name"`
	Document PolicyDocument `json:"document"`
}

// AccessKey is metadata for one IAM user access key.
type AccessKey struct {
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is an IAM User, Role, or Group.
//
// Role-only fields: TrustPolicy, MaxSessionDurationSeconds.
// User-only fields: Groups, HasLoginProfile, MFAEnabled, AccessKeys.
type Principal struct {
	Kind            PrincipalKind      `json:"kind"`
	Name            string             `json:"name"`
	ARN             string             `json:"arn"`
	Tags            map[string]string  `json:"tags,omitempty"`
	ManagedPolicies []ManagedPolicyRef `json:"managed_policies,omitempty"`
	InlinePolicies  []InlinePolicy     `json:"inline_policies,omitempty"`

	TrustPolicy               *PolicyDocument `json:"trust_policy,omitempty"`
	MaxSessionDurationSeconds int             `json:"max_session_duration_seconds,omitempty"`

	Groups          []string    `json:"groups,omitempty"`
	HasLoginProfile bool        `json:"has_login_profile,omitempty"`
	MFAEnabled      bool        `json:"mfa_enabled,omitempty"`
	AccessKeys      []AccessKey `json:"access_keys,omitempty"`
}

// ResourceType maps the principal kind onto the finding resource type.
func (p Principal) ResourceType() ResourceType {
	switch p.Kind {
	case PrincipalRole:
		return ResourceRole
	case PrincipalGroup:
		return ResourceGroup
	default:
		return ResourceUser
	}
}

// ARNOrName returns the ARN when known, else the name.
func (p Principal) ARNOrName() string {
	if p.ARN != "" {
		return p.ARN
	}
	return p.Name
}

// MaxSessionDuration returns the role's maximum session duration.
func (p Principal) MaxSessionDuration() time.Duration {
	return time.Duration(p.MaxSessionDurationSeconds) * time.Second
}

// ActiveKeys returns the principal's active access keys in snapshot order.
func (p Principal) ActiveKeys() []AccessKey {
	var out []AccessKey
	for _, k := range p.AccessKeys {
		if k.Active {
			out = append(out, k)
		}
	}
	return out
}

// PasswordPolicy is the account password policy. Present is false when
// the account has no custom password policy configured. Unavailable is set
// when the lookup failed and the policy state is unknown.
type PasswordPolicy struct {
	Unavailable                bool `json:"unavailable,omitempty"`
	Present                    bool `json:"present"`
	MinimumPasswordLength      int  `json:"minimum_password_length"`
	RequireSymbols             bool `json:"require_symbols"`
	RequireNumbers             bool `json:"require_numbers"`
	RequireUppercaseCharacters bool `json:"require_uppercase_characters"`
	RequireLowercaseCharacters bool `json:"require_lowercase_characters"`
	MaxPasswordAge             int  `json:"max_password_age,omitempty"`
	PasswordReusePrevention    int  `json:"password_reuse_prevention,omitempty"`
}

// S3Bucket is a bucket and its resource policy, if any.
type S3Bucket struct {
	Name   string            `json:"name"`
	Region string            `json:"region"`
	Tags   map[string]string `json:"tags,omitempty"`
	Policy *PolicyDocument   `json:"policy,omitempty"`
}

// Snapshot is the normalized, read-only view of one account/region that all
// checks evaluate. Nothing downstream of collection mutates it.
type Snapshot struct {
	AccountID      string          `json:"account_id"`
	Region         string          `json:"region"`
	CollectedAt    time.Time       `json:"collected_at"`
	SecurityGroups []SecurityGroup `json:"security_groups"`
	Principals     []Principal     `json:"principals"`
	PasswordPolicy PasswordPolicy  `json:"password_policy"`
	Buckets        []S3Bucket      `json:"buckets"`

	// Attachments maps a security group id to the resources using it.
	// A group absent from the map has no attachments.
	Attachments map[string][]AttachedResource `json:"attachments,omitempty"`
	// UnresolvedAttachments lists groups whose attachment lookup failed.
	UnresolvedAttachments []string `json:"unresolved_attachments,omitempty"`
}

// AttachmentResolver answers which resources currently use a security group.
// A non-nil error means the lookup failed and the answer is unknown.
type AttachmentResolver interface {
	AttachedResources(groupID string) ([]AttachedResource, error)
}

// ErrAttachmentUnknown is returned by the snapshot resolver for groups whose
// attachment lookup failed during collection.
var ErrAttachmentUnknown = &CollectionError{Op: "resolve attachments", Err: errUnresolved}

// AttachedResources implements AttachmentResolver from the collected index.
func (s *Snapshot) AttachedResources(groupID string) ([]AttachedResource, error) {
	for _, id := range s.UnresolvedAttachments {
		if id == groupID {
			return nil, ErrAttachmentUnknown
		}
	}
	return s.Attachments[groupID], nil
}

// PrincipalByName returns the first principal of the given kind and name.
func (s *Snapshot) PrincipalByName(kind PrincipalKind, name string) (Principal, bool) {
	for _, p := range s.Principals {
		if p.Kind == kind && p.Name == name {
			return p, true
		}
	}
	return Principal{}, false
}
