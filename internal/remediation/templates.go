package remediation

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/models"

// templates holds the remediation text per finding type. Each template is
// executed with a view whose D field is the finding's RuleDetails.
var templates = map[models.FindingType]string{
	models.FindingUnrestrictedInbound: `Restrict the inbound rule on {{.Name}}` +
		`{{with .D.port_range}} (ports {{.}}){{end}} to known CIDR ranges or security groups instead of 0.0.0.0/0 or ::/0.` +
		`{{with .D.exposed_ports}} Exposed sensitive ports: {{join .}}.{{end}}`,

	models.FindingManagementPortExposure: `Remove internet access to management ports on {{.Name}}` +
		`{{with .D.exposed_ports}} ({{join .}}){{end}}. Use AWS Systems Manager Session Manager, a bastion host, or a VPN and allow only its address range.`,

	models.FindingDeprecatedProtocols: `Disable{{with .D.protocols}} {{join .}}{{end}} on {{.Name}} and migrate to an encrypted replacement (SSH/SFTP, IMAPS, POP3S, SNMPv3).`,

	models.FindingAllTrafficRule: `Replace the all-traffic rule on {{.Name}}{{with .D.sources}} from {{join .}}{{end}} with rules for the specific protocols and ports the workload needs.`,

	models.FindingMissingDescriptions: `Add a description to each of the {{with .D.rules_without_description}}{{.}} {{end}}undocumented rules on {{.Name}} naming the owner and purpose.`,

	models.FindingUnnecessaryICMP: `Limit ICMP on {{.Name}} to the types required for path MTU discovery (type 3 code 4) from trusted ranges, or remove the rule.`,

	models.FindingOverlyBroadSource: `Narrow the source ranges on {{.Name}}{{with .D.broad_sources}} ({{join .}}){{end}} to the smallest CIDR blocks that cover legitimate clients.`,

	models.FindingIPv6Exposure: `Replace the ::/0 source on {{.Name}}{{with .D.port_range}} for ports {{.}}{{end}} with specific IPv6 prefixes, or remove IPv6 access if it is not needed.`,

	models.FindingUnrestrictedOutboundTier: `Restrict egress from {{.Name}}{{with .D.tier}} (tier {{.}}){{end}} to the destinations the workload calls; use VPC endpoints for AWS services.`,

	models.FindingMFANotEnabled: `Enable an MFA device for user {{.Name}} and attach a policy that denies actions when aws:MultiFactorAuthPresent is false.`,

	models.FindingOldAccessKey: `Rotate access key{{with .D.access_key_id}} {{.}}{{end}} of {{.Name}}` +
		`{{with .D.age_days}} ({{.}} days old){{end}}: create a new key, update consumers, then deactivate and delete the old key. Prefer IAM roles over long-lived keys.`,

	models.FindingMultipleActiveKeys: `Deactivate all but one access key of {{.Name}}{{with .D.access_key_ids}} ({{join .}}){{end}} after confirming which key is in use.`,

	models.FindingOverprivilegedPrincipal: `Detach{{with .D.policies}} {{join .}}{{end}} from {{.Name}} and grant a least-privilege policy built from its actual usage (IAM Access Analyzer policy generation).`,

	models.FindingDangerousCustomPolicy: `Scope policy{{with .D.policy_name}} {{.}}{{end}} on {{.Name}}: replace Resource "*" with specific ARNs` +
		`{{with .D.dangerous_actions}} for {{join .}}{{end}} and add conditions such as aws:MultiFactorAuthPresent or aws:SourceIp.`,

	models.FindingExcessiveSessionDuration: `Reduce the maximum session duration of role {{.Name}}{{with .D.limit_hours}} to {{.}} hours or less{{end}}.`,

	models.FindingCrossAccountNoExternalID: `Add a Condition requiring sts:ExternalId to the trust policy of role {{.Name}}` +
		`{{with .D.trusted_principals}} for {{join .}}{{end}}, and share the external id only with the trusted party.`,

	models.FindingWeakPasswordPolicy: `Update the account password policy: minimum length 14 or more and require symbols, numbers, uppercase, and lowercase characters.` +
		`{{with .D.gaps}} Current gaps: {{join .}}.{{end}}`,

	models.FindingMixedPolicyTypes: `Move the inline policies of role {{.Name}} into customer-managed policies so permissions are versioned and reviewable in one place.`,

	models.FindingS3CrossAccountExposure: `Remove the wildcard principal from the bucket policy of {{.Name}}, grant access only to named account or role ARNs, and enable S3 Block Public Access.`,
}
