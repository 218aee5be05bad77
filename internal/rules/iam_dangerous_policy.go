package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// sensitiveActions are actions that must not be granted on every resource
// without a condition. Wildcards in a statement (e.g. "iam:*", "s3:*", "*")
// match them too.
var sensitiveActions = []string{
	"iam:CreateUser",
	"iam:CreateAccessKey",
	"iam:CreateLoginProfile",
	"iam:UpdateLoginProfile",
	"iam:AttachUserPolicy",
	"iam:AttachRolePolicy",
	"iam:AttachGroupPolicy",
	"iam:PutUserPolicy",
	"iam:PutRolePolicy",
	"iam:PutGroupPolicy",
	"iam:CreatePolicyVersion",
	"iam:SetDefaultPolicyVersion",
	"iam:UpdateAssumeRolePolicy",
	"iam:PassRole",
	"iam:AddUserToGroup",
	"s3:DeleteBucket",
	"s3:PutBucketPolicy",
	"s3:DeleteObject",
	"ec2:TerminateInstances",
	"ec2:AuthorizeSecurityGroupIngress",
	"kms:ScheduleKeyDeletion",
	"lambda:UpdateFunctionCode",
}

// IAMDangerousCustomPolicyRule flags customer-managed and inline policy
// statements that Allow a sensitive action on Resource "*" without any
// Condition. AWS managed policies are covered by IAMOverprivilegedRule.
type IAMDangerousCustomPolicyRule struct{}

func (r IAMDangerousCustomPolicyRule) ID() string   { return "IAM_DANGEROUS_CUSTOM_POLICY" }
func (r IAMDangerousCustomPolicyRule) Name() string { return "Dangerous Custom Policy" }
func (r IAMDangerousCustomPolicyRule) FindingType() models.FindingType {
	return models.FindingDangerousCustomPolicy
}

// Evaluate emits one HIGH finding per principal and offending policy.
func (r IAMDangerousCustomPolicyRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range principals(ctx) {
		for _, mp := range p.ManagedPolicies {
			if mp.AWSManaged || mp.Document == nil {
				continue
			}
			if actions := dangerousActions(*mp.Document); len(actions) > 0 {
				findings = append(findings, r.finding(ctx, p, mp.Name, "managed", actions))
			}
		}
		for _, ip := range p.InlinePolicies {
			if actions := dangerousActions(ip.Document); len(actions) > 0 {
				findings = append(findings, r.finding(ctx, p, ip.Name, "inline", actions))
			}
		}
	}
	return findings
}

func (r IAMDangerousCustomPolicyRule) finding(ctx RuleContext, p models.Principal, policyName, kind string, actions []string) models.Finding {
	desc := fmt.Sprintf("Policy %s on %s grants sensitive actions %v on all resources without conditions.", policyName, p.Name, actions)
	return newPrincipalFinding(ctx, r, models.SeverityHigh, p, policyName, desc, map[string]any{
		"policy_name":       policyName,
		"policy_kind":       kind,
		"dangerous_actions": actions,
	})
}

// dangerousActions returns the statement action entries, in document order,
// that grant a sensitive action on "*" without a condition.
func dangerousActions(doc models.PolicyDocument) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, st := range doc.Statement {
		if !st.IsAllow() || !st.AllResources() || st.HasCondition() {
			continue
		}
		for _, action := range st.Action {
			if _, dup := seen[action]; dup {
				continue
			}
			for _, sensitive := range sensitiveActions {
				if models.MatchAction(action, sensitive) {
					seen[action] = struct{}{}
					out = append(out, action)
					break
				}
			}
		}
	}
	return out
}
