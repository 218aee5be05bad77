package rules

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"

// paramOr reads a numeric rule parameter from the policy file.
func paramOr(ctx RuleContext, ruleID, key string, def float64) float64 {
	return policy.GetThreshold(ruleID, key, def, ctx.Policy)
}
