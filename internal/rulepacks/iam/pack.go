// Package iam provides the IAM, account, and bucket-policy rule pack.
package iam

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"

// Domain is the policy domain name of this pack.
const Domain = "iam"

// New returns the default IAM audit rule pack.
func New() []rules.Rule {
	return []rules.Rule{
		rules.IAMOverprivilegedRule{},           // CRITICAL: administrative managed policy
		rules.S3CrossAccountExposureRule{},      // CRITICAL: bucket policy open to any account
		rules.IAMUserNoMFARule{},                // HIGH:     console user without MFA
		rules.IAMDangerousCustomPolicyRule{},    // HIGH:     sensitive action on * without condition
		rules.IAMCrossAccountTrustRule{},        // HIGH:     external trust without ExternalId
		rules.IAMOldAccessKeyRule{},             // MEDIUM:   key older than max_key_age_days
		rules.IAMMultipleActiveKeysRule{},       // MEDIUM:   more than one active key
		rules.IAMExcessiveSessionDurationRule{}, // MEDIUM:   session longer than max_session_hours
		rules.IAMWeakPasswordPolicyRule{},       // MEDIUM:   weak or missing password policy
		rules.IAMMixedPolicyTypesRule{},         // LOW:      inline and managed on one role
	}
}
