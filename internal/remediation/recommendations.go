package remediation

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const policyVersion = "2012-10-17"

// Placeholders left in recommended documents for the operator to fill in.
const (
	placeholderResource   = "REPLACE_WITH_RESOURCE_ARN"
	placeholderExternalID = "REPLACE_WITH_EXTERNAL_ID"
	placeholderAction     = "REPLACE_WITH_REQUIRED_ACTION"
)

// Recommendations builds structured policy recommendations for the IAM and
// S3 findings that have one. Order follows findings.
func Recommendations(findings []models.Finding) []models.Recommendation {
	out := []models.Recommendation{}
	for _, f := range findings {
		if r, ok := Recommend(f); ok {
			out = append(out, r)
		}
	}
	return out
}

// Recommend returns the structured recommendation for f, if its type has one.
func Recommend(f models.Finding) (models.Recommendation, bool) {
	r := models.Recommendation{IssueType: f.FindingType, PrincipalName: f.ResourceName}
	switch f.FindingType {
	case models.FindingMFANotEnabled:
		r.RecommendedPolicy = requireMFAPolicy()
	case models.FindingOverprivilegedPrincipal:
		r.RecommendedPolicy = leastPrivilegePolicy([]string{placeholderAction}, nil)
	case models.FindingDangerousCustomPolicy:
		r.RecommendedPolicy = leastPrivilegePolicy(stringsDetail(f.RuleDetails, "dangerous_actions"), map[string]any{
			"Bool": map[string]any{"aws:MultiFactorAuthPresent": "true"},
		})
	case models.FindingCrossAccountNoExternalID:
		r.RecommendedTrustPolicy = externalIDTrustPolicy(stringsDetail(f.RuleDetails, "trusted_principals"))
	case models.FindingS3CrossAccountExposure:
		r.RecommendedBucketPolicy = restrictedBucketPolicy(f.ResourceID, f.AccountID)
	default:
		return models.Recommendation{}, false
	}
	return r, true
}

func requireMFAPolicy() map[string]any {
	return map[string]any{
		"Version": policyVersion,
		"Statement": []any{
			map[string]any{
				"Sid":       "DenyAllExceptMFASetupWithoutMFA",
				"Effect":    models.EffectDeny,
				"NotAction": []string{"iam:CreateVirtualMFADevice", "iam:EnableMFADevice", "iam:GetUser", "iam:ListMFADevices", "iam:ListVirtualMFADevices", "iam:ResyncMFADevice", "sts:GetSessionToken"},
				"Resource":  "*",
				"Condition": map[string]any{
					"BoolIfExists": map[string]any{"aws:MultiFactorAuthPresent": "false"},
				},
			},
		},
	}
}

func leastPrivilegePolicy(actions []string, condition map[string]any) map[string]any {
	if len(actions) == 0 {
		actions = []string{placeholderAction}
	}
	stmt := map[string]any{
		"Sid":      "ScopedAccess",
		"Effect":   models.EffectAllow,
		"Action":   actions,
		"Resource": []string{placeholderResource},
	}
	if condition != nil {
		stmt["Condition"] = condition
	}
	return map[string]any{"Version": policyVersion, "Statement": []any{stmt}}
}

func externalIDTrustPolicy(principals []string) map[string]any {
	var aws any = placeholderResource
	if len(principals) > 0 {
		aws = principals
	}
	return map[string]any{
		"Version": policyVersion,
		"Statement": []any{
			map[string]any{
				"Effect":    models.EffectAllow,
				"Principal": map[string]any{"AWS": aws},
				"Action":    "sts:AssumeRole",
				"Condition": map[string]any{
					"StringEquals": map[string]any{"sts:ExternalId": placeholderExternalID},
				},
			},
		},
	}
}

func restrictedBucketPolicy(bucket, accountID string) map[string]any {
	principal := placeholderResource
	if accountID != "" {
		principal = fmt.Sprintf("arn:aws:iam::%s:root", accountID)
	}
	bucketARN := "arn:aws:s3:::" + bucket
	return map[string]any{
		"Version": policyVersion,
		"Statement": []any{
			map[string]any{
				"Sid":       "AllowNamedPrincipalsOnly",
				"Effect":    models.EffectAllow,
				"Principal": map[string]any{"AWS": principal},
				"Action":    []string{"s3:GetObject", "s3:ListBucket"},
				"Resource":  []string{bucketARN, bucketARN + "/*"},
			},
			map[string]any{
				"Sid":       "DenyInsecureTransport",
				"Effect":    models.EffectDeny,
				"Principal": "*",
				"Action":    "s3:*",
				"Resource":  []string{bucketARN, bucketARN + "/*"},
				"Condition": map[string]any{
					"Bool": map[string]any{"aws:SecureTransport": "false"},
				},
			},
		},
	}
}

// stringsDetail reads a list-of-strings detail, accepting []string or []any
// (the latter after a JSON round trip).
func stringsDetail(details map[string]any, key string) []string {
	switch v := details[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
