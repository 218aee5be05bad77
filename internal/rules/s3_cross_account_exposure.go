package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// S3CrossAccountExposureRule flags bucket policies that Allow any principal
// ("*", {"AWS":"*"}, or a wildcard account) without a Condition.
type S3CrossAccountExposureRule struct{}

func (r S3CrossAccountExposureRule) ID() string   { return "S3_CROSS_ACCOUNT_EXPOSURE" }
func (r S3CrossAccountExposureRule) Name() string { return "S3 Bucket Open To Any Account" }
func (r S3CrossAccountExposureRule) FindingType() models.FindingType {
	return models.FindingS3CrossAccountExposure
}

func (r S3CrossAccountExposureRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Snapshot == nil {
		return nil
	}
	var findings []models.Finding
	for _, b := range ctx.Snapshot.Buckets {
		if b.Policy == nil || ctx.Exclusions.ShouldExclude(bucketResource(b)) {
			continue
		}
		var actions []string
		for _, st := range b.Policy.Statement {
			if !st.IsAllow() || st.Principal == nil || st.HasCondition() {
				continue
			}
			if st.Principal.AllowsAnyone() {
				actions = append(actions, st.Action...)
			}
		}
		if len(actions) == 0 {
			continue
		}
		desc := fmt.Sprintf("Bucket %s policy grants %v to any AWS principal without conditions.", b.Name, actions)
		findings = append(findings, newBucketFinding(ctx, r, models.SeverityCritical, b, desc, map[string]any{
			"actions": actions,
		}))
	}
	return findings
}
