package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const defaultMaxKeyAgeDays = 90

// IAMOldAccessKeyRule flags active access keys older than max_key_age_days
// (default 90), measured against the snapshot's collection time so that
// re-running on a saved snapshot yields the same result.
type IAMOldAccessKeyRule struct{}

func (r IAMOldAccessKeyRule) ID() string                      { return "IAM_OLD_ACCESS_KEY" }
func (r IAMOldAccessKeyRule) Name() string                    { return "Access Key Not Rotated" }
func (r IAMOldAccessKeyRule) FindingType() models.FindingType { return models.FindingOldAccessKey }

// Evaluate emits one MEDIUM finding per stale active key.
func (r IAMOldAccessKeyRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Snapshot == nil {
		return nil
	}
	maxAge := int(paramOr(ctx, r.ID(), "max_key_age_days", defaultMaxKeyAgeDays))
	now := ctx.Snapshot.CollectedAt

	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalUser {
			continue
		}
		for _, k := range p.ActiveKeys() {
			if k.CreatedAt.IsZero() {
				continue
			}
			age := int(now.Sub(k.CreatedAt) / (24 * time.Hour))
			if age <= maxAge {
				continue
			}
			desc := fmt.Sprintf("Access key %s of IAM user %s is %d days old (limit %d).", k.ID, p.Name, age, maxAge)
			findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityMedium, p, k.ID, desc, map[string]any{
				"access_key_id": k.ID,
				"age_days":      age,
				"max_age_days":  maxAge,
			}))
		}
	}
	return findings
}

// IAMMultipleActiveKeysRule flags users holding more than one active key.
type IAMMultipleActiveKeysRule struct{}

func (r IAMMultipleActiveKeysRule) ID() string   { return "IAM_MULTIPLE_ACTIVE_KEYS" }
func (r IAMMultipleActiveKeysRule) Name() string { return "Multiple Active Access Keys" }
func (r IAMMultipleActiveKeysRule) FindingType() models.FindingType {
	return models.FindingMultipleActiveKeys
}

func (r IAMMultipleActiveKeysRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalUser {
			continue
		}
		active := p.ActiveKeys()
		if len(active) <= 1 {
			continue
		}
		ids := make([]string, len(active))
		for i, k := range active {
			ids[i] = k.ID
		}
		desc := fmt.Sprintf("IAM user %s has %d active access keys.", p.Name, len(active))
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityMedium, p, "", desc, map[string]any{
			"access_key_ids": ids,
		}))
	}
	return findings
}
