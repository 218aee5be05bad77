package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

const defaultMaxSessionHours = 12

// IAMExcessiveSessionDurationRule flags roles whose maximum session duration
// exceeds max_session_hours (default 12).
type IAMExcessiveSessionDurationRule struct{}

func (r IAMExcessiveSessionDurationRule) ID() string   { return "IAM_EXCESSIVE_SESSION_DURATION" }
func (r IAMExcessiveSessionDurationRule) Name() string { return "Excessive Role Session Duration" }
func (r IAMExcessiveSessionDurationRule) FindingType() models.FindingType {
	return models.FindingExcessiveSessionDuration
}

func (r IAMExcessiveSessionDurationRule) Evaluate(ctx RuleContext) []models.Finding {
	ceiling := time.Duration(paramOr(ctx, r.ID(), "max_session_hours", defaultMaxSessionHours) * float64(time.Hour))

	var findings []models.Finding
	for _, p := range principals(ctx) {
		if p.Kind != models.PrincipalRole || p.MaxSessionDuration() <= ceiling {
			continue
		}
		hours := p.MaxSessionDuration().Hours()
		desc := fmt.Sprintf("Role %s allows sessions of %.1f hours (limit %.1f).", p.Name, hours, ceiling.Hours())
		findings = append(findings, newPrincipalFinding(ctx, r, models.SeverityMedium, p, "", desc, map[string]any{
			"max_session_seconds": p.MaxSessionDurationSeconds,
			"limit_hours":         ceiling.Hours(),
		}))
	}
	return findings
}
