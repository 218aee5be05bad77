// Package scoring assigns each finding a 0–10 risk score.
package scoring

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/models"

const (
	MinScore = 0
	MaxScore = 10
)

// baseScore maps severity to the starting score. Unknown severities score 0.
var baseScore = map[models.Severity]float64{
	models.SeverityCritical: 10,
	models.SeverityHigh:     7,
	models.SeverityMedium:   4,
	models.SeverityLow:      1,
}

// Score computes the risk score of f:
//
//	base(severity) + 0.5 if any resource is attached
//	               + 0.5 × min(len(compliance_frameworks), 2)
//
// clamped to [MinScore, MaxScore] and truncated to an integer.
// Compliance frameworks must already be attached.
func Score(f models.Finding) int {
	s := baseScore[f.Severity]
	if len(f.AttachedResources) > 0 {
		s += 0.5
	}
	s += 0.5 * float64(min(len(f.ComplianceFrameworks), 2))
	return clamp(int(s))
}

// Apply stamps RiskScore on every finding in place.
func Apply(findings []models.Finding) {
	for i := range findings {
		findings[i].RiskScore = Score(findings[i])
	}
}

func clamp(s int) int {
	return max(MinScore, min(MaxScore, s))
}
