package policy

import (
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// DomainEnabled reports whether domain should be evaluated. Domains absent
// from the policy are enabled.
func DomainEnabled(domain string, cfg *PolicyConfig) bool {
	if cfg == nil {
		return true
	}
	d, ok := cfg.Domains[domain]
	return !ok || d.Enabled == nil || *d.Enabled
}

// RuleEnabled reports whether ruleID should be evaluated.
func RuleEnabled(ruleID string, cfg *PolicyConfig) bool {
	if cfg == nil {
		return true
	}
	rc, ok := cfg.Rules[ruleID]
	return !ok || rc.Enabled == nil || *rc.Enabled
}

func ApplyPolicy(findings []models.Finding, domain string, cfg *PolicyConfig) []models.Finding {
	if cfg == nil {
		return findings
	}

	// Domain-level disable
	if !DomainEnabled(domain, cfg) {
		return []models.Finding{}
	}

	minRank := -1
	if d, ok := cfg.Domains[domain]; ok && d.MinSeverity != "" {
		if sev := models.Severity(strings.ToUpper(d.MinSeverity)); sev.Valid() {
			minRank = sev.Rank()
		}
	}

	var result []models.Finding

	for _, f := range findings {
		ruleCfg, hasRule := cfg.Rules[f.RuleID]

		// Rule-level disable
		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}

		// Severity override
		if hasRule && ruleCfg.Severity != "" {
			if sev := models.Severity(strings.ToUpper(ruleCfg.Severity)); sev.Valid() {
				f.Severity = sev
			}
		}

		// Rank grows as severity drops.
		if minRank >= 0 && f.Severity.Rank() > minRank {
			continue
		}

		result = append(result, f)
	}

	return result
}
