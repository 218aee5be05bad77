package policy

import (
	"fmt"
	"strings"
)

// validDomains is the set of recognised audit domain names.
var validDomains = map[string]struct{}{
	DomainNetwork: {},
	DomainIAM:     {},
}

// validSeverities is the set of allowed severity strings (upper-case canonical form).
var validSeverities = map[string]struct{}{
	"CRITICAL": {},
	"HIGH":     {},
	"MEDIUM":   {},
	"LOW":      {},
}

// Validate checks cfg for semantic correctness and returns all validation errors
// found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - domain names must be one of: network, iam
//   - domain min_severity must be a valid severity value if set
//   - rule IDs must appear in availableRuleIDs
//   - rule severity overrides must be valid severity values if set
//   - rule params must be non-negative
//   - exclusion tags must have non-empty keys
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *PolicyConfig, availableRuleIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	knownIDs := make(map[string]struct{}, len(availableRuleIDs))
	for _, id := range availableRuleIDs {
		knownIDs[id] = struct{}{}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for name, dcfg := range cfg.Domains {
		if _, ok := validDomains[name]; !ok {
			errs = append(errs, fmt.Errorf("domains.%s: unknown domain; valid values: network, iam", name))
		}
		if dcfg.MinSeverity != "" {
			if _, ok := validSeverities[strings.ToUpper(dcfg.MinSeverity)]; !ok {
				errs = append(errs, fmt.Errorf("domains.%s.min_severity: invalid value %q; valid values: CRITICAL, HIGH, MEDIUM, LOW", name, dcfg.MinSeverity))
			}
		}
	}

	for ruleID, rcfg := range cfg.Rules {
		if _, ok := knownIDs[ruleID]; !ok {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule ID", ruleID))
		}
		if rcfg.Severity != "" {
			if _, ok := validSeverities[strings.ToUpper(rcfg.Severity)]; !ok {
				errs = append(errs, fmt.Errorf("rules.%s.severity: invalid value %q; valid values: CRITICAL, HIGH, MEDIUM, LOW", ruleID, rcfg.Severity))
			}
		}
		for key, v := range rcfg.Params {
			if v < 0 {
				errs = append(errs, fmt.Errorf("rules.%s.params.%s: must not be negative (got %v)", ruleID, key, v))
			}
		}
	}

	for key := range cfg.Exclusions.Tags {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Errorf("exclusions.tags: empty tag key"))
		}
	}

	return errs
}
