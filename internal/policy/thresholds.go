package policy

import "strings"

// DefaultSensitiveTiers are the Tier tag values treated as sensitive when the
// policy does not list its own.
var DefaultSensitiveTiers = []string{"database", "db", "data", "restricted", "pci"}

// GetThreshold returns the configured float64 parameter value for a rule, or
// defaultValue when no override is present. It is safe to call with cfg == nil.
//
// Lookup order:
//  1. cfg == nil → defaultValue
//  2. cfg.Rules[ruleID] absent → defaultValue
//  3. cfg.Rules[ruleID].Params[key] absent → defaultValue
//  4. Otherwise → configured value
func GetThreshold(ruleID, key string, defaultValue float64, cfg *PolicyConfig) float64 {
	if cfg == nil {
		return defaultValue
	}
	rc, ok := cfg.Rules[ruleID]
	if !ok {
		return defaultValue
	}
	v, ok := rc.Params[key]
	if !ok {
		return defaultValue
	}
	return v
}

// SensitiveTiers returns the lower-cased set of sensitive tier names.
func SensitiveTiers(cfg *PolicyConfig) map[string]struct{} {
	tiers := DefaultSensitiveTiers
	if cfg != nil && len(cfg.SensitiveTiers) > 0 {
		tiers = cfg.SensitiveTiers
	}
	out := make(map[string]struct{}, len(tiers))
	for _, t := range tiers {
		out[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return out
}
