// Package render provides presentation helpers for privilege-escalation
// paths. It is a pure rendering package: no matching, no scoring, no AWS calls.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// PathsForPrincipal returns the escalation paths of the named principal in
// report order. The name matches PrincipalName or PrincipalARN.
func PathsForPrincipal(paths []models.EscalationPath, principal string) []models.EscalationPath {
	var out []models.EscalationPath
	for _, p := range paths {
		if p.PrincipalName == principal || (p.PrincipalARN != "" && p.PrincipalARN == principal) {
			out = append(out, p)
		}
	}
	return out
}

// RenderEscalationExplanation writes a structured breakdown of one
// principal's escalation paths to w. findings is the full report finding
// set; only findings on that principal are listed, grouped by rule ID with
// rule IDs sorted ascending for stable output.
//
// Example output:
//
//	PRINCIPAL bob (User)
//	Escalation paths (2):
//
//	  ✓ create_access_key
//	    Create access keys for any user, including administrators.
//	    Actions: iam:CreateAccessKey
//
//	  ✓ passrole_lambda [exception]
//	    ...
//	    Via: group:devs → role:lambda-admin
//
//	Related findings (1):
//
//	  ✓ IAM_OVERPRIVILEGED_PRINCIPAL
//	    - HIGH  arn:aws:iam::111122223333:user/bob
func RenderEscalationExplanation(w io.Writer, paths []models.EscalationPath, findings []models.Finding) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No escalation paths.")
		return
	}

	head := paths[0]
	fmt.Fprintf(w, "PRINCIPAL %s (%s)\n", head.PrincipalName, head.PrincipalType)
	fmt.Fprintf(w, "Escalation paths (%d):\n", len(paths))

	for _, p := range paths {
		fmt.Fprintln(w)
		marker := ""
		if p.IsException {
			marker = " [exception]"
		}
		fmt.Fprintf(w, "  ✓ %s%s\n", p.EscalationPattern, marker)
		fmt.Fprintf(w, "    %s\n", p.Description)
		fmt.Fprintf(w, "    Actions: %s\n", strings.Join(p.DangerousActions, ", "))
		if len(p.IntermediateHops) > 0 {
			fmt.Fprintf(w, "    Via: %s\n", strings.Join(p.IntermediateHops, " → "))
		}
	}

	// Group related findings by RuleID, then sort rule IDs for stability.
	ruleToFindings := make(map[string][]models.Finding)
	var ruleOrder []string
	for _, f := range findings {
		if f.ResourceName != head.PrincipalName || f.ResourceType != head.PrincipalType {
			continue
		}
		if _, seen := ruleToFindings[f.RuleID]; !seen {
			ruleOrder = append(ruleOrder, f.RuleID)
		}
		ruleToFindings[f.RuleID] = append(ruleToFindings[f.RuleID], f)
	}
	if len(ruleOrder) == 0 {
		return
	}
	sort.Strings(ruleOrder)

	total := 0
	for _, fs := range ruleToFindings {
		total += len(fs)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Related findings (%d):\n", total)
	for _, ruleID := range ruleOrder {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  ✓ %s\n", ruleID)
		for _, f := range ruleToFindings[ruleID] {
			fmt.Fprintf(w, "    - %-8s  %s\n", f.Severity, f.ResourceID)
		}
	}
}

// WriteExplainJSON writes the explanation as indented JSON to w.
//
// When paths is non-empty, the output is:
//
//	{"principal": "bob", "escalation_paths": [ ... ]}
//
// Otherwise:
//
//	{"error": "No escalation paths found for principal bob"}
func WriteExplainJSON(w io.Writer, principal string, paths []models.EscalationPath) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(paths) == 0 {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No escalation paths found for principal %s", principal),
		})
	}
	return enc.Encode(map[string]any{
		"principal":        principal,
		"escalation_paths": paths,
	})
}
