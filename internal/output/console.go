package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// IsTerminal reports whether w is a terminal. Only *os.File values can be.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ConsoleOptions controls RenderConsole.
type ConsoleOptions struct {
	// Colored enables ANSI colours. Callers usually pass IsTerminal(w).
	Colored bool
}

// RenderConsole writes a human-readable report: a header with counts, the
// findings table grouped by severity, escalation paths and check errors.
func RenderConsole(w io.Writer, res *models.AuditResult, opts ConsoleOptions) {
	fmt.Fprintf(w, "Account: %-14s  Region: %-14s  Scan: %s\n", res.AccountID, res.Region, res.ScanID)
	fmt.Fprintf(w, "Audited: %s\n", res.AuditTimestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Findings:  %d", res.TotalFindings)
	if exc := res.ExceptionCount(); exc > 0 {
		note := fmt.Sprintf("  (+%d approved exceptions)", exc)
		if opts.Colored {
			note = ansiDim + note + ansiReset
		}
		fmt.Fprint(w, note)
	}
	fmt.Fprintln(w)
	for _, sev := range models.AllSeverities {
		fmt.Fprintf(w, "  %s  %d\n", severityCell(sev, 10, opts.Colored), res.FindingsBySeverity[sev])
	}

	for _, sev := range models.AllSeverities {
		group := findingsWithSeverity(res.Findings, sev)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s (%d)\n", ColorSeverity(sev, opts.Colored), len(group))
		RenderTable(w, group, TableOptions{Colored: opts.Colored})
	}

	if len(res.EscalationPaths) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Privilege Escalation Paths (%d)\n", len(res.EscalationPaths))
		fmt.Fprintln(w, strings.Repeat("-", 40))
		for _, p := range res.EscalationPaths {
			line := fmt.Sprintf("  %s %s  %s  [%s]", p.PrincipalType, p.PrincipalName, p.EscalationPattern, strings.Join(p.DangerousActions, ", "))
			if len(p.IntermediateHops) > 0 {
				line += "  via " + strings.Join(p.IntermediateHops, " → ")
			}
			if p.IsException {
				line += "  (exc)"
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(res.CheckErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Checks Not Evaluated (%d)\n", len(res.CheckErrors))
		for _, ce := range res.CheckErrors {
			fmt.Fprintf(w, "  %s: %s\n", ce.RuleID, ce.Error)
		}
	}
}

// findingsWithSeverity keeps non-exception findings of sev in result order.
func findingsWithSeverity(findings []models.Finding, sev models.Severity) []models.Finding {
	var out []models.Finding
	for _, f := range findings {
		if f.Severity == sev && !f.IsException {
			out = append(out, f)
		}
	}
	return out
}
