package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
	ansiDim     = "\033[2m"
)

// TableOptions controls which columns RenderTable renders and how severity is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeRegion adds a REGION column.
	IncludeRegion bool

	// IncludeExceptions keeps approved exceptions in the table, marked "(exc)".
	IncludeExceptions bool
}

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	default:
		return ""
	}
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	code := severityColor(sev)
	if !colored || code == "" {
		return s
	}
	return code + s + ansiReset
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityColor(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-char ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderTable writes a formatted findings table to w.
// Columns are dynamically selected based on opts; the separator line width is
// derived from the header row so all rows align correctly.
//
// Column order:
//
//	SEVERITY  SCORE  RESOURCE  [REGION]  TYPE  RISK
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	rows := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		if f.IsException && !opts.IncludeExceptions {
			continue
		}
		rows = append(rows, f)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wSeverity = 10
		wScore    = 5
		wResource = 34
		wRegion   = 14
		wType     = 30
		wRisk     = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wSeverity, "SEVERITY"))
	hb.WriteString(fmt.Sprintf("  %-*s", wScore, "SCORE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wResource, "RESOURCE"))
	if opts.IncludeRegion {
		hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wType, "TYPE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRisk, "RISK"))
	header := strings.TrimRight(hb.String(), " ")

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range rows {
		resource := f.ResourceName
		if resource == "" {
			resource = f.ResourceID
		}
		if f.IsException {
			resource += " (exc)"
		}

		var rb strings.Builder
		rb.WriteString(severityCell(f.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*d", wScore, f.RiskScore))
		rb.WriteString(fmt.Sprintf("  %-*s", wResource, truncateField(resource, wResource)))
		if opts.IncludeRegion {
			rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(f.Region, wRegion)))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wType, truncateField(string(f.FindingType), wType)))
		rb.WriteString("  " + ShortenMessage(f.RiskDescription(), wRisk))
		fmt.Fprintln(w, rb.String())
	}
}
