package output

import (
	"html/template"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower":    func(s models.Severity) string { return strings.ToLower(string(s)) },
	"join":     strings.Join,
	"severity": func(m map[models.Severity]int, s models.Severity) int { return m[s] },
	"risk":     func(f models.Finding) string { return f.RiskDescription() },
}).Parse(htmlTemplate))

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Security posture report · {{.Result.AccountID}} · {{.Result.Region}}</title>
<style>
body{font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;margin:2rem;color:#1f2933}
h1{font-size:1.4rem}h2{font-size:1.1rem;margin-top:2rem}
table{border-collapse:collapse;width:100%;font-size:.85rem}
th,td{border:1px solid #d9e2ec;padding:.35rem .5rem;text-align:left;vertical-align:top}
th{background:#f0f4f8}
.sev{font-weight:600}.critical{color:#b00020}.high{color:#d64545}.medium{color:#c99a2e}.low{color:#2680c2}
.exc{color:#829ab1}
.counts span{display:inline-block;margin-right:1.5rem}
pre{white-space:pre-wrap;margin:0;font-family:inherit}
</style>
</head>
<body>
<h1>Security posture report</h1>
<p>Account <strong>{{.Result.AccountID}}</strong> · Region <strong>{{.Result.Region}}</strong> · Scan {{.Result.ScanID}} · {{.Result.AuditTimestamp.UTC.Format "2006-01-02 15:04:05 MST"}}</p>
<p class="counts"><span>Total: <strong>{{.Result.TotalFindings}}</strong></span>
{{- range .Severities}}<span class="sev {{lower .}}">{{.}}: {{severity $.Result.FindingsBySeverity .}}</span>{{end}}
{{- with .Result.ExceptionCount}}<span class="exc">Approved exceptions: {{.}}</span>{{end}}</p>

<h2>Findings</h2>
{{- if .Result.Findings}}
<table>
<tr><th>Severity</th><th>Score</th><th>Type</th><th>Resource</th><th>Risk</th><th>Remediation</th><th>Compliance</th></tr>
{{- range .Result.Findings}}
<tr{{if .IsException}} class="exc"{{end}}>
<td class="sev {{lower .Severity}}">{{.Severity}}{{if .IsException}} (exception){{end}}</td>
<td>{{.RiskScore}}</td>
<td>{{.FindingType}}</td>
<td>{{.ResourceID}}{{if and .ResourceName (ne .ResourceName .ResourceID)}}<br>{{.ResourceName}}{{end}}</td>
<td>{{risk .}}</td>
<td><pre>{{.RemediationSteps}}</pre></td>
<td>{{join .ComplianceFrameworks ", "}}</td>
</tr>
{{- end}}
</table>
{{- else}}
<p>No findings.</p>
{{- end}}

{{- if .Result.EscalationPaths}}
<h2>Privilege escalation paths</h2>
<table>
<tr><th>Principal</th><th>Pattern</th><th>Actions</th><th>Via</th><th>Description</th></tr>
{{- range .Result.EscalationPaths}}
<tr{{if .IsException}} class="exc"{{end}}>
<td>{{.PrincipalType}} {{.PrincipalName}}</td>
<td>{{.EscalationPattern}}</td>
<td>{{join .DangerousActions ", "}}</td>
<td>{{join .IntermediateHops " → "}}</td>
<td>{{.Description}}</td>
</tr>
{{- end}}
</table>
{{- end}}

{{- if .Result.CheckErrors}}
<h2>Checks not evaluated</h2>
<ul>
{{- range .Result.CheckErrors}}
<li>{{.RuleID}}: {{.Error}}</li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`

type htmlView struct {
	Result     *models.AuditResult
	Severities []models.Severity
}

// WriteHTML writes a single self-contained HTML page. All values are
// escaped by html/template.
func WriteHTML(w io.Writer, res *models.AuditResult) error {
	return htmlReport.Execute(w, htmlView{Result: res, Severities: models.AllSeverities})
}
