package output_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/output"
)

func sampleResult() *models.AuditResult {
	exc := oneFinding(func(f *models.Finding) {
		f.ID = "exc-1"
		f.Severity = models.SeverityHigh
		f.IsException = true
		f.ResourceID = "sg-approved"
		f.ResourceName = "approved"
	})
	low := oneFinding(func(f *models.Finding) {
		f.ID = "low-1"
		f.FindingType = models.FindingMissingDescriptions
		f.Severity = models.SeverityLow
		f.RiskScore = 1
		f.ComplianceFrameworks = []string{}
	}, withRisk(`rule has no description, "quoted", <b>bold</b>`))

	return &models.AuditResult{
		ScanID:         "3f1c2f4e-0000-4000-8000-000000000001",
		AuditTimestamp: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		Region:         "us-east-1",
		AccountID:      "111122223333",
		TotalFindings:  2,
		FindingsBySeverity: map[models.Severity]int{
			models.SeverityCritical: 1,
			models.SeverityHigh:     0,
			models.SeverityMedium:   0,
			models.SeverityLow:      1,
		},
		Findings: []models.Finding{oneFinding(), exc, low},
		EscalationPaths: []models.EscalationPath{{
			PrincipalName:     "bob",
			PrincipalType:     models.ResourceUser,
			EscalationPattern: "create_access_key",
			Description:       "Create access keys for any user.",
			DangerousActions:  []string{"iam:CreateAccessKey"},
			IntermediateHops:  []string{"group:devs"},
		}},
		Recommendations: []models.Recommendation{},
		CheckErrors:     []models.CheckError{{RuleID: "BROKEN_RULE", Error: "panic: boom"}},
		State:           models.ScanDone,
	}
}

// ── console ───────────────────────────────────────────────────────────────────

func TestRenderConsole(t *testing.T) {
	var buf bytes.Buffer
	output.RenderConsole(&buf, sampleResult(), output.ConsoleOptions{})
	out := buf.String()

	for _, want := range []string{
		"Account: 111122223333",
		"Total Findings:  2",
		"(+1 approved exceptions)",
		"CRITICAL (1)",
		"LOW (1)",
		"Privilege Escalation Paths (1)",
		"User bob  create_access_key  [iam:CreateAccessKey]  via group:devs",
		"Checks Not Evaluated (1)",
		"BROKEN_RULE: panic: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "HIGH (") {
		t.Errorf("severity group with only exceptions must be omitted\ngot:\n%s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("no ANSI codes expected when Colored=false")
	}
	if strings.Index(out, "CRITICAL (1)") > strings.Index(out, "LOW (1)") {
		t.Error("severity groups must be ordered CRITICAL first")
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if output.IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestWriteJSON_Keys(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{
		"scan_id", "audit_timestamp", "region", "account_id", "total_findings",
		"findings_by_severity", "findings", "privilege_escalation_paths", "recommendations",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("JSON missing key %q", key)
		}
	}
	counts, _ := got["findings_by_severity"].(map[string]any)
	for _, sev := range []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"} {
		if _, ok := counts[sev]; !ok {
			t.Errorf("findings_by_severity missing %s", sev)
		}
	}
}

// ── CSV ───────────────────────────────────────────────────────────────────────

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rows: got %d; want header + 3", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(output.CSVHeader, ",") {
		t.Errorf("header: got %v", records[0])
	}

	first := records[1]
	if first[0] != "management_port_exposure" || first[1] != "CRITICAL" || first[2] != "sg-0123456789abcdef0" {
		t.Errorf("row 1 identity: got %v", first)
	}
	if first[5] != "CIS AWS Foundations: 5.2; PCI-DSS: 1.2.1" {
		t.Errorf("compliance column: got %q", first[5])
	}
	if first[6] != "10" || first[7] != "false" {
		t.Errorf("score/exception: got %q/%q", first[6], first[7])
	}
	if records[2][7] != "true" {
		t.Errorf("exception row: got is_exception=%q", records[2][7])
	}
	if records[3][3] != `rule has no description, "quoted", <b>bold</b>` {
		t.Errorf("quoted field round-trip: got %q", records[3][3])
	}
}

// ── HTML ──────────────────────────────────────────────────────────────────────

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteHTML(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"111122223333",
		"management_port_exposure",
		"Privilege escalation paths",
		"create_access_key",
		"BROKEN_RULE",
		"Approved exceptions: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(out, "<b>bold</b>") {
		t.Error("finding text must be HTML-escaped")
	}
}

// ── formats ───────────────────────────────────────────────────────────────────

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []output.Format
		wantErr bool
	}{
		{"json", []output.Format{output.FormatJSON}, false},
		{"CSV, html", []output.Format{output.FormatCSV, output.FormatHTML}, false},
		{"all", output.AllFormats, false},
		{"json,all", output.AllFormats, false},
		{"console,console", []output.Format{output.FormatConsole}, false},
		{"xml", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := output.ParseFormats(tt.in)
			if tt.wantErr {
				var cerr *models.ConfigurationError
				if !errors.As(err, &cerr) {
					t.Fatalf("error: got %v; want ConfigurationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v; want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d]: got %q; want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// ── WriteAll ──────────────────────────────────────────────────────────────────

func TestWriteAll_WritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	wr := output.Writer{OutDir: dir, Stdout: &stdout}

	res := sampleResult()
	paths, err := wr.WriteAll(res, output.AllFormats)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("files: got %v; want json, csv, html", paths)
	}
	for _, f := range []output.Format{output.FormatJSON, output.FormatCSV, output.FormatHTML} {
		path := filepath.Join(dir, output.FileName(res, f))
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s: missing or empty (%v)", path, err)
		}
	}
	if !strings.Contains(stdout.String(), "Total Findings") {
		t.Errorf("console output missing\ngot:\n%s", stdout.String())
	}
	if want := "posture-111122223333-us-east-1-20250301T123000Z.json"; output.FileName(res, output.FormatJSON) != want {
		t.Errorf("FileName: got %q; want %q", output.FileName(res, output.FormatJSON), want)
	}
}

func TestWriteAll_FailingWriterDoesNotStopOthers(t *testing.T) {
	// A regular file where the output directory should be makes every
	// file format fail; the console format must still be written.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	wr := output.Writer{OutDir: blocker, Stdout: &stdout}

	paths, err := wr.WriteAll(sampleResult(), []output.Format{output.FormatJSON, output.FormatConsole, output.FormatHTML})
	if err == nil {
		t.Fatal("want joined error")
	}
	if len(paths) != 0 {
		t.Errorf("paths: got %v; want none", paths)
	}
	var oerr *models.OutputError
	if !errors.As(err, &oerr) || oerr.Format != "json" {
		t.Errorf("error: got %v; want OutputError for json first", err)
	}
	if !strings.Contains(err.Error(), "write html report") {
		t.Errorf("error must include html failure: %v", err)
	}
	if !strings.Contains(stdout.String(), "Total Findings") {
		t.Error("console must still be rendered")
	}
}
