package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/config"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/output"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/snapshotfile"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// scanSnapshot has one security group with SSH open to the internet, a user
// able to mint access keys for others, and no password policy.
func scanSnapshot() *models.Snapshot {
	return &models.Snapshot{
		AccountID:   "111122223333",
		Region:      "us-east-1",
		CollectedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SecurityGroups: []models.SecurityGroup{{
			GroupID: "sg-0123",
			Name:    "bastion",
			VPCID:   "vpc-1",
			Region:  "us-east-1",
			Tags:    map[string]string{"env": "dev"},
			Inbound: []models.SecurityGroupRule{{
				Direction: models.Inbound,
				Protocol:  models.ProtocolTCP,
				FromPort:  22,
				ToPort:    22,
				Sources:   []models.Source{{Kind: models.SourceIPv4, Value: models.AnyIPv4}},
			}},
		}},
		Principals: []models.Principal{{
			Kind: models.PrincipalUser,
			Name: "bob",
			ARN:  "arn:aws:iam::111122223333:user/bob",
			InlinePolicies: []models.InlinePolicy{{
				Name: "keys",
				Document: models.PolicyDocument{Statement: []models.Statement{{
					Effect:   models.EffectAllow,
					Action:   models.StringList{"iam:CreateAccessKey"},
					Resource: models.StringList{"*"},
				}}},
			}},
		}},
		Attachments: map[string][]models.AttachedResource{
			"sg-0123": {{ResourceType: "ec2_instance", ResourceID: "i-1"}},
		},
	}
}

// writeSnapshot saves scanSnapshot into dir and returns its path.
func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "snap.json")
	if err := snapshotfile.Save(path, scanSnapshot()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testDeps returns scan dependencies with no app config file.
func testDeps(t *testing.T, stdout *bytes.Buffer) scanDeps {
	t.Helper()
	return scanDeps{
		provider: goodMockAWS(),
		loader:   &config.FileLoader{Path: filepath.Join(t.TempDir(), "absent.yaml")},
		stdout:   stdout,
	}
}

func hasRule(findings []models.Finding, ruleID string) bool {
	for _, f := range findings {
		if f.RuleID == ruleID {
			return true
		}
	}
	return false
}

// ── scan ─────────────────────────────────────────────────────────────────────

func TestRunScan_SnapshotFile(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := scanFlags{
		snapshot: writeSnapshot(t, dir),
		output:   "json,console",
		outDir:   filepath.Join(dir, "reports"),
	}

	res, err := runScan(context.Background(), f, testDeps(t, &stdout))
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}
	if res.AccountID != "111122223333" {
		t.Errorf("AccountID: got %q; want 111122223333", res.AccountID)
	}
	for _, id := range []string{"SG_MANAGEMENT_PORT_EXPOSURE", "SG_UNRESTRICTED_INBOUND", "IAM_WEAK_PASSWORD_POLICY"} {
		if !hasRule(res.Findings, id) {
			t.Errorf("findings: missing %s", id)
		}
	}
	if len(res.EscalationPaths) == 0 || res.EscalationPaths[0].PrincipalName != "bob" {
		t.Errorf("escalation paths: got %+v; want a path for bob", res.EscalationPaths)
	}
	if res.State != models.ScanDone {
		t.Errorf("State: got %q; want Done", res.State)
	}

	if !strings.Contains(stdout.String(), "Account: 111122223333") {
		t.Errorf("console output missing header;\ngot:\n%s", stdout.String())
	}
	jsonPath := filepath.Join(f.outDir, output.FileName(res, output.FormatJSON))
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("json report not written: %v", err)
	}
}

func TestRunScan_ExcludeTag(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := scanFlags{
		snapshot:    writeSnapshot(t, dir),
		output:      "console",
		excludeTags: []string{"env=dev"},
	}

	res, err := runScan(context.Background(), f, testDeps(t, &stdout))
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}
	for _, fd := range res.Findings {
		if fd.ResourceID == "sg-0123" {
			t.Errorf("excluded group produced finding %s", fd.RuleID)
		}
	}
}

func TestRunScan_PolicyDisablesNetwork(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	policyPath := writeFile(t, dir, "posture.yaml", "version: 1\ndomains:\n  network:\n    enabled: false\n")
	f := scanFlags{snapshot: writeSnapshot(t, dir), output: "console", policyPath: policyPath}

	res, err := runScan(context.Background(), f, testDeps(t, &stdout))
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}
	for _, fd := range res.Findings {
		if fd.ResourceType == models.ResourceSecurityGroup {
			t.Errorf("network domain disabled but got %s", fd.RuleID)
		}
	}
	if !hasRule(res.Findings, "IAM_WEAK_PASSWORD_POLICY") {
		t.Error("iam domain must still run")
	}
}

func TestRunScan_AppConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cfgPath := writeFile(t, dir, "config.yaml", "output:\n  formats: csv\n  dir: "+outDir+"\n")
	var stdout bytes.Buffer
	deps := testDeps(t, &stdout)
	deps.loader = &config.FileLoader{Path: cfgPath}

	res, err := runScan(context.Background(), scanFlags{snapshot: writeSnapshot(t, dir)}, deps)
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, output.FileName(res, output.FormatCSV))); err != nil {
		t.Errorf("csv report not written to configured dir: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("console output not requested; got:\n%s", stdout.String())
	}
}

func TestRunScan_SaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "copy", "snap.json")
	var stdout bytes.Buffer
	f := scanFlags{snapshot: writeSnapshot(t, dir), saveSnapshot: saved, output: "console"}

	if _, err := runScan(context.Background(), f, testDeps(t, &stdout)); err != nil {
		t.Fatalf("runScan: %v", err)
	}
	snap, err := snapshotfile.Load(saved)
	if err != nil {
		t.Fatalf("load saved snapshot: %v", err)
	}
	if len(snap.SecurityGroups) != 1 {
		t.Errorf("saved snapshot groups: got %d; want 1", len(snap.SecurityGroups))
	}
}

func TestRunScan_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	snap := writeSnapshot(t, dir)
	badPolicy := writeFile(t, dir, "bad.yaml", "version: 1\nrules:\n  NOT_A_RULE:\n    severity: HIGH\n")

	tests := []struct {
		name string
		f    scanFlags
	}{
		{"unknown output", scanFlags{snapshot: snap, output: "pdf"}},
		{"malformed exclude tag", scanFlags{snapshot: snap, excludeTags: []string{"novalue"}}},
		{"invalid policy", scanFlags{snapshot: snap, policyPath: badPolicy}},
		{"missing policy", scanFlags{snapshot: snap, policyPath: filepath.Join(dir, "none.yaml")}},
		{"missing snapshot", scanFlags{snapshot: filepath.Join(dir, "none.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			_, err := runScan(context.Background(), tt.f, testDeps(t, &stdout))
			var cfgErr *models.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error: got %v; want ConfigurationError", err)
			}
			if exitCode(err) != exitConfigFailed {
				t.Errorf("exitCode: got %d; want %d", exitCode(err), exitConfigFailed)
			}
		})
	}
}

func TestRunScan_ProfileLoadFails(t *testing.T) {
	awsP := &mockAWSProvider{profileErr: &models.CollectionError{Op: "resolve account id", Err: errors.New("expired token")}}
	var stdout bytes.Buffer
	deps := testDeps(t, &stdout)
	deps.provider = awsP

	_, err := runScan(context.Background(), scanFlags{profile: "prod", region: "eu-west-1"}, deps)
	if err == nil {
		t.Fatal("want error when credentials fail")
	}
	if exitCode(err) != exitFailure {
		t.Errorf("exitCode: got %d; want %d", exitCode(err), exitFailure)
	}
	if awsP.lastProfile != "prod" || awsP.lastRegion != "eu-west-1" {
		t.Errorf("LoadProfile args: got (%q, %q); want (prod, eu-west-1)", awsP.lastProfile, awsP.lastRegion)
	}
}

func TestRunScan_UnknownRegion(t *testing.T) {
	var stdout bytes.Buffer
	deps := testDeps(t, &stdout)

	_, err := runScan(context.Background(), scanFlags{region: "mars-north-1"}, deps)
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "region" {
		t.Fatalf("error: got %v; want region ConfigurationError", err)
	}
}

// ── policy validate ──────────────────────────────────────────────────────────

func TestPolicyValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "version: 1\nrules:\n  IAM_OLD_ACCESS_KEY:\n    params:\n      max_key_age_days: 30\n")
	bad := writeFile(t, dir, "bad.yaml", "version: 1\ndomains:\n  cost:\n    enabled: true\nrules:\n  SG_ALL_TRAFFIC:\n    severity: URGENT\n")

	var out bytes.Buffer
	if err := runPolicyValidate(&out, good); err != nil {
		t.Fatalf("valid policy: %v", err)
	}
	if !strings.Contains(out.String(), "OK") {
		t.Errorf("valid output: got %q", out.String())
	}

	out.Reset()
	err := runPolicyValidate(&out, bad)
	if exitCode(err) != exitConfigFailed {
		t.Fatalf("invalid policy error: got %v", err)
	}
	for _, want := range []string{"domains.cost", "rules.SG_ALL_TRAFFIC.severity"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out.String())
		}
	}
}

// ── explain ──────────────────────────────────────────────────────────────────

func writeReport(t *testing.T, dir string) string {
	t.Helper()
	var stdout bytes.Buffer
	f := scanFlags{snapshot: writeSnapshot(t, dir), output: "json", outDir: dir}
	res, err := runScan(context.Background(), f, testDeps(t, &stdout))
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}
	return filepath.Join(dir, output.FileName(res, output.FormatJSON))
}

func TestRunExplain_Table(t *testing.T) {
	report := writeReport(t, t.TempDir())

	var out bytes.Buffer
	if err := runExplain(&out, report, "bob", "table"); err != nil {
		t.Fatalf("runExplain: %v", err)
	}
	for _, want := range []string{"PRINCIPAL bob (User)", "create_access_key", "iam:CreateAccessKey"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out.String())
		}
	}
}

func TestRunExplain_JSONUnknownPrincipal(t *testing.T) {
	report := writeReport(t, t.TempDir())

	var out bytes.Buffer
	if err := runExplain(&out, report, "nobody", "json"); err != nil {
		t.Fatalf("runExplain: %v", err)
	}
	var parsed map[string]string
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if parsed["error"] != "No escalation paths found for principal nobody" {
		t.Errorf("error: got %q", parsed["error"])
	}
}

func TestRunExplain_BadReport(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "report.json", "{not json")

	var out bytes.Buffer
	if err := runExplain(&out, bad, "bob", "table"); exitCode(err) != exitConfigFailed {
		t.Errorf("malformed report: got %v; want ConfigurationError", err)
	}
	if err := runExplain(&out, filepath.Join(dir, "none.json"), "bob", "table"); exitCode(err) != exitConfigFailed {
		t.Errorf("missing report: got %v; want ConfigurationError", err)
	}
}

// ── exit codes ───────────────────────────────────────────────────────────────

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"configuration", &models.ConfigurationError{Field: "output", Err: errors.New("x")}, exitConfigFailed},
		{"wrapped configuration", errors.Join(errors.New("a"), &models.ConfigurationError{Err: errors.New("x")}), exitConfigFailed},
		{"collection", &models.CollectionError{Op: "list", Err: errors.New("x")}, exitFailure},
		{"plain", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: got %d; want %d", tt.name, got, tt.want)
		}
	}
}

func TestAllRuleIDs_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range allRuleIDs() {
		if seen[id] {
			t.Errorf("duplicate rule ID %s", id)
		}
		seen[id] = true
	}
	if len(seen) == 0 {
		t.Error("no rule IDs")
	}
}
