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

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// ── AWS mock ──────────────────────────────────────────────────────────────────

type mockAWSProvider struct {
	profileResult *common.ProfileConfig
	profileErr    error
	regionsResult []string
	regionsErr    error
	lastProfile   string // records the profile name passed to LoadProfile
	lastRegion    string
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, profile, region string) (*common.ProfileConfig, error) {
	m.lastProfile = profile
	m.lastRegion = region
	return m.profileResult, m.profileErr
}

func (m *mockAWSProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return m.regionsResult, m.regionsErr
}

func (m *mockAWSProvider) ConfigForRegion(_ *common.ProfileConfig, _ string) aws.Config {
	return aws.Config{}
}

// ── IAM mock ──────────────────────────────────────────────────────────────────

type mockIAM struct {
	err      error
	maxItems int32
}

func (m *mockIAM) GetAccountAuthorizationDetails(_ context.Context, in *iamsvc.GetAccountAuthorizationDetailsInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetAccountAuthorizationDetailsOutput, error) {
	m.maxItems = aws.ToInt32(in.MaxItems)
	return &iamsvc.GetAccountAuthorizationDetailsOutput{}, m.err
}

func (m *mockIAM) client(aws.Config) authDetailsAPI { return m }

// ── helpers ───────────────────────────────────────────────────────────────────

func goodMockAWS() *mockAWSProvider {
	return &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			AccountID: "123456789012",
			Region:    "us-east-1",
		},
		regionsResult: []string{"us-east-1", "eu-west-1"},
	}
}

// runDoctorWithPolicy runs runDoctor against a policy path inside a fresh
// temp directory. policy is written there unless it is empty.
func runDoctorWithPolicy(t *testing.T, awsP common.AWSClientProvider, format, profile, policy string) (string, DoctorResult, error) {
	t.Helper()
	return runDoctorWithIAM(t, awsP, &mockIAM{}, format, profile, policy)
}

func runDoctorWithIAM(t *testing.T, awsP common.AWSClientProvider, iamP *mockIAM, format, profile, policy string) (string, DoctorResult, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), defaultPolicyFile)
	if policy != "" {
		if err := os.WriteFile(path, []byte(policy), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	result, err := runDoctor(context.Background(), awsP, iamP.client, &buf, format, profile, path)
	return buf.String(), result, err
}

// ── table format tests ────────────────────────────────────────────────────────

func TestDoctorAllOK(t *testing.T) {
	out, result, err := runDoctorWithPolicy(t, goodMockAWS(), "table", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Error("expected OverallHealthy=true")
	}
	for _, want := range []string{
		"Credentials: OK",
		"STS Identity: OK (Account: 123456789012)",
		"Default Region: OK (us-east-1)",
		"Regions API: OK",
		"IAM Read: OK",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
}

func TestDoctorAWSCredentialsFail(t *testing.T) {
	awsP := &mockAWSProvider{profileErr: errors.New("no credentials configured")}
	out, result, err := runDoctorWithPolicy(t, awsP, "table", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, "Credentials: FAIL (no credentials configured)") {
		t.Errorf("expected 'Credentials: FAIL'; got:\n%s", out)
	}
	for _, want := range []string{"Regions API: FAIL (skipped)", "IAM Read: FAIL (skipped)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q; got:\n%s", want, out)
		}
	}
}

func TestDoctorAWSRegionsFail(t *testing.T) {
	awsP := &mockAWSProvider{
		profileResult: &common.ProfileConfig{AccountID: "111111111111", Region: "us-east-1"},
		regionsErr:    errors.New("EC2 API error"),
	}
	out, result, err := runDoctorWithPolicy(t, awsP, "table", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, "Credentials: OK") {
		t.Errorf("expected 'Credentials: OK'; got:\n%s", out)
	}
	if !strings.Contains(out, "Regions API: FAIL") {
		t.Errorf("expected 'Regions API: FAIL'; got:\n%s", out)
	}
}

func TestDoctorIAMReadDenied(t *testing.T) {
	iamP := &mockIAM{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}}
	out, result, err := runDoctorWithIAM(t, goodMockAWS(), iamP, "table", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false when authorization details are denied")
	}
	if !result.AWS.RegionsOK {
		t.Error("regions check must be independent of the IAM check")
	}
	if !strings.Contains(out, "IAM Read: FAIL (iam:GetAccountAuthorizationDetails denied)") {
		t.Errorf("expected IAM Read FAIL line; got:\n%s", out)
	}
	if iamP.maxItems != 1 {
		t.Errorf("MaxItems: got %d; want a single-item page", iamP.maxItems)
	}
}

func TestDoctorIAMReadOtherError(t *testing.T) {
	iamP := &mockIAM{err: errors.New("connection reset")}
	_, result, err := runDoctorWithIAM(t, goodMockAWS(), iamP, "json", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if result.AWS.IAMReadOK || result.AWS.IAMError != "connection reset" {
		t.Errorf("IAM check: got ok=%v err=%q", result.AWS.IAMReadOK, result.AWS.IAMError)
	}
}

func TestDoctorPolicyMissing(t *testing.T) {
	out, result, err := runDoctorWithPolicy(t, goodMockAWS(), "table", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Error("expected OverallHealthy=true (missing policy is not a failure)")
	}
	if !strings.Contains(out, "Not found (optional)") {
		t.Errorf("expected 'Not found (optional)'; got:\n%s", out)
	}
}

func TestDoctorPolicyValid(t *testing.T) {
	out, result, err := runDoctorWithPolicy(t, goodMockAWS(), "table", "", "version: 1\n")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Error("expected OverallHealthy=true")
	}
	if !strings.Contains(out, "posture.yaml present: YES") {
		t.Errorf("expected 'posture.yaml present: YES'; got:\n%s", out)
	}
	if !strings.Contains(out, "Policy valid: OK") {
		t.Errorf("expected 'Policy valid: OK'; got:\n%s", out)
	}
}

func TestDoctorPolicyInvalid(t *testing.T) {
	tests := []struct {
		name   string
		policy string
	}{
		{"unsupported version", "version: 99\n"},
		{"unknown rule", "version: 1\nrules:\n  NOT_A_RULE:\n    enabled: false\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, result, err := runDoctorWithPolicy(t, goodMockAWS(), "table", "", tt.policy)
			if err != nil {
				t.Fatalf("unexpected render error: %v", err)
			}
			if result.OverallHealthy {
				t.Error("expected OverallHealthy=false for invalid policy")
			}
			if !strings.Contains(out, "Policy valid: FAIL") {
				t.Errorf("expected 'Policy valid: FAIL'; got:\n%s", out)
			}
		})
	}
}

// ── JSON format tests ─────────────────────────────────────────────────────────

func TestDoctorJSON_AllOK(t *testing.T) {
	out, result, err := runDoctorWithPolicy(t, goodMockAWS(), "json", "", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Error("expected OverallHealthy=true")
	}

	var parsed DoctorResult
	if jsonErr := json.Unmarshal([]byte(out), &parsed); jsonErr != nil {
		t.Fatalf("invalid JSON output: %v\nraw:\n%s", jsonErr, out)
	}
	if !parsed.AWS.Credentials {
		t.Error("expected AWS.Credentials=true")
	}
	if parsed.AWS.AccountID != "123456789012" {
		t.Errorf("expected AccountID=123456789012; got %q", parsed.AWS.AccountID)
	}
	if !parsed.AWS.RegionsOK {
		t.Error("expected AWS.RegionsOK=true")
	}
	if !parsed.AWS.IAMReadOK {
		t.Error("expected AWS.IAMReadOK=true")
	}
	if parsed.Policy.Present {
		t.Error("expected Policy.Present=false")
	}
	if !parsed.OverallHealthy {
		t.Error("expected OverallHealthy=true")
	}
}

// TestDoctorJSON_Failure verifies that an unhealthy environment still renders
// as a single JSON document and is not reported as an error.
func TestDoctorJSON_Failure(t *testing.T) {
	awsP := &mockAWSProvider{profileErr: errors.New("no credentials configured")}
	out, result, err := runDoctorWithPolicy(t, awsP, "json", "", "")
	if err != nil {
		t.Fatalf("runDoctor must not return error for unhealthy result; got: %v", err)
	}
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}

	var parsed DoctorResult
	if jsonErr := json.Unmarshal([]byte(out), &parsed); jsonErr != nil {
		t.Fatalf("invalid JSON output: %v\nraw:\n%s", jsonErr, out)
	}
	if parsed.AWS.Error == "" {
		t.Error("expected AWS.Error to be non-empty")
	}

	want, _ := json.Marshal(result)
	if strings.TrimSpace(out) != string(want) {
		t.Errorf("JSON output has unexpected trailing content;\ngot:  %q\nwant: %q",
			strings.TrimSpace(out), string(want))
	}
	for _, noisy := range []string{"Error:", "Usage:"} {
		if strings.Contains(out, noisy) {
			t.Errorf("cobra noise %q must not appear in JSON output; got:\n%s", noisy, out)
		}
	}
}

func TestDoctorCmd_CobraCleanOutput(t *testing.T) {
	cmd := newDoctorCmd()
	if !cmd.SilenceErrors {
		t.Error("doctor command must have SilenceErrors=true")
	}
	if !cmd.SilenceUsage {
		t.Error("doctor command must have SilenceUsage=true")
	}
	if got, _ := cmd.Flags().GetString("policy"); got != defaultPolicyFile {
		t.Errorf("--policy default: got %q; want %q", got, defaultPolicyFile)
	}
}

// ── profile flag tests ────────────────────────────────────────────────────────

func TestDoctorProfile_Success(t *testing.T) {
	awsP := &mockAWSProvider{
		profileResult: &common.ProfileConfig{AccountID: "999999999999", Region: "eu-west-1"},
		regionsResult: []string{"eu-west-1"},
	}
	out, result, err := runDoctorWithPolicy(t, awsP, "table", "prod", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Error("expected OverallHealthy=true")
	}
	if result.AWS.Profile != "prod" {
		t.Errorf("expected AWS.Profile=prod; got %q", result.AWS.Profile)
	}
	if awsP.lastProfile != "prod" {
		t.Errorf("LoadProfile called with %q; want prod", awsP.lastProfile)
	}
	if awsP.lastRegion != "" {
		t.Errorf("LoadProfile region: got %q; want profile default", awsP.lastRegion)
	}
	if !strings.Contains(out, "AWS (profile: prod):") {
		t.Errorf("expected profile header; got:\n%s", out)
	}
}

func TestDoctorProfile_JSON(t *testing.T) {
	awsP := &mockAWSProvider{
		profileResult: &common.ProfileConfig{AccountID: "555555555555", Region: "ap-southeast-1"},
		regionsResult: []string{"ap-southeast-1"},
	}
	out, result, err := runDoctorWithPolicy(t, awsP, "json", "staging", "")
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if result.AWS.Profile != "staging" {
		t.Errorf("expected AWS.Profile=staging; got %q", result.AWS.Profile)
	}

	var parsed DoctorResult
	if jsonErr := json.Unmarshal([]byte(out), &parsed); jsonErr != nil {
		t.Fatalf("invalid JSON: %v\nraw:\n%s", jsonErr, out)
	}
	if parsed.AWS.Profile != "staging" {
		t.Errorf("JSON aws.profile: expected staging; got %q", parsed.AWS.Profile)
	}
	if parsed.AWS.Region != "ap-southeast-1" {
		t.Errorf("JSON aws.region: expected ap-southeast-1; got %q", parsed.AWS.Region)
	}
}
