package policy

import (
	"testing"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestApplyPolicy_DomainDisabled(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			DomainNetwork: {Enabled: boolPtr(false)},
		},
	}
	findings := []models.Finding{{RuleID: "SG_UNRESTRICTED_INBOUND"}}

	result := ApplyPolicy(findings, DomainNetwork, cfg)
	if len(result) != 0 {
		t.Fatalf("want all network findings dropped, got %d", len(result))
	}
}

func TestApplyPolicy_OtherDomainUnaffected(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			DomainNetwork: {Enabled: boolPtr(false)},
		},
	}
	findings := []models.Finding{{RuleID: "IAM_USER_NO_MFA"}}

	if got := ApplyPolicy(findings, DomainIAM, cfg); len(got) != 1 {
		t.Fatalf("iam findings: got %d; want 1", len(got))
	}
}

func TestApplyPolicy_RuleDisabled(t *testing.T) {
	cfg := &PolicyConfig{
		Rules: map[string]RuleConfig{
			"SG_MISSING_DESCRIPTIONS": {Enabled: boolPtr(false)},
		},
	}
	findings := []models.Finding{
		{RuleID: "SG_MISSING_DESCRIPTIONS"},
		{RuleID: "SG_UNNECESSARY_ICMP"},
	}

	result := ApplyPolicy(findings, DomainNetwork, cfg)
	if len(result) != 1 {
		t.Fatalf("want one finding remaining, got %d", len(result))
	}
	if result[0].RuleID != "SG_UNNECESSARY_ICMP" {
		t.Errorf("kept %q; want SG_UNNECESSARY_ICMP", result[0].RuleID)
	}
}

func TestApplyPolicy_SeverityOverride(t *testing.T) {
	cfg := &PolicyConfig{
		Rules: map[string]RuleConfig{
			"IAM_MIXED_POLICY_TYPES": {Severity: "medium"},
		},
	}
	findings := []models.Finding{{RuleID: "IAM_MIXED_POLICY_TYPES", Severity: models.SeverityLow}}

	result := ApplyPolicy(findings, DomainIAM, cfg)
	if result[0].Severity != models.SeverityMedium {
		t.Fatalf("severity: got %q; want MEDIUM", result[0].Severity)
	}
}

func TestApplyPolicy_InvalidSeverityOverrideIgnored(t *testing.T) {
	cfg := &PolicyConfig{
		Rules: map[string]RuleConfig{
			"IAM_MIXED_POLICY_TYPES": {Severity: "urgent"},
		},
	}
	findings := []models.Finding{{RuleID: "IAM_MIXED_POLICY_TYPES", Severity: models.SeverityLow}}

	result := ApplyPolicy(findings, DomainIAM, cfg)
	if result[0].Severity != models.SeverityLow {
		t.Fatalf("severity: got %q; want LOW unchanged", result[0].Severity)
	}
}

func TestApplyPolicy_NoPolicy(t *testing.T) {
	findings := []models.Finding{{RuleID: "SG_UNNECESSARY_ICMP"}}
	if got := ApplyPolicy(findings, DomainNetwork, nil); len(got) != 1 {
		t.Fatalf("nil policy should not modify findings")
	}
}

// ── min_severity ──────────────────────────────────────────────────────────────

func TestApplyPolicy_MinSeverityHigh(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			DomainNetwork: {Enabled: boolPtr(true), MinSeverity: "high"},
		},
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityCritical},
		{RuleID: "B", Severity: models.SeverityHigh},
		{RuleID: "C", Severity: models.SeverityMedium},
		{RuleID: "D", Severity: models.SeverityLow},
	}
	result := ApplyPolicy(findings, DomainNetwork, cfg)
	if len(result) != 2 {
		t.Fatalf("want 2 findings (CRITICAL + HIGH), got %d", len(result))
	}
	for _, f := range result {
		if f.Severity != models.SeverityCritical && f.Severity != models.SeverityHigh {
			t.Errorf("unexpected severity %q survived min_severity=HIGH", f.Severity)
		}
	}
}

func TestApplyPolicy_SeverityOverrideThenMinSeverity(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			DomainIAM: {Enabled: boolPtr(true), MinSeverity: "HIGH"},
		},
		Rules: map[string]RuleConfig{
			"IAM_OLD_ACCESS_KEY": {Severity: "CRITICAL"},
		},
	}
	findings := []models.Finding{
		{RuleID: "IAM_OLD_ACCESS_KEY", Severity: models.SeverityMedium},
		{RuleID: "IAM_MIXED_POLICY_TYPES", Severity: models.SeverityLow},
	}
	result := ApplyPolicy(findings, DomainIAM, cfg)
	if len(result) != 1 {
		t.Fatalf("want 1 finding after override + min_severity, got %d", len(result))
	}
	if result[0].RuleID != "IAM_OLD_ACCESS_KEY" || result[0].Severity != models.SeverityCritical {
		t.Errorf("got %s/%s; want IAM_OLD_ACCESS_KEY/CRITICAL", result[0].RuleID, result[0].Severity)
	}
}

func TestApplyPolicy_MinSeverityOnlyKeepsDomainOn(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{DomainNetwork: {MinSeverity: "HIGH"}},
	}
	if !DomainEnabled(DomainNetwork, cfg) {
		t.Fatal("domain with only min_severity must stay enabled")
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityCritical},
		{RuleID: "B", Severity: models.SeverityHigh},
		{RuleID: "C", Severity: models.SeverityMedium},
	}
	if got := ApplyPolicy(findings, DomainNetwork, cfg); len(got) != 2 {
		t.Errorf("want CRITICAL + HIGH, got %d findings", len(got))
	}
}

func TestApplyPolicy_MinSeverityInvalidValue(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			DomainNetwork: {Enabled: boolPtr(true), MinSeverity: "BOGUS"},
		},
	}
	findings := []models.Finding{{RuleID: "A", Severity: models.SeverityLow}}
	if got := ApplyPolicy(findings, DomainNetwork, cfg); len(got) != 1 {
		t.Fatalf("invalid min_severity must not filter; got %d", len(got))
	}
}

// ── evaluation gates ──────────────────────────────────────────────────────────

func TestDomainEnabled(t *testing.T) {
	cfg := &PolicyConfig{Domains: map[string]DomainConfig{DomainIAM: {Enabled: boolPtr(false)}}}
	if DomainEnabled(DomainIAM, cfg) {
		t.Error("iam: want disabled")
	}
	if !DomainEnabled(DomainNetwork, cfg) {
		t.Error("network: absent domain must default to enabled")
	}
	if !DomainEnabled(DomainIAM, nil) {
		t.Error("nil cfg: want enabled")
	}
}

func TestRuleEnabled(t *testing.T) {
	cfg := &PolicyConfig{Rules: map[string]RuleConfig{
		"OFF":  {Enabled: boolPtr(false)},
		"ON":   {Enabled: boolPtr(true)},
		"BARE": {Severity: "LOW"},
	}}
	for id, want := range map[string]bool{"OFF": false, "ON": true, "BARE": true, "ABSENT": true} {
		if got := RuleEnabled(id, cfg); got != want {
			t.Errorf("RuleEnabled(%s): got %v; want %v", id, got, want)
		}
	}
}
