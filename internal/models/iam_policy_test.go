package models

import (
	"encoding/json"
	"testing"
)

func TestParsePolicyDocument_StringOrListForms(t *testing.T) {
	raw := `{
		"Version": "2012-10-17",
		"Statement": {
			"Effect": "Allow",
			"Action": "iam:CreateAccessKey",
			"Resource": ["arn:aws:iam::111122223333:user/*", "*"]
		}
	}`
	doc, err := ParsePolicyDocument(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Statement) != 1 {
		t.Fatalf("statements: got %d; want 1", len(doc.Statement))
	}
	st := doc.Statement[0]
	if len(st.Action) != 1 || st.Action[0] != "iam:CreateAccessKey" {
		t.Errorf("action: got %v; want [iam:CreateAccessKey]", st.Action)
	}
	if !st.AllResources() {
		t.Error("want AllResources() true when Resource list contains *")
	}
	if !st.IsAllow() {
		t.Error("want IsAllow() true")
	}
}

func TestParsePolicyDocument_URLEncoded(t *testing.T) {
	raw := "%7B%22Version%22%3A%222012-10-17%22%2C%22Statement%22%3A%5B%7B%22Effect%22%3A%22Deny%22%2C%22Action%22%3A%22s3%3A%2A%22%2C%22Resource%22%3A%22%2A%22%7D%5D%7D"
	doc, err := ParsePolicyDocument(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Statement) != 1 || doc.Statement[0].IsAllow() {
		t.Fatalf("want one Deny statement, got %+v", doc.Statement)
	}
	if doc.Statement[0].Action[0] != "s3:*" {
		t.Errorf("action: got %q; want s3:*", doc.Statement[0].Action[0])
	}
}

func TestParsePolicyDocument_Empty(t *testing.T) {
	doc, err := ParsePolicyDocument("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Statement) != 0 {
		t.Errorf("want no statements, got %d", len(doc.Statement))
	}
}

func TestPrincipalBlock_Forms(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		anyone bool
		aws    int
	}{
		{"wildcard string", `"*"`, true, 0},
		{"aws wildcard", `{"AWS":"*"}`, true, 1},
		{"wildcard account arn", `{"AWS":["arn:aws:iam::*:root"]}`, true, 1},
		{"single account", `{"AWS":"arn:aws:iam::444455556666:root"}`, false, 1},
		{"service", `{"Service":"lambda.amazonaws.com"}`, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p PrincipalBlock
			if err := json.Unmarshal([]byte(tc.raw), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := p.AllowsAnyone(); got != tc.anyone {
				t.Errorf("AllowsAnyone: got %v; want %v", got, tc.anyone)
			}
			if got := len(p.AWS()); got != tc.aws {
				t.Errorf("AWS(): got %d values; want %d", got, tc.aws)
			}
		})
	}
}

func TestStatement_HasConditionKey(t *testing.T) {
	st := Statement{
		Condition: map[string]map[string]any{
			"StringEquals": {"sts:externalid": "abc"},
		},
	}
	if !st.HasConditionKey("sts:ExternalId") {
		t.Error("want case-insensitive condition key match")
	}
	if st.HasConditionKey("aws:MultiFactorAuthPresent") {
		t.Error("unexpected match for absent key")
	}
}

func TestMatchAction(t *testing.T) {
	tests := []struct {
		pattern, action string
		want            bool
	}{
		{"*", "iam:CreateAccessKey", true},
		{"iam:*", "iam:CreateAccessKey", true},
		{"iam:Create*", "iam:CreateAccessKey", true},
		{"IAM:createaccesskey", "iam:CreateAccessKey", true},
		{"iam:Attach*", "iam:CreateAccessKey", false},
		{"s3:*", "iam:CreateAccessKey", false},
		{"iam:?reateAccessKey", "iam:CreateAccessKey", true},
	}
	for _, tc := range tests {
		if got := MatchAction(tc.pattern, tc.action); got != tc.want {
			t.Errorf("MatchAction(%q, %q): got %v; want %v", tc.pattern, tc.action, got, tc.want)
		}
	}
}

// ── snapshot helpers ─────────────────────────────────────────────────────────

func TestSecurityGroupRule_CoversPort(t *testing.T) {
	tests := []struct {
		name string
		rule SecurityGroupRule
		port int
		want bool
	}{
		{"single port", SecurityGroupRule{Protocol: "tcp", FromPort: 22, ToPort: 22}, 22, true},
		{"range", SecurityGroupRule{Protocol: "tcp", FromPort: 1000, ToPort: 2000}, 1433, true},
		{"outside range", SecurityGroupRule{Protocol: "tcp", FromPort: 80, ToPort: 443}, 22, false},
		{"all protocols", SecurityGroupRule{Protocol: "-1", FromPort: -1, ToPort: -1}, 3389, true},
		{"icmp type never a port", SecurityGroupRule{Protocol: "icmp", FromPort: 8, ToPort: 0}, 8, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.CoversPort(tc.port); got != tc.want {
				t.Errorf("got %v; want %v", got, tc.want)
			}
		})
	}
}

func TestSnapshot_AttachedResources(t *testing.T) {
	snap := &Snapshot{
		Attachments: map[string][]AttachedResource{
			"sg-1": {{ResourceType: "ec2_instance", ResourceID: "i-1"}},
		},
		UnresolvedAttachments: []string{"sg-2"},
	}
	got, err := snap.AttachedResources("sg-1")
	if err != nil || len(got) != 1 {
		t.Fatalf("sg-1: got %v, %v; want one resource and nil error", got, err)
	}
	if _, err := snap.AttachedResources("sg-2"); err == nil {
		t.Error("sg-2: want error for unresolved group")
	}
	got, err = snap.AttachedResources("sg-3")
	if err != nil || len(got) != 0 {
		t.Errorf("sg-3: got %v, %v; want empty and nil error", got, err)
	}
}
