package snapshotfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		AccountID:   "111122223333",
		Region:      "us-east-1",
		CollectedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SecurityGroups: []models.SecurityGroup{{
			GroupID: "sg-1",
			Name:    "web",
			Inbound: []models.SecurityGroupRule{{
				Direction: models.Inbound,
				Protocol:  models.ProtocolTCP,
				FromPort:  22,
				ToPort:    22,
				Sources:   []models.Source{{Kind: models.SourceIPv4, Value: models.AnyIPv4}},
			}},
		}},
		Principals: []models.Principal{{
			Kind: models.PrincipalRole,
			Name: "deploy",
			TrustPolicy: &models.PolicyDocument{Statement: []models.Statement{{
				Effect:    models.EffectAllow,
				Principal: &models.PrincipalBlock{Wildcard: true},
				Action:    models.StringList{"sts:AssumeRole"},
			}}},
		}},
		Attachments: map[string][]models.AttachedResource{
			"sg-1": {{ResourceType: "ec2_instance", ResourceID: "i-1"}},
		},
		UnresolvedAttachments: []string{"sg-9"},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snap.json")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccountID != "111122223333" || got.Region != "us-east-1" {
		t.Errorf("scope: got %s/%s", got.AccountID, got.Region)
	}
	if len(got.SecurityGroups) != 1 || !got.SecurityGroups[0].Inbound[0].HasOpenSource() {
		t.Errorf("security groups: got %+v", got.SecurityGroups)
	}
	role, ok := got.PrincipalByName(models.PrincipalRole, "deploy")
	if !ok || role.TrustPolicy == nil || !role.TrustPolicy.Statement[0].Principal.AllowsAnyone() {
		t.Errorf("trust policy wildcard lost: got %+v", role.TrustPolicy)
	}
	if res, err := got.AttachedResources("sg-1"); err != nil || len(res) != 1 {
		t.Errorf("sg-1 attachments: got (%v, %v)", res, err)
	}
	if _, err := got.AttachedResources("sg-9"); err == nil {
		t.Error("sg-9: want unresolved attachment error")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	noAccount := filepath.Join(dir, "noaccount.json")
	noCollectedAt := filepath.Join(dir, "nocollectedat.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(noAccount, []byte(`{"region":"us-east-1"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	// A stale key that would pass unnoticed if the collection time defaulted to zero.
	undated := `{"account_id":"111122223333","region":"us-east-1","principals":[{"kind":"User","name":"bob",` +
		`"access_keys":[{"id":"AKIAOLD","active":true,"created_at":"2019-01-01T00:00:00Z"}]}]}`
	if err := os.WriteFile(noCollectedAt, []byte(undated), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.json"), bad, noAccount, noCollectedAt} {
		_, err := Load(path)
		var cerr *models.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: got %v; want ConfigurationError", filepath.Base(path), err)
		}
	}
}

type staticSource struct{ snap *models.Snapshot }

func (s staticSource) Collect(context.Context) (*models.Snapshot, error) { return s.snap, nil }

func TestRecorderAndSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	rec := Recorder{Source: staticSource{snap: sampleSnapshot()}, Path: path}
	if _, err := rec.Collect(context.Background()); err != nil {
		t.Fatalf("Recorder.Collect: %v", err)
	}

	got, err := Source{Path: path}.Collect(context.Background())
	if err != nil {
		t.Fatalf("Source.Collect: %v", err)
	}
	if got.AccountID != "111122223333" {
		t.Errorf("AccountID: got %q", got.AccountID)
	}
}

func TestSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Source{Path: "unused"}).Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v; want context.Canceled", err)
	}
}
