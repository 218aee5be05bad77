package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/exclusion"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

// SnapshotSource produces the snapshot a scan evaluates. The AWS collector
// and the snapshot file loader both implement it.
type SnapshotSource interface {
	Collect(ctx context.Context) (*models.Snapshot, error)
}

// StaticSource serves an already-built snapshot.
type StaticSource struct {
	Snapshot *models.Snapshot
}

// Collect implements SnapshotSource.
func (s StaticSource) Collect(context.Context) (*models.Snapshot, error) {
	return s.Snapshot, nil
}

// ScanOptions configures a single scan.
// It is the sole input to Engine.RunScan besides the snapshot source.
type ScanOptions struct {
	// Exclusions decides out-of-scope resources and approved exceptions.
	// Nil means the built-in tag and name conventions.
	Exclusions *exclusion.Resolver

	// Policy disables domains or rules, overrides severities, and tunes
	// thresholds. Nil means defaults.
	Policy *policy.PolicyConfig

	// Attachments overrides the snapshot's attached-resource index.
	Attachments models.AttachmentResolver
}

// Domain pairs a policy domain name with the rules belonging to it.
type Domain struct {
	Name  string
	Rules []rules.Rule
}

// Engine is the central orchestration interface.
// It drives one scan through collection, rule evaluation, escalation
// analysis, scoring, and aggregation, returning a fully populated
// AuditResult.
//
// Engine must not call AWS SDK clients directly; collection is delegated to
// the SnapshotSource.
type Engine interface {
	RunScan(ctx context.Context, source SnapshotSource, opts ScanOptions) (*models.AuditResult, error)
}
