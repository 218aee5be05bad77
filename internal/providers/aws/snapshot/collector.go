package awssnapshot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/logging"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// maxConcurrentLookups bounds in-flight per-resource IAM and S3 calls.
const maxConcurrentLookups = 8

// Collector builds a models.Snapshot for one account and region from the
// live AWS control plane. It satisfies engine.SnapshotSource.
//
// Listing failures (security groups, IAM authorization details, buckets)
// fail the collection. Per-resource lookups degrade: the affected field is
// left empty or marked unknown and a warning is logged.
type Collector struct {
	factory  clientFactory
	profile  *common.ProfileConfig
	provider common.AWSClientProvider
	region   string
	now      func() time.Time
}

// NewCollector returns a Collector wired to production AWS SDK clients.
func NewCollector(profile *common.ProfileConfig, provider common.AWSClientProvider, region string) *Collector {
	return NewCollectorWithFactory(profile, provider, region, newDefaultClients)
}

// NewCollectorWithFactory returns a Collector that uses the supplied
// factory, allowing tests to inject fake clients.
func NewCollectorWithFactory(profile *common.ProfileConfig, provider common.AWSClientProvider, region string, f clientFactory) *Collector {
	return &Collector{
		factory:  f,
		profile:  profile,
		provider: provider,
		region:   region,
		now:      time.Now,
	}
}

// Collect gathers security groups, IAM principals, the password policy,
// buckets and the attachment index. The four top-level sections run
// concurrently; the first listing failure cancels the rest.
func (c *Collector) Collect(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	logging.LogOperationStart("collect_snapshot", map[string]any{
		"account_id": c.profile.AccountID,
		"region":     c.region,
	})

	clients := c.factory(c.provider.ConfigForRegion(c.profile, c.region))

	snap := &models.Snapshot{
		AccountID:   c.profile.AccountID,
		Region:      c.region,
		CollectedAt: c.now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := collectSecurityGroups(gctx, clients.EC2, c.region)
		snap.SecurityGroups = groups
		return err
	})
	g.Go(func() error {
		principals, err := collectPrincipals(gctx, clients.IAM, c.region)
		snap.Principals = principals
		return err
	})
	g.Go(func() error {
		snap.PasswordPolicy = collectPasswordPolicy(gctx, clients.IAM, c.region)
		return nil
	})
	g.Go(func() error {
		buckets, err := collectBuckets(gctx, clients.S3, c.region)
		snap.Buckets = buckets
		return err
	})
	if err := g.Wait(); err != nil {
		logging.LogOperationEnd("collect_snapshot", time.Since(start), false, 0, 0, err)
		return nil, err
	}

	attachments, err := collectAttachments(ctx, clients, c.region)
	if err != nil {
		// Partial indexes would report attached groups as unused.
		logging.LogWarn("Attachment index incomplete; marking all groups unresolved", map[string]any{
			"region": c.region,
			"error":  err.Error(),
		})
		for _, sg := range snap.SecurityGroups {
			snap.UnresolvedAttachments = append(snap.UnresolvedAttachments, sg.GroupID)
		}
	} else {
		snap.Attachments = attachments
	}

	resources := len(snap.SecurityGroups) + len(snap.Principals) + len(snap.Buckets)
	logging.LogOperationEnd("collect_snapshot", time.Since(start), true, resources, resources, nil)
	return snap, nil
}

// apiCall times fn and records it as one AWS API call.
func apiCall(api, region string, fn func() error) error {
	start := time.Now()
	err := fn()
	logging.LogAPICall(api, region, err == nil, time.Since(start), err)
	return err
}

// warnLookup logs a degraded per-resource lookup.
func warnLookup(op, resource string, err error) {
	logging.LogWarn("Lookup failed; continuing without it", map[string]any{
		"operation":  op,
		"resource":   resource,
		"error_kind": string(common.Classify(err)),
		"error":      err.Error(),
	})
}
