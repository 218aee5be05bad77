package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/compliance"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/escalation"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/logging"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/remediation"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/scoring"
)

// EscalationDomain is the policy domain that gates escalation analysis.
const EscalationDomain = policy.DomainIAM

// ErrScanInProgress is returned when RunScan is called while another scan on
// the same engine has not finished.
var ErrScanInProgress = errors.New("scan already in progress")

// DefaultEngine is the production implementation of Engine.
// It never calls the AWS SDK or any external service directly.
type DefaultEngine struct {
	domains []Domain

	// now and newScanID are replaced in tests.
	now       func() time.Time
	newScanID func() string

	mu      sync.Mutex
	state   models.ScanState
	running bool
}

// NewDefaultEngine constructs a DefaultEngine evaluating the given domains in
// order.
func NewDefaultEngine(domains ...Domain) *DefaultEngine {
	return &DefaultEngine{
		domains:   domains,
		now:       time.Now,
		newScanID: uuid.NewString,
		state:     models.ScanIdle,
	}
}

// State returns the state of the current or most recent scan.
func (e *DefaultEngine) State() models.ScanState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *DefaultEngine) observe(from, to models.ScanState) {
	e.mu.Lock()
	e.state = to
	e.mu.Unlock()
	logging.LogDebug("Scan state change", map[string]any{"from": string(from), "to": string(to)})
}

// RunScan implements Engine. Collection is the only step that can fail; once
// the snapshot is in hand the scan runs to completion.
func (e *DefaultEngine) RunScan(ctx context.Context, source SnapshotSource, opts ScanOptions) (*models.AuditResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrScanInProgress
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	m := newScanMachine(e.observe)
	m.set(models.ScanIdle)

	// -- Collecting --
	m.advance(models.ScanCollecting)
	start := time.Now()
	snap, err := source.Collect(ctx)
	if err == nil && snap == nil {
		err = errors.New("snapshot source returned no snapshot")
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.fail()
		logging.LogOperationEnd("collect", time.Since(start), false, 0, 0, err)
		return nil, fmt.Errorf("collect snapshot: %w", err)
	}
	logging.LogOperationEnd("collect", time.Since(start), true, 1,
		len(snap.SecurityGroups)+len(snap.Principals)+len(snap.Buckets), nil)

	return e.analyze(m, snap, opts), nil
}

// Analyze evaluates an in-memory snapshot without a collection step. It is
// deterministic apart from ScanID and AuditTimestamp.
func (e *DefaultEngine) Analyze(snap *models.Snapshot, opts ScanOptions) *models.AuditResult {
	m := newScanMachine(nil)
	m.advance(models.ScanCollecting)
	return e.analyze(m, snap, opts)
}

func (e *DefaultEngine) analyze(m *scanMachine, snap *models.Snapshot, opts ScanOptions) *models.AuditResult {
	// -- Evaluating --
	m.advance(models.ScanEvaluating)
	start := time.Now()
	rctx := rules.RuleContext{
		Snapshot:    snap,
		Exclusions:  opts.Exclusions,
		Attachments: opts.Attachments,
		Policy:      opts.Policy,
	}
	findings, checkErrs := e.evaluateDomains(rctx, opts.Policy)

	var paths []models.EscalationPath
	if policy.DomainEnabled(EscalationDomain, opts.Policy) {
		paths = escalation.Build(snap, opts.Exclusions).Detect()
	}
	logging.LogOperationEnd("evaluate", time.Since(start), true, len(e.domains), len(findings)+len(paths), nil)

	// -- Scoring --
	// Compliance is attached first: the score reads the framework count.
	m.advance(models.ScanScoring)
	compliance.Apply(findings)
	if err := remediation.Apply(findings); err != nil {
		logging.LogWarn("Remediation template failed", map[string]any{"error": err.Error()})
	}
	scoring.Apply(findings)
	recs := remediation.Recommendations(findings)

	// -- Aggregating --
	m.advance(models.ScanAggregating)
	res := aggregate(e.newScanID(), e.now(), snap, findings, paths, recs, checkErrs)

	m.advance(models.ScanDone)
	res.State = models.ScanDone
	logging.LogInfo("Scan complete", map[string]any{
		"scan_id":          res.ScanID,
		"total_findings":   res.TotalFindings,
		"exceptions":       res.ExceptionCount(),
		"escalation_paths": len(res.EscalationPaths),
		"check_errors":     len(res.CheckErrors),
	})
	return res
}

// evaluateDomains runs each enabled domain's enabled rules and applies the
// policy's severity overrides and filters per domain. Domain results are
// concatenated in domain order.
func (e *DefaultEngine) evaluateDomains(rctx rules.RuleContext, cfg *policy.PolicyConfig) ([]models.Finding, []models.CheckError) {
	var (
		findings  []models.Finding
		checkErrs []models.CheckError
	)
	for _, d := range e.domains {
		if !policy.DomainEnabled(d.Name, cfg) {
			logging.LogDebug("Domain disabled by policy", map[string]any{"domain": d.Name})
			continue
		}

		registry := rules.NewDefaultRuleRegistry()
		for _, r := range d.Rules {
			if policy.RuleEnabled(r.ID(), cfg) {
				registry.Register(r)
			}
		}

		raw, errs := registry.EvaluateAll(rctx)
		for _, err := range errs {
			logging.LogError("Check failed", err, map[string]any{"domain": d.Name, "rule_id": err.RuleID})
			checkErrs = append(checkErrs, models.CheckError{RuleID: err.RuleID, Error: err.Err.Error()})
		}
		findings = append(findings, policy.ApplyPolicy(raw, d.Name, cfg)...)
	}
	return findings, checkErrs
}
