package rules

import (
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/exclusion"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
)

// RuleContext carries the collected snapshot and the scan-wide decisions a
// rule needs. It is the sole input to Rule.Evaluate; rules must never make
// network calls or read external state.
type RuleContext struct {
	// Snapshot is the read-only account snapshot under audit.
	Snapshot *models.Snapshot

	// Exclusions decides out-of-scope resources and approved exceptions.
	// Nil means the built-in conventions only.
	Exclusions *exclusion.Resolver

	// Attachments resolves which resources use a security group. Nil falls
	// back to the snapshot's own attachment index.
	Attachments models.AttachmentResolver

	// Policy holds the active PolicyConfig for threshold overrides. May be nil
	// when no policy file is loaded; rules must treat nil as "use defaults".
	Policy *policy.PolicyConfig
}

// Rule is a single deterministic misconfiguration check.
// Rules must be stateless and safe to call concurrently.
// They must never call the AWS SDK or any external service.
type Rule interface {
	// ID returns the unique, stable identifier for this rule (e.g. "SG_UNRESTRICTED_INBOUND").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// FindingType returns the finding type every emitted finding carries.
	FindingType() models.FindingType

	// Evaluate inspects the provided context and returns zero or more findings
	// in snapshot order. An empty slice means no issue was detected.
	Evaluate(ctx RuleContext) []models.Finding
}

// RuleRegistry manages the set of active rules and drives evaluation.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// EvaluateAll runs every registered rule against ctx and merges results
	// in registration order. A rule that panics contributes no findings and
	// one EvaluationError.
	EvaluateAll(ctx RuleContext) ([]models.Finding, []*models.EvaluationError)
}
