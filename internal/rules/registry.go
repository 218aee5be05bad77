package rules

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// DefaultRuleRegistry is a simple, ordered, in-memory registry.
// Rules run concurrently; results are merged in registration order.
// Register panics on duplicate rule IDs to catch wiring mistakes at startup.
type DefaultRuleRegistry struct {
	rules []Rule
	index map[string]struct{}
}

// NewDefaultRuleRegistry returns an empty registry ready for rule registration.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	return &DefaultRuleRegistry{
		index: make(map[string]struct{}),
	}
}

// Register adds rule to the registry. Panics if the same ID is registered twice.
func (r *DefaultRuleRegistry) Register(rule Rule) {
	if _, exists := r.index[rule.ID()]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", rule.ID()))
	}
	r.rules = append(r.rules, rule)
	r.index[rule.ID()] = struct{}{}
}

// All returns all registered rules in registration order.
func (r *DefaultRuleRegistry) All() []Rule {
	return r.rules
}

// IDs returns the registered rule IDs in registration order.
func (r *DefaultRuleRegistry) IDs() []string {
	ids := make([]string, len(r.rules))
	for i, rule := range r.rules {
		ids[i] = rule.ID()
	}
	return ids
}

type ruleResult struct {
	findings []models.Finding
	err      *models.EvaluationError
}

// EvaluateAll runs every registered rule against ctx on its own goroutine.
// Each goroutine writes only its own result slot; the merge afterwards is a
// single-threaded reduce in registration order, so output is deterministic.
func (r *DefaultRuleRegistry) EvaluateAll(ctx RuleContext) ([]models.Finding, []*models.EvaluationError) {
	results := make([]ruleResult, len(r.rules))

	var g errgroup.Group
	for i, rule := range r.rules {
		i, rule := i, rule
		g.Go(func() error {
			results[i] = evaluateSafely(rule, ctx)
			return nil
		})
	}
	_ = g.Wait()

	var findings []models.Finding
	var errs []*models.EvaluationError
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		findings = append(findings, res.findings...)
	}
	return findings, errs
}

// evaluateSafely converts a panic inside rule into an EvaluationError.
func evaluateSafely(rule Rule, ctx RuleContext) (res ruleResult) {
	defer func() {
		if p := recover(); p != nil {
			res = ruleResult{err: &models.EvaluationError{
				RuleID: rule.ID(),
				Err:    fmt.Errorf("panic: %v", p),
			}}
		}
	}()
	return ruleResult{findings: rule.Evaluate(ctx)}
}
