// Package remediation turns findings into remediation text and structured
// policy recommendations.
package remediation

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

var funcs = template.FuncMap{"join": join}

// compiled is built once from templates; a bad template panics at init.
var compiled = func() map[models.FindingType]*template.Template {
	out := make(map[models.FindingType]*template.Template, len(templates))
	for ft, text := range templates {
		out[ft] = template.Must(template.New(string(ft)).Funcs(funcs).Parse(text))
	}
	return out
}()

type view struct {
	Name     string
	Resource string
	D        map[string]any
}

// Steps renders the remediation text for f.
func Steps(f models.Finding) (string, error) {
	tmpl, ok := compiled[f.FindingType]
	if !ok {
		return "", fmt.Errorf("no remediation template for finding type %q", f.FindingType)
	}
	name := f.ResourceName
	if name == "" {
		name = f.ResourceID
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, view{Name: name, Resource: f.ResourceID, D: f.RuleDetails}); err != nil {
		return "", fmt.Errorf("render remediation for %s: %w", f.ID, err)
	}
	return b.String(), nil
}

// Apply stamps RemediationSteps on every finding in place. A template error
// leaves a generic instruction so the field is never empty.
func Apply(findings []models.Finding) error {
	var firstErr error
	for i := range findings {
		steps, err := Steps(findings[i])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			steps = fmt.Sprintf("Review %s on %s and apply least-privilege configuration.", findings[i].FindingType, findings[i].ResourceID)
		}
		findings[i].RemediationSteps = steps
	}
	return firstErr
}

// join renders a detail value that may be a string, []string, []int or []any.
func join(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case []int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = portLabel(n)
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func portLabel(p int) string {
	if p == models.AllPorts {
		return "all"
	}
	return fmt.Sprintf("%d", p)
}
