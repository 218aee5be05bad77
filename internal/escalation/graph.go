// Package escalation detects IAM privilege-escalation paths.
//
// Each user or role maps to the set of actions its effective Allow
// statements grant (managed, inline, and those inherited from its groups),
// with the resources each grant applies to. A pattern matches when all of
// its required actions are in that set.
package escalation

import (
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/exclusion"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// grant is one edge: principal --action--> resources.
type grant struct {
	action    string
	resources models.StringList
	// via names the group the grant was inherited from, "" when direct.
	via string
}

type node struct {
	principal models.Principal
	grants    []grant
}

// Graph holds the adjacency of every in-scope user and role.
type Graph struct {
	nodes      []node
	roles      []models.Principal
	exclusions *exclusion.Resolver
}

// Build constructs the graph from snap. Excluded principals are skipped.
// Deny statements are ignored; this is a heuristic over granted actions.
func Build(snap *models.Snapshot, excl *exclusion.Resolver) *Graph {
	g := &Graph{exclusions: excl}
	if snap == nil {
		return g
	}

	groups := make(map[string]models.Principal)
	for _, p := range snap.Principals {
		switch p.Kind {
		case models.PrincipalGroup:
			groups[p.Name] = p
		case models.PrincipalRole:
			g.roles = append(g.roles, p)
		}
	}

	for _, p := range snap.Principals {
		if p.Kind == models.PrincipalGroup {
			continue
		}
		if excl.ShouldExclude(exclusion.Resource{Name: p.Name, Tags: p.Tags, IAM: true}) {
			continue
		}
		n := node{principal: p, grants: grantsOf(p, "")}
		for _, name := range p.Groups {
			if grp, ok := groups[name]; ok {
				n.grants = append(n.grants, grantsOf(grp, name)...)
			}
		}
		g.nodes = append(g.nodes, n)
	}
	return g
}

func grantsOf(p models.Principal, via string) []grant {
	var out []grant
	add := func(doc *models.PolicyDocument) {
		if doc == nil {
			return
		}
		for _, st := range doc.Statement {
			if !st.IsAllow() {
				continue
			}
			for _, a := range st.Action {
				out = append(out, grant{action: a, resources: st.Resource, via: via})
			}
		}
	}
	for i := range p.ManagedPolicies {
		add(p.ManagedPolicies[i].Document)
	}
	for i := range p.InlinePolicies {
		add(&p.InlinePolicies[i].Document)
	}
	return out
}

// Detect matches every principal against Patterns. Principals are matched
// concurrently; the result is ordered by principal, then pattern.
func (g *Graph) Detect() []models.EscalationPath {
	results := make([][]models.EscalationPath, len(g.nodes))

	var eg errgroup.Group
	for i := range g.nodes {
		i := i
		eg.Go(func() error {
			results[i] = g.match(g.nodes[i])
			return nil
		})
	}
	_ = eg.Wait()

	var paths []models.EscalationPath
	for _, r := range results {
		paths = append(paths, r...)
	}
	return paths
}

func (g *Graph) match(n node) []models.EscalationPath {
	isException, _ := g.exclusions.IsApprovedException(exclusion.Resource{Name: n.principal.Name, Tags: n.principal.Tags, IAM: true})

	var paths []models.EscalationPath
	for _, pat := range Patterns {
		hops, ok := satisfies(n.grants, pat.Required)
		if !ok {
			continue
		}
		if pat.PassRoleService != "" {
			hops = append(hops, g.passableRoles(n, pat.PassRoleService)...)
		}
		paths = append(paths, models.EscalationPath{
			PrincipalName:     n.principal.Name,
			PrincipalType:     n.principal.ResourceType(),
			PrincipalARN:      n.principal.ARN,
			EscalationPattern: pat.ID,
			Description:       pat.Description,
			DangerousActions:  append([]string(nil), pat.Required...),
			IntermediateHops:  hops,
			IsException:       isException,
		})
	}
	return paths
}

// satisfies reports whether every required action is granted, and returns
// the groups (as "group:<name>" hops) any inherited grant came through.
func satisfies(grants []grant, required []string) ([]string, bool) {
	var hops []string
	seen := make(map[string]struct{})
	for _, action := range required {
		found := false
		via := ""
		for _, gr := range grants {
			if !models.MatchAction(gr.action, action) {
				continue
			}
			// Prefer a direct grant over an inherited one.
			if !found || (via != "" && gr.via == "") {
				via = gr.via
			}
			found = true
		}
		if !found {
			return nil, false
		}
		if via == "" {
			continue
		}
		if _, dup := seen[via]; !dup {
			seen[via] = struct{}{}
			hops = append(hops, "group:"+via)
		}
	}
	return hops, true
}

// passableRoles lists roles, other than the principal itself, that n may pass
// (iam:PassRole resource match) and that trust service. O(P²) over principals
// in the worst case.
func (g *Graph) passableRoles(n node, service string) []string {
	var hops []string
	for _, role := range g.roles {
		if role.ARN != "" && role.ARN == n.principal.ARN {
			continue
		}
		if !trustsService(role, service) {
			continue
		}
		for _, gr := range n.grants {
			if models.MatchAction(gr.action, "iam:PassRole") && resourceMatches(gr.resources, role.ARN) {
				hops = append(hops, "role:"+role.Name)
				break
			}
		}
	}
	return hops
}

func trustsService(role models.Principal, service string) bool {
	if role.TrustPolicy == nil {
		return false
	}
	for _, st := range role.TrustPolicy.Statement {
		if !st.IsAllow() || st.Principal == nil {
			continue
		}
		if st.Principal.Wildcard || st.Principal.Values["Service"].Contains(service) {
			return true
		}
	}
	return false
}

// resourceMatches reports whether any IAM resource pattern matches arn.
// IAM wildcards: * matches any sequence (including "/"), ? one character.
func resourceMatches(patterns models.StringList, arn string) bool {
	for _, p := range patterns {
		if p == "*" || p == arn {
			return true
		}
		if !strings.ContainsAny(p, "*?") {
			continue
		}
		re, err := regexp.Compile(iamPatternToRegex(p))
		if err == nil && re.MatchString(arn) {
			return true
		}
	}
	return false
}

func iamPatternToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, ch := range pattern {
		switch ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
