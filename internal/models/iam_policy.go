package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Effect values of a policy statement.
const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

// StringList is an IAM policy field that may be encoded as a single string or
// as a list of strings ("Action", "Resource", principal values).
type StringList []string

// UnmarshalJSON accepts both `"a"` and `["a","b"]`.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = normalizeToList(raw)
	return nil
}

// Contains reports whether v is present verbatim.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

func normalizeToList(value any) StringList {
	switch v := value.(type) {
	case string:
		return StringList{v}
	case []any:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return StringList{}
	}
}

// PrincipalBlock is the Principal element of a trust or resource policy.
// Wildcard is true for `"Principal": "*"`. Otherwise Values maps the
// principal kind (AWS, Service, Federated) to its identifiers.
type PrincipalBlock struct {
	Wildcard bool
	Values   map[string]StringList
}

// UnmarshalJSON accepts `"*"` and `{"AWS": "..."|[...], ...}`.
func (p *PrincipalBlock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Wildcard = s == "*"
		if !p.Wildcard {
			return fmt.Errorf("unsupported principal %q", s)
		}
		return nil
	}
	var m map[string]StringList
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse principal: %w", err)
	}
	p.Values = m
	return nil
}

// MarshalJSON writes the block back in IAM form.
func (p PrincipalBlock) MarshalJSON() ([]byte, error) {
	if p.Wildcard {
		return json.Marshal("*")
	}
	return json.Marshal(p.Values)
}

// AWS returns the AWS principal identifiers (account ids, ARNs or "*").
func (p PrincipalBlock) AWS() StringList {
	return p.Values["AWS"]
}

// AllowsAnyone reports whether the block admits every AWS principal:
// `"*"`, `{"AWS":"*"}`, or a wildcard account ARN.
func (p PrincipalBlock) AllowsAnyone() bool {
	if p.Wildcard {
		return true
	}
	for _, v := range p.AWS() {
		if v == "*" || strings.HasPrefix(v, "arn:aws:iam::*") {
			return true
		}
	}
	return false
}

// Statement is one policy statement.
type Statement struct {
	Sid       string                    `json:"Sid,omitempty"`
	Effect    string                    `json:"Effect"`
	Principal *PrincipalBlock           `json:"Principal,omitempty"`
	Action    StringList                `json:"Action,omitempty"`
	NotAction StringList                `json:"NotAction,omitempty"`
	Resource  StringList                `json:"Resource,omitempty"`
	Condition map[string]map[string]any `json:"Condition,omitempty"`
}

// IsAllow reports whether the statement grants access.
func (s Statement) IsAllow() bool {
	return strings.EqualFold(s.Effect, EffectAllow)
}

// HasCondition reports whether any condition is attached.
func (s Statement) HasCondition() bool {
	return len(s.Condition) > 0
}

// HasConditionKey reports whether any operator block references key
// (case-insensitive), e.g. "sts:ExternalId".
func (s Statement) HasConditionKey(key string) bool {
	for _, block := range s.Condition {
		for k := range block {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	}
	return false
}

// AllResources reports whether Resource is "*".
func (s Statement) AllResources() bool {
	return s.Resource.Contains("*")
}

// PolicyDocument is a parsed IAM policy.
type PolicyDocument struct {
	Version   string      `json:"Version,omitempty"`
	Statement []Statement `json:"Statement"`
}

// UnmarshalJSON accepts a single statement object as well as a list.
func (d *PolicyDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version   string          `json:"Version"`
		Statement json.RawMessage `json:"Statement"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Version = raw.Version
	d.Statement = nil
	trimmed := strings.TrimSpace(string(raw.Statement))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil
	case strings.HasPrefix(trimmed, "{"):
		var st Statement
		if err := json.Unmarshal(raw.Statement, &st); err != nil {
			return err
		}
		d.Statement = []Statement{st}
	default:
		if err := json.Unmarshal(raw.Statement, &d.Statement); err != nil {
			return err
		}
	}
	return nil
}

// ParsePolicyDocument decodes a policy as returned by IAM. IAM returns
// documents URL-encoded; plain JSON is accepted as well.
func ParsePolicyDocument(raw string) (PolicyDocument, error) {
	var doc PolicyDocument
	if raw == "" {
		return doc, nil
	}
	decoded := raw
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		d, err := url.QueryUnescape(raw)
		if err != nil {
			return doc, fmt.Errorf("url-decode policy document: %w", err)
		}
		decoded = d
	}
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return doc, fmt.Errorf("parse policy document: %w", err)
	}
	return doc, nil
}

// MatchAction reports whether an IAM action pattern (with * and ? wildcards,
// case-insensitive) matches action. "*" matches everything.
func MatchAction(pattern, action string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(action))
	return err == nil && ok
}

// AllowsAction reports whether any pattern in the list matches action.
func (l StringList) AllowsAction(action string) bool {
	for _, p := range l {
		if MatchAction(p, action) {
			return true
		}
	}
	return false
}
