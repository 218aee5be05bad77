// Package exclusion decides which resources are out of audit scope and which
// are approved security exceptions.
//
// The two decisions are independent. An excluded resource is never evaluated
// and produces no findings. An approved exception is evaluated and reported,
// but its findings are not counted in the audit totals.
package exclusion

import (
	"strings"
)

// Tag keys and values recognised by the resolver.
const (
	TagExcludeFromAudit        = "ExcludeFromAudit"
	TagEmergencyAccess         = "EmergencyAccess"
	TagSecurityException       = "SecurityException"
	TagExceptionJustification  = "SecurityExceptionJustification"
	valueTrue                  = "true"
	valueApproved              = "approved"
	DefaultTemporaryNamePrefix = "temp-"
)

// Resource is the minimal view of a taggable, named resource.
// IAM is true for IAM principals, which additionally honour EmergencyAccess.
type Resource struct {
	Name string
	Tags map[string]string
	IAM  bool
}

// Resolver applies the exclusion and exception conventions plus any extra
// exclude tags and name prefixes configured by the user.
type Resolver struct {
	excludeTags  map[string]string
	namePrefixes []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExcludeTag adds a KEY=VALUE tag that excludes a resource.
// Values compare case-insensitively.
func WithExcludeTag(key, value string) Option {
	return func(r *Resolver) {
		if key != "" {
			r.excludeTags[key] = value
		}
	}
}

// WithNamePrefix adds a name prefix that excludes a resource.
func WithNamePrefix(prefix string) Option {
	return func(r *Resolver) {
		if prefix != "" {
			r.namePrefixes = append(r.namePrefixes, prefix)
		}
	}
}

// New returns a Resolver with the default conventions and the given options.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		excludeTags:  map[string]string{TagExcludeFromAudit: valueTrue},
		namePrefixes: []string{DefaultTemporaryNamePrefix},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ShouldExclude reports whether res must be skipped entirely.
// A nil Resolver behaves like New().
func (r *Resolver) ShouldExclude(res Resource) bool {
	if r == nil {
		r = New()
	}
	for k, v := range r.excludeTags {
		if tagEquals(res.Tags, k, v) {
			return true
		}
	}
	if res.IAM && tagEquals(res.Tags, TagEmergencyAccess, valueTrue) {
		return true
	}
	for _, p := range r.namePrefixes {
		if strings.HasPrefix(res.Name, p) {
			return true
		}
	}
	return false
}

// IsApprovedException reports whether res is a reviewed, accepted risk and
// returns its justification ("" when the justification tag is absent).
func (r *Resolver) IsApprovedException(res Resource) (bool, string) {
	if !tagEquals(res.Tags, TagSecurityException, valueApproved) {
		return false, ""
	}
	return true, res.Tags[TagExceptionJustification]
}

func tagEquals(tags map[string]string, key, want string) bool {
	v, ok := tags[key]
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}

// ParseTag splits a KEY=VALUE flag argument.
func ParseTag(s string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
