package policy

// Domain names recognised in the domains and rules sections.
const (
	DomainNetwork = "network"
	DomainIAM     = "iam"
)

// PolicyConfig is the parsed policy file. A nil *PolicyConfig means "no
// policy loaded" and every accessor falls back to built-in defaults.
type PolicyConfig struct {
	Version        int                     `yaml:"version"`
	Domains        map[string]DomainConfig `yaml:"domains"`
	Rules          map[string]RuleConfig   `yaml:"rules"`
	SensitiveTiers []string                `yaml:"sensitive_tiers,omitempty"`
	Exclusions     ExclusionConfig         `yaml:"exclusions,omitempty"`
}

// DomainConfig tunes one domain. A nil Enabled leaves the domain on.
type DomainConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	MinSeverity string `yaml:"min_severity,omitempty"`
}

type RuleConfig struct {
	Enabled  *bool              `yaml:"enabled,omitempty"`
	Severity string             `yaml:"severity,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
}

// ExclusionConfig adds resource exclusions on top of the built-in tag and
// name-prefix conventions.
type ExclusionConfig struct {
	Tags         map[string]string `yaml:"tags,omitempty"`
	NamePrefixes []string          `yaml:"name_prefixes,omitempty"`
}
