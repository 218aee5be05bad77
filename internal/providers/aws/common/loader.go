package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Retry settings for throttled collection calls.
const (
	DefaultRetryMaxAttempts = 8
	DefaultRetryMaxBackoff  = 30 * time.Second
)

// DefaultRegion is used when neither the flag nor the profile sets a region.
const DefaultRegion = "us-east-1"

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It reads credentials through the SDK default chain (environment, shared
// config and credentials files, SSO, instance role).
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with fakes in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
	// profileNames lists the configured profiles; replaced in tests.
	profileNames func() ([]string, error)
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet, profileNames: discoverProfileNames}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a fake factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f, profileNames: discoverProfileNames}
}

// ---------------------------------------------------------------------------
// AWSClientProvider implementation
// ---------------------------------------------------------------------------

// LoadProfile loads the AWS SDK config for the named profile with the
// adaptive retryer, resolves the account ID, and returns a fully populated
// ProfileConfig. An unknown profile name is a ConfigurationError.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile, region string) (*ProfileConfig, error) {
	if profile != "" {
		if err := p.checkProfileExists(profile); err != nil {
			return nil, err
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(DefaultRetryMaxAttempts),
		awsconfig.WithRetryer(newRetryer),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &models.CollectionError{
			Op:  "load AWS profile",
			Err: fmt.Errorf("profile %q: %w", profileDisplayName(profile), err),
		}
	}

	// Fall back to us-east-1 when the profile has no region configured so
	// that all SDK clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	clients := p.factory(cfg)

	accountID, err := resolveAccountID(ctx, clients.STS)
	if err != nil {
		return nil, &models.CollectionError{
			Op:  "resolve account ID",
			Err: fmt.Errorf("profile %q: %w", profileDisplayName(profile), err),
		}
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(profile),
		AccountID:   accountID,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the account associated with cfg. It uses EC2 DescribeRegions, which is a
// global call and works correctly regardless of the client's home region.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

// CheckRegion returns a ConfigurationError when region is not enabled for the
// profile's account. A failed region lookup is not fatal: the region is
// assumed valid and collection reports its own errors.
func CheckRegion(ctx context.Context, p AWSClientProvider, cfg *ProfileConfig, region string) error {
	regions, err := p.GetActiveRegions(ctx, cfg)
	if err != nil {
		return nil
	}
	if !slices.Contains(regions, region) {
		return &models.ConfigurationError{
			Field: "region",
			Err:   fmt.Errorf("%q is not enabled for account %s", region, cfg.AccountID),
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

// newRetryer returns the adaptive-mode retryer used for every client. The
// adaptive rate limiter backs off client-side when the account is throttled.
func newRetryer() aws.Retryer {
	return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
		o.StandardOptions = append(o.StandardOptions, func(so *retry.StandardOptions) {
			so.MaxAttempts = DefaultRetryMaxAttempts
			so.MaxBackoff = DefaultRetryMaxBackoff
		})
	})
}

// checkProfileExists fails when profile is not defined in the shared files.
// When no shared files exist at all the check is skipped; the SDK reports
// its own error.
func (p *DefaultAWSClientProvider) checkProfileExists(profile string) error {
	names, err := p.profileNames()
	if err != nil || len(names) == 0 {
		return nil
	}
	if !slices.Contains(names, profile) {
		return &models.ConfigurationError{
			Field: "profile",
			Err:   fmt.Errorf("profile %q not found in ~/.aws/config or ~/.aws/credentials", profile),
		}
	}
	return nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}

// discoverProfileNames reads ~/.aws/credentials and ~/.aws/config (or the
// files named by AWS_SHARED_CREDENTIALS_FILE / AWS_CONFIG_FILE) and returns
// the deduplicated list of all profile names found.
func discoverProfileNames() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	credPath := envOr("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(home, ".aws", "credentials"))
	cfgPath := envOr("AWS_CONFIG_FILE", filepath.Join(home, ".aws", "config"))

	// credentials: section headers are the bare profile name.
	credProfiles, err := parseProfilesFromFile(credPath, false)
	if err != nil {
		return nil, err
	}

	// config: non-default profiles are prefixed with "profile ".
	cfgProfiles, err := parseProfilesFromFile(cfgPath, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header.
//
// When stripProfilePrefix is true, the "profile " prefix used in
// ~/.aws/config is removed (e.g. "[profile staging]" becomes "staging").
// "[sso-session ...]" and "[services ...]" sections are not profiles.
//
// If the file does not exist, nil is returned without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := strings.TrimSpace(line[1 : len(line)-1])
		if stripProfilePrefix && name != "default" {
			if strings.HasPrefix(name, "sso-session ") || strings.HasPrefix(name, "services ") {
				continue
			}
			name = strings.TrimPrefix(name, "profile ")
		}

		profiles = append(profiles, strings.TrimSpace(name))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
