package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/config"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/engine"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/exclusion"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/logging"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/output"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	awssnapshot "github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/snapshot"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/render"
	iampack "github.com/pankaj-dahiya-devops/cloud-posture/internal/rulepacks/iam"
	netpack "github.com/pankaj-dahiya-devops/cloud-posture/internal/rulepacks/network"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/snapshotfile"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/version"
)

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "posture",
		Short:         "Cloud posture audit for AWS security groups and IAM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logging.SetLogLevel(logging.LogLevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newScanCmd())
	root.AddCommand(newPolicyCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// ── scan ─────────────────────────────────────────────────────────────────────

// scanFlags holds the raw scan flag values. Empty strings fall through to the
// app config and then to built-in defaults.
type scanFlags struct {
	region       string
	profile      string
	output       string
	excludeTags  []string
	snapshot     string
	saveSnapshot string
	outDir       string
	policyPath   string
}

// scanDeps are the collaborators runScan needs from the outside world.
type scanDeps struct {
	provider common.AWSClientProvider
	loader   config.Loader
	stdout   io.Writer
}

func newScanCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Audit one account and region",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runScan(cmd.Context(), f, scanDeps{
				provider: common.NewDefaultAWSClientProvider(),
				loader:   config.NewDefaultLoader(),
				stdout:   cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().StringVar(&f.region, "region", "", "AWS region to audit (default: config, then profile region)")
	cmd.Flags().StringVar(&f.profile, "profile", "", "AWS profile name (default: credential chain)")
	cmd.Flags().StringVar(&f.output, "output", "", "Output formats: json, csv, html, console, all (comma separated; default console)")
	cmd.Flags().StringArrayVar(&f.excludeTags, "exclude-tag", nil, "Exclude resources carrying KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Evaluate a saved snapshot file instead of calling AWS")
	cmd.Flags().StringVar(&f.saveSnapshot, "save-snapshot", "", "Write the collected snapshot to this file")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "Directory for report files (default: current directory)")
	cmd.Flags().StringVar(&f.policyPath, "policy", "", "Policy file tuning domains, rules, and thresholds")

	return cmd
}

// runScan resolves configuration, runs one scan, and writes the reports.
// Only configuration and collection failures are returned; a failed report
// writer is logged and the remaining formats are still produced.
func runScan(ctx context.Context, f scanFlags, deps scanDeps) (*models.AuditResult, error) {
	appCfg, err := deps.loader.Load()
	if err != nil {
		return nil, err
	}

	formats, err := output.ParseFormats(config.FirstNonEmpty(f.output, appCfg.Output.Formats, string(output.FormatConsole)))
	if err != nil {
		return nil, err
	}

	policyCfg, err := loadScanPolicy(config.FirstNonEmpty(f.policyPath, appCfg.Policy))
	if err != nil {
		return nil, err
	}

	resolver, err := buildResolver(append(append([]string{}, appCfg.ExcludeTags...), f.excludeTags...), policyCfg)
	if err != nil {
		return nil, err
	}

	source, err := buildSource(ctx, f, appCfg, deps.provider)
	if err != nil {
		return nil, err
	}
	if f.saveSnapshot != "" {
		source = snapshotfile.Recorder{Source: source, Path: f.saveSnapshot}
	}

	eng := newEngine()
	res, err := eng.RunScan(ctx, source, engine.ScanOptions{
		Exclusions: resolver,
		Policy:     policyCfg,
	})
	if err != nil {
		return nil, err
	}

	writer := output.Writer{
		OutDir:  config.FirstNonEmpty(f.outDir, appCfg.Output.Dir, "."),
		Stdout:  deps.stdout,
		Colored: output.IsTerminal(deps.stdout),
	}
	paths, werr := writer.WriteAll(res, formats)
	for _, p := range paths {
		logging.LogInfo("Report written", map[string]any{"path": p})
	}
	if werr != nil {
		logging.LogWarn("Some reports were not written", map[string]any{"error": werr.Error()})
	}

	logging.LogMetricsSummary()
	return res, nil
}

// newEngine wires the rule packs into an engine, network first.
func newEngine() *engine.DefaultEngine {
	return engine.NewDefaultEngine(
		engine.Domain{Name: netpack.Domain, Rules: netpack.New()},
		engine.Domain{Name: iampack.Domain, Rules: iampack.New()},
	)
}

// allRuleIDs returns every rule ID known to the rule packs.
func allRuleIDs() []string {
	var ids []string
	for _, r := range netpack.New() {
		ids = append(ids, r.ID())
	}
	for _, r := range iampack.New() {
		ids = append(ids, r.ID())
	}
	return ids
}

// loadScanPolicy loads and validates the policy at path. An empty path means
// no policy.
func loadScanPolicy(path string) (*policy.PolicyConfig, error) {
	if path == "" {
		return nil, nil
	}
	cfg, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "policy", Err: err}
	}
	if errs := policy.Validate(cfg, allRuleIDs()); len(errs) > 0 {
		return nil, &models.ConfigurationError{Field: "policy", Err: errs[0]}
	}
	return cfg, nil
}

// buildResolver combines KEY=VALUE exclude tags with the policy's exclusion
// block on top of the built-in conventions.
func buildResolver(tags []string, cfg *policy.PolicyConfig) (*exclusion.Resolver, error) {
	var opts []exclusion.Option
	for _, t := range tags {
		key, value, ok := exclusion.ParseTag(t)
		if !ok {
			return nil, &models.ConfigurationError{
				Field: "exclude-tag",
				Err:   fmt.Errorf("%q is not KEY=VALUE", t),
			}
		}
		opts = append(opts, exclusion.WithExcludeTag(key, value))
	}
	if cfg != nil {
		for key, value := range cfg.Exclusions.Tags {
			opts = append(opts, exclusion.WithExcludeTag(key, value))
		}
		for _, prefix := range cfg.Exclusions.NamePrefixes {
			opts = append(opts, exclusion.WithNamePrefix(prefix))
		}
	}
	return exclusion.New(opts...), nil
}

// buildSource picks the snapshot file when one is given, otherwise the live
// AWS collector for the resolved profile and region.
func buildSource(ctx context.Context, f scanFlags, appCfg *config.Config, provider common.AWSClientProvider) (engine.SnapshotSource, error) {
	if f.snapshot != "" {
		return snapshotfile.Source{Path: f.snapshot}, nil
	}

	profile := config.FirstNonEmpty(f.profile, appCfg.AWS.DefaultProfile)
	region := config.FirstNonEmpty(f.region, appCfg.AWS.DefaultRegion)

	profileCfg, err := provider.LoadProfile(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	if region != "" {
		if err := common.CheckRegion(ctx, provider, profileCfg, region); err != nil {
			return nil, err
		}
	}
	logging.LogInfo("Scanning account", map[string]any{
		"account_id": profileCfg.AccountID,
		"region":     profileCfg.Region,
		"profile":    profileCfg.ProfileName,
	})
	return awssnapshot.NewCollector(profileCfg, provider, profileCfg.Region), nil
}

// ── policy ───────────────────────────────────────────────────────────────────

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Policy file commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a policy file and report every problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicyValidate(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

// runPolicyValidate prints every validation error in cfg and fails when there
// is at least one.
func runPolicyValidate(w io.Writer, path string) error {
	cfg, err := policy.LoadPolicy(path)
	if err != nil {
		return &models.ConfigurationError{Field: "policy", Err: err}
	}
	errs := policy.Validate(cfg, allRuleIDs())
	if len(errs) == 0 {
		fmt.Fprintf(w, "%s: OK\n", path)
		return nil
	}
	for _, e := range errs {
		fmt.Fprintf(w, "  - %v\n", e)
	}
	return &models.ConfigurationError{
		Field: "policy",
		Err:   fmt.Errorf("%s: %d problem(s)", path, len(errs)),
	}
}

// ── explain ──────────────────────────────────────────────────────────────────

func newExplainCmd() *cobra.Command {
	var (
		reportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "explain PRINCIPAL",
		Short: "Explain the escalation paths of one principal from a JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.OutOrStdout(), reportPath, args[0], format)
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "JSON report written by posture scan")
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func runExplain(w io.Writer, reportPath, principal, format string) error {
	res, err := readReport(reportPath)
	if err != nil {
		return err
	}
	paths := render.PathsForPrincipal(res.EscalationPaths, principal)
	if format == "json" {
		return render.WriteExplainJSON(w, principal, paths)
	}
	render.RenderEscalationExplanation(w, paths, res.Findings)
	return nil
}

// readReport loads a JSON AuditResult from disk.
func readReport(path string) (*models.AuditResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "report", Err: err}
	}
	var res models.AuditResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &models.ConfigurationError{
			Field: "report",
			Err:   fmt.Errorf("parse %s: %w", path, err),
		}
	}
	return &res, nil
}
