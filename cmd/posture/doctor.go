package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// defaultPolicyFile is the policy file doctor looks for when --policy is unset.
const defaultPolicyFile = "posture.yaml"

// authDetailsAPI is the single IAM call a scan cannot run without.
type authDetailsAPI interface {
	GetAccountAuthorizationDetails(ctx context.Context, in *iamsvc.GetAccountAuthorizationDetailsInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountAuthorizationDetailsOutput, error)
}

func newIAMClient(cfg aws.Config) authDetailsAPI { return iamsvc.NewFromConfig(cfg) }

// DoctorResult is the structured output of posture doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable table
// (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Region      string `json:"region,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		IAMReadOK   bool   `json:"iam_read_ok"`
		IAMError    string `json:"iam_error,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Policy struct {
		Path    string   `json:"path"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			policyPath, _ := cmd.Flags().GetString("policy")
			result, err := runDoctor(
				cmd.Context(),
				common.NewDefaultAWSClientProvider(),
				newIAMClient,
				cmd.OutOrStdout(),
				format,
				profile,
				policyPath,
			)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text follows the JSON output.
				os.Exit(exitFailure)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("policy", defaultPolicyFile, "Policy file to validate (optional)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures. Callers must inspect
// result.OverallHealthy; an unhealthy environment is not an error.
func runDoctor(ctx context.Context, awsProvider common.AWSClientProvider, iamFor func(aws.Config) authDetailsAPI, w io.Writer, format, profile, policyPath string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, awsProvider, iamFor, profile, policyPath)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering.
func collectDoctorResult(ctx context.Context, awsProvider common.AWSClientProvider, iamFor func(aws.Config) authDetailsAPI, profile, policyPath string) DoctorResult {
	var result DoctorResult

	// AWS: credentials → STS account ID → region discovery.
	if profile != "" {
		result.AWS.Profile = profile
	}
	profileCfg, err := awsProvider.LoadProfile(ctx, profile, "")
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		result.AWS.Region = profileCfg.Region
		_, err = awsProvider.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
		}
		result.AWS.IAMReadOK, result.AWS.IAMError = checkIAMRead(ctx, iamFor(awsProvider.ConfigForRegion(profileCfg, profileCfg.Region)))
	}

	// Policy: stat → load → validate (file is optional).
	result.Policy.Path = policyPath
	_, statErr := os.Stat(policyPath)
	if statErr == nil {
		result.Policy.Present = true
		cfg, loadErr := policy.LoadPolicy(policyPath)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else {
			errs := policy.Validate(cfg, allRuleIDs())
			if len(errs) == 0 {
				result.Policy.Valid = true
			} else {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			}
		}
	} else if !os.IsNotExist(statErr) {
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		result.AWS.IAMReadOK &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// checkIAMRead requests a single page of authorization details. A scan
// treats this listing as fatal, so a denial here means every scan fails.
func checkIAMRead(ctx context.Context, client authDetailsAPI) (bool, string) {
	_, err := client.GetAccountAuthorizationDetails(ctx, &iamsvc.GetAccountAuthorizationDetailsInput{
		MaxItems: aws.Int32(1),
	})
	switch {
	case err == nil:
		return true, ""
	case common.IsAccessDenied(err):
		return false, "iam:GetAccountAuthorizationDetails denied"
	default:
		return false, err.Error()
	}
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
		doctorPrint(w, "IAM Read", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.Region != "" {
			doctorPrint(w, "Default Region", "OK", result.AWS.Region)
		}
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
		if result.AWS.IAMReadOK {
			doctorPrint(w, "IAM Read", "OK", "")
		} else {
			doctorPrint(w, "IAM Read", "FAIL", result.AWS.IAMError)
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	label := result.Policy.Path + " present"
	if !result.Policy.Present {
		doctorPrint(w, label, "Not found (optional)", "")
		return
	}
	doctorPrint(w, label, "YES", "")
	if result.Policy.Valid {
		doctorPrint(w, "Policy valid", "OK", "")
		return
	}
	for _, e := range result.Policy.Errors {
		doctorPrint(w, "Policy valid", "FAIL", e)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
