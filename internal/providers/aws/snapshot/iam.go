package awssnapshot

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// awsManagedPolicyPrefix identifies policies owned by AWS.
const awsManagedPolicyPrefix = "arn:aws:iam::aws:policy/"

// authDetails is the merged result of all GetAccountAuthorizationDetails pages.
type authDetails struct {
	users    []iamtypes.UserDetail
	roles    []iamtypes.RoleDetail
	groups   []iamtypes.GroupDetail
	policies map[string]*models.PolicyDocument
}

// collectPrincipals returns users, roles and groups with their managed and
// inline policy documents. Users are then enriched with access keys, MFA
// and console-login state; roles with their maximum session duration.
func collectPrincipals(ctx context.Context, client iamAPIClient, region string) ([]models.Principal, error) {
	details, err := fetchAuthDetails(ctx, client, region)
	if err != nil {
		return nil, err
	}
	sessions := fetchRoleSessionDurations(ctx, client, region)

	principals := make([]models.Principal, 0, len(details.users)+len(details.roles)+len(details.groups))
	for _, u := range details.users {
		principals = append(principals, models.Principal{
			Kind:            models.PrincipalUser,
			Name:            aws.ToString(u.UserName),
			ARN:             aws.ToString(u.Arn),
			Tags:            iamTags(u.Tags),
			ManagedPolicies: managedRefs(u.AttachedManagedPolicies, details.policies),
			InlinePolicies:  inlinePolicies(u.UserPolicyList, aws.ToString(u.UserName)),
			Groups:          u.GroupList,
		})
	}
	for _, r := range details.roles {
		name := aws.ToString(r.RoleName)
		p := models.Principal{
			Kind:                      models.PrincipalRole,
			Name:                      name,
			ARN:                       aws.ToString(r.Arn),
			Tags:                      iamTags(r.Tags),
			ManagedPolicies:           managedRefs(r.AttachedManagedPolicies, details.policies),
			InlinePolicies:            inlinePolicies(r.RolePolicyList, name),
			MaxSessionDurationSeconds: sessions[name],
		}
		if raw := aws.ToString(r.AssumeRolePolicyDocument); raw != "" {
			doc, err := models.ParsePolicyDocument(raw)
			if err != nil {
				warnLookup("parse trust policy", name, err)
			} else {
				p.TrustPolicy = &doc
			}
		}
		principals = append(principals, p)
	}
	for _, grp := range details.groups {
		principals = append(principals, models.Principal{
			Kind:            models.PrincipalGroup,
			Name:            aws.ToString(grp.GroupName),
			ARN:             aws.ToString(grp.Arn),
			ManagedPolicies: managedRefs(grp.AttachedManagedPolicies, details.policies),
			InlinePolicies:  inlinePolicies(grp.GroupPolicyList, aws.ToString(grp.GroupName)),
		})
	}

	// Per-user lookups; each goroutine writes only its own element.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i := range principals {
		if principals[i].Kind != models.PrincipalUser {
			continue
		}
		i := i
		g.Go(func() error {
			enrichUser(gctx, client, region, &principals[i])
			return nil
		})
	}
	_ = g.Wait()
	return principals, nil
}

// fetchAuthDetails pages through GetAccountAuthorizationDetails. Managed
// policies are indexed by ARN with their default version document.
func fetchAuthDetails(ctx context.Context, client iamAPIClient, region string) (*authDetails, error) {
	input := &iamsvc.GetAccountAuthorizationDetailsInput{
		Filter: []iamtypes.EntityType{
			iamtypes.EntityTypeUser,
			iamtypes.EntityTypeRole,
			iamtypes.EntityTypeGroup,
			iamtypes.EntityTypeLocalManagedPolicy,
			iamtypes.EntityTypeAWSManagedPolicy,
		},
	}
	paginator := iamsvc.NewGetAccountAuthorizationDetailsPaginator(client, input)

	details := &authDetails{policies: make(map[string]*models.PolicyDocument)}
	for paginator.HasMorePages() {
		var page *iamsvc.GetAccountAuthorizationDetailsOutput
		err := apiCall("iam:GetAccountAuthorizationDetails", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "get account authorization details", Err: err}
		}
		details.users = append(details.users, page.UserDetailList...)
		details.roles = append(details.roles, page.RoleDetailList...)
		details.groups = append(details.groups, page.GroupDetailList...)
		for _, pol := range page.Policies {
			arn := aws.ToString(pol.Arn)
			for _, v := range pol.PolicyVersionList {
				if !v.IsDefaultVersion {
					continue
				}
				doc, err := models.ParsePolicyDocument(aws.ToString(v.Document))
				if err != nil {
					warnLookup("parse managed policy", arn, err)
					break
				}
				details.policies[arn] = &doc
				break
			}
		}
	}
	return details, nil
}

// fetchRoleSessionDurations maps role name to MaxSessionDuration, which
// authorization details do not carry. Failure leaves durations unset.
func fetchRoleSessionDurations(ctx context.Context, client iamAPIClient, region string) map[string]int {
	paginator := iamsvc.NewListRolesPaginator(client, &iamsvc.ListRolesInput{})

	out := make(map[string]int)
	for paginator.HasMorePages() {
		var page *iamsvc.ListRolesOutput
		err := apiCall("iam:ListRoles", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			warnLookup("list roles", region, err)
			return out
		}
		for _, r := range page.Roles {
			out[aws.ToString(r.RoleName)] = int(aws.ToInt32(r.MaxSessionDuration))
		}
	}
	return out
}

// enrichUser fills access keys, MFA and login-profile state. A failed MFA
// lookup is treated as no MFA. A failed login-profile lookup other than
// NoSuchEntity is treated as having console access, so the user stays in
// scope of the MFA check.
func enrichUser(ctx context.Context, client iamAPIClient, region string, p *models.Principal) {
	name := aws.String(p.Name)

	keys := iamsvc.NewListAccessKeysPaginator(client, &iamsvc.ListAccessKeysInput{UserName: name})
	for keys.HasMorePages() {
		var page *iamsvc.ListAccessKeysOutput
		err := apiCall("iam:ListAccessKeys", region, func() (err error) {
			page, err = keys.NextPage(ctx)
			return err
		})
		if err != nil {
			warnLookup("list access keys", p.Name, err)
			break
		}
		for _, k := range page.AccessKeyMetadata {
			p.AccessKeys = append(p.AccessKeys, models.AccessKey{
				ID:        aws.ToString(k.AccessKeyId),
				Active:    k.Status == iamtypes.StatusTypeActive,
				CreatedAt: aws.ToTime(k.CreateDate),
			})
		}
	}

	var mfa *iamsvc.ListMFADevicesOutput
	err := apiCall("iam:ListMFADevices", region, func() (err error) {
		mfa, err = client.ListMFADevices(ctx, &iamsvc.ListMFADevicesInput{UserName: name})
		return err
	})
	if err != nil {
		warnLookup("list MFA devices", p.Name, err)
	} else {
		p.MFAEnabled = len(mfa.MFADevices) > 0
	}

	err = apiCall("iam:GetLoginProfile", region, func() error {
		_, err := client.GetLoginProfile(ctx, &iamsvc.GetLoginProfileInput{UserName: name})
		return err
	})
	switch {
	case err == nil:
		p.HasLoginProfile = true
	case common.IsNotFound(err):
		p.HasLoginProfile = false
	default:
		warnLookup("get login profile", p.Name, err)
		p.HasLoginProfile = true
	}
}

// collectPasswordPolicy returns the account password policy. NoSuchEntity
// means no policy is configured; any other failure marks it unavailable.
func collectPasswordPolicy(ctx context.Context, client iamAPIClient, region string) models.PasswordPolicy {
	var out *iamsvc.GetAccountPasswordPolicyOutput
	err := apiCall("iam:GetAccountPasswordPolicy", region, func() (err error) {
		out, err = client.GetAccountPasswordPolicy(ctx, &iamsvc.GetAccountPasswordPolicyInput{})
		return err
	})
	if err != nil {
		if common.IsNotFound(err) {
			return models.PasswordPolicy{}
		}
		warnLookup("get account password policy", region, err)
		return models.PasswordPolicy{Unavailable: true}
	}
	pp := out.PasswordPolicy
	if pp == nil {
		return models.PasswordPolicy{}
	}
	return models.PasswordPolicy{
		Present:                    true,
		MinimumPasswordLength:      int(aws.ToInt32(pp.MinimumPasswordLength)),
		RequireSymbols:             pp.RequireSymbols,
		RequireNumbers:             pp.RequireNumbers,
		RequireUppercaseCharacters: pp.RequireUppercaseCharacters,
		RequireLowercaseCharacters: pp.RequireLowercaseCharacters,
		MaxPasswordAge:             int(aws.ToInt32(pp.MaxPasswordAge)),
		PasswordReusePrevention:    int(aws.ToInt32(pp.PasswordReusePrevention)),
	}
}

func managedRefs(attached []iamtypes.AttachedPolicy, docs map[string]*models.PolicyDocument) []models.ManagedPolicyRef {
	out := make([]models.ManagedPolicyRef, 0, len(attached))
	for _, a := range attached {
		arn := aws.ToString(a.PolicyArn)
		out = append(out, models.ManagedPolicyRef{
			Name:       aws.ToString(a.PolicyName),
			ARN:        arn,
			AWSManaged: strings.HasPrefix(arn, awsManagedPolicyPrefix),
			Document:   docs[arn],
		})
	}
	return out
}

func inlinePolicies(list []iamtypes.PolicyDetail, owner string) []models.InlinePolicy {
	out := make([]models.InlinePolicy, 0, len(list))
	for _, pd := range list {
		name := aws.ToString(pd.PolicyName)
		doc, err := models.ParsePolicyDocument(aws.ToString(pd.PolicyDocument))
		if err != nil {
			warnLookup("parse inline policy", owner+"/"+name, err)
			continue
		}
		out = append(out, models.InlinePolicy{Name: name, Document: doc})
	}
	return out
}

func iamTags(tags []iamtypes.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}
