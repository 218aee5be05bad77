package awssnapshot

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ---------------------------------------------------------------------------
// Narrow client interfaces
//
// Each interface lists only the SDK operations used by the collector. The
// real SDK clients satisfy them automatically, and so do the SDK paginator
// client interfaces they are passed to.
// ---------------------------------------------------------------------------

// ec2APIClient covers security-group listing and the instance lookups used
// for the attachment index.
type ec2APIClient interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2svc.DescribeSecurityGroupsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2svc.DescribeInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error)
}

// iamAPIClient covers principals, their policies and credentials, and the
// account password policy.
type iamAPIClient interface {
	GetAccountAuthorizationDetails(ctx context.Context, params *iamsvc.GetAccountAuthorizationDetailsInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountAuthorizationDetailsOutput, error)
	ListRoles(ctx context.Context, params *iamsvc.ListRolesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListRolesOutput, error)
	ListAccessKeys(ctx context.Context, params *iamsvc.ListAccessKeysInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAccessKeysOutput, error)
	ListMFADevices(ctx context.Context, params *iamsvc.ListMFADevicesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListMFADevicesOutput, error)
	GetLoginProfile(ctx context.Context, params *iamsvc.GetLoginProfileInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetLoginProfileOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iamsvc.GetAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error)
}

// s3APIClient covers bucket listing, bucket policies and bucket tags.
type s3APIClient interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetBucketPolicy(ctx context.Context, params *s3svc.GetBucketPolicyInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketPolicyOutput, error)
	GetBucketTagging(ctx context.Context, params *s3svc.GetBucketTaggingInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketTaggingOutput, error)
}

// rdsAPIClient lists DB instances and their VPC security groups.
type rdsAPIClient interface {
	DescribeDBInstances(ctx context.Context, params *rdssvc.DescribeDBInstancesInput, optFns ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error)
}

// elbAPIClient lists load balancers and their security groups.
type elbAPIClient interface {
	DescribeLoadBalancers(ctx context.Context, params *elbv2svc.DescribeLoadBalancersInput, optFns ...func(*elbv2svc.Options)) (*elbv2svc.DescribeLoadBalancersOutput, error)
}

// lambdaAPIClient lists functions and their VPC configuration.
type lambdaAPIClient interface {
	ListFunctions(ctx context.Context, params *lambdasvc.ListFunctionsInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.ListFunctionsOutput, error)
}

// snapClients bundles all AWS service clients used by the collector.
type snapClients struct {
	EC2    ec2APIClient
	IAM    iamAPIClient
	S3     s3APIClient
	RDS    rdsAPIClient
	ELB    elbAPIClient
	Lambda lambdaAPIClient
}

// clientFactory creates snapClients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type clientFactory func(cfg aws.Config) *snapClients

// newDefaultClients creates production AWS SDK clients from the given config.
func newDefaultClients(cfg aws.Config) *snapClients {
	return &snapClients{
		EC2:    ec2svc.NewFromConfig(cfg),
		IAM:    iamsvc.NewFromConfig(cfg),
		S3:     s3svc.NewFromConfig(cfg),
		RDS:    rdssvc.NewFromConfig(cfg),
		ELB:    elbv2svc.NewFromConfig(cfg),
		Lambda: lambdasvc.NewFromConfig(cfg),
	}
}
