package awssnapshot

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Attached resource types recorded in the attachment index.
const (
	AttachedEC2Instance    = "ec2_instance"
	AttachedRDSInstance    = "rds_instance"
	AttachedLoadBalancer   = "load_balancer"
	AttachedLambdaFunction = "lambda_function"
)

// membership is one (security group, resource) pair.
type membership struct {
	groupID  string
	resource models.AttachedResource
}

// collectAttachments builds the security-group → resource index from EC2
// instances, RDS instances, load balancers and VPC Lambda functions. Each
// source is listed concurrently; any failure is returned joined and the
// caller treats the whole index as unknown.
func collectAttachments(ctx context.Context, clients *snapClients, region string) (map[string][]models.AttachedResource, error) {
	sources := []func(context.Context, *snapClients, string) ([]membership, error){
		instanceMemberships,
		rdsMemberships,
		loadBalancerMemberships,
		lambdaMemberships,
	}
	results := make([][]membership, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i], errs[i] = src(ctx, clients, region)
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	index := make(map[string][]models.AttachedResource)
	seen := make(map[membership]bool)
	for _, ms := range results {
		for _, m := range ms {
			if m.groupID == "" || seen[m] {
				continue
			}
			seen[m] = true
			index[m.groupID] = append(index[m.groupID], m.resource)
		}
	}
	return index, nil
}

// instanceMemberships lists non-terminated instances. Groups are read from
// the instance and from every attached network interface.
func instanceMemberships(ctx context.Context, clients *snapClients, region string) ([]membership, error) {
	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped"},
			},
		},
	}
	paginator := ec2svc.NewDescribeInstancesPaginator(clients.EC2, input)

	var out []membership
	for paginator.HasMorePages() {
		var page *ec2svc.DescribeInstancesOutput
		err := apiCall("ec2:DescribeInstances", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "describe instances", Resource: region, Err: err}
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				res := models.AttachedResource{ResourceType: AttachedEC2Instance, ResourceID: aws.ToString(inst.InstanceId)}
				for _, g := range inst.SecurityGroups {
					out = append(out, membership{groupID: aws.ToString(g.GroupId), resource: res})
				}
				for _, eni := range inst.NetworkInterfaces {
					for _, g := range eni.Groups {
						out = append(out, membership{groupID: aws.ToString(g.GroupId), resource: res})
					}
				}
			}
		}
	}
	return out, nil
}

func rdsMemberships(ctx context.Context, clients *snapClients, region string) ([]membership, error) {
	paginator := rdssvc.NewDescribeDBInstancesPaginator(clients.RDS, &rdssvc.DescribeDBInstancesInput{})

	var out []membership
	for paginator.HasMorePages() {
		var page *rdssvc.DescribeDBInstancesOutput
		err := apiCall("rds:DescribeDBInstances", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "describe DB instances", Resource: region, Err: err}
		}
		for _, db := range page.DBInstances {
			res := models.AttachedResource{ResourceType: AttachedRDSInstance, ResourceID: aws.ToString(db.DBInstanceIdentifier)}
			for _, g := range db.VpcSecurityGroups {
				out = append(out, membership{groupID: aws.ToString(g.VpcSecurityGroupId), resource: res})
			}
		}
	}
	return out, nil
}

func loadBalancerMemberships(ctx context.Context, clients *snapClients, region string) ([]membership, error) {
	paginator := elbv2svc.NewDescribeLoadBalancersPaginator(clients.ELB, &elbv2svc.DescribeLoadBalancersInput{})

	var out []membership
	for paginator.HasMorePages() {
		var page *elbv2svc.DescribeLoadBalancersOutput
		err := apiCall("elasticloadbalancing:DescribeLoadBalancers", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "describe load balancers", Resource: region, Err: err}
		}
		for _, lb := range page.LoadBalancers {
			res := models.AttachedResource{ResourceType: AttachedLoadBalancer, ResourceID: aws.ToString(lb.LoadBalancerName)}
			for _, id := range lb.SecurityGroups {
				out = append(out, membership{groupID: id, resource: res})
			}
		}
	}
	return out, nil
}

// lambdaMemberships lists functions; only VPC-attached functions reference
// security groups.
func lambdaMemberships(ctx context.Context, clients *snapClients, region string) ([]membership, error) {
	paginator := lambdasvc.NewListFunctionsPaginator(clients.Lambda, &lambdasvc.ListFunctionsInput{})

	var out []membership
	for paginator.HasMorePages() {
		var page *lambdasvc.ListFunctionsOutput
		err := apiCall("lambda:ListFunctions", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "list functions", Resource: region, Err: err}
		}
		for _, fn := range page.Functions {
			if fn.VpcConfig == nil {
				continue
			}
			res := models.AttachedResource{ResourceType: AttachedLambdaFunction, ResourceID: aws.ToString(fn.FunctionName)}
			for _, id := range fn.VpcConfig.SecurityGroupIds {
				out = append(out, membership{groupID: id, resource: res})
			}
		}
	}
	return out, nil
}
