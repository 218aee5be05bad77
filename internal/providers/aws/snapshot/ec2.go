package awssnapshot

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// ipProtocolNames maps numeric protocol values to the names EC2 uses.
var ipProtocolNames = map[string]string{
	"1":  models.ProtocolICMP,
	"6":  models.ProtocolTCP,
	"17": models.ProtocolUDP,
	"58": models.ProtocolICMPv6,
}

// collectSecurityGroups pages through every security group in region and
// normalizes its inbound and outbound permissions.
func collectSecurityGroups(ctx context.Context, client ec2APIClient, region string) ([]models.SecurityGroup, error) {
	paginator := ec2svc.NewDescribeSecurityGroupsPaginator(client, &ec2svc.DescribeSecurityGroupsInput{})

	groups := []models.SecurityGroup{}
	for paginator.HasMorePages() {
		var page *ec2svc.DescribeSecurityGroupsOutput
		err := apiCall("ec2:DescribeSecurityGroups", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "describe security groups", Resource: region, Err: err}
		}
		for _, sg := range page.SecurityGroups {
			groups = append(groups, toSecurityGroup(sg, region))
		}
	}
	return groups, nil
}

func toSecurityGroup(sg ec2types.SecurityGroup, region string) models.SecurityGroup {
	out := models.SecurityGroup{
		GroupID:  aws.ToString(sg.GroupId),
		Name:     aws.ToString(sg.GroupName),
		VPCID:    aws.ToString(sg.VpcId),
		Region:   region,
		Inbound:  make([]models.SecurityGroupRule, 0, len(sg.IpPermissions)),
		Outbound: make([]models.SecurityGroupRule, 0, len(sg.IpPermissionsEgress)),
	}
	if len(sg.Tags) > 0 {
		out.Tags = make(map[string]string, len(sg.Tags))
		for _, t := range sg.Tags {
			out.Tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}
	}
	for _, p := range sg.IpPermissions {
		out.Inbound = append(out.Inbound, toRule(p, models.Inbound))
	}
	for _, p := range sg.IpPermissionsEgress {
		out.Outbound = append(out.Outbound, toRule(p, models.Outbound))
	}
	return out
}

// toRule converts one EC2 permission entry. Protocol "-1" covers every
// port, so both port fields become AllPorts regardless of what EC2 sent.
// The description is the first non-empty one across the entry's peers.
func toRule(p ec2types.IpPermission, dir models.Direction) models.SecurityGroupRule {
	proto := strings.ToLower(aws.ToString(p.IpProtocol))
	if name, ok := ipProtocolNames[proto]; ok {
		proto = name
	}

	rule := models.SecurityGroupRule{
		Direction: dir,
		Protocol:  proto,
		FromPort:  models.AllPorts,
		ToPort:    models.AllPorts,
		Sources:   []models.Source{},
	}
	if proto != models.ProtocolAll {
		if p.FromPort != nil {
			rule.FromPort = int(aws.ToInt32(p.FromPort))
		}
		if p.ToPort != nil {
			rule.ToPort = int(aws.ToInt32(p.ToPort))
		}
	}

	describe := func(d *string) {
		if rule.Description == "" {
			rule.Description = strings.TrimSpace(aws.ToString(d))
		}
	}
	for _, r := range p.IpRanges {
		rule.Sources = append(rule.Sources, models.Source{Kind: models.SourceIPv4, Value: aws.ToString(r.CidrIp)})
		describe(r.Description)
	}
	for _, r := range p.Ipv6Ranges {
		rule.Sources = append(rule.Sources, models.Source{Kind: models.SourceIPv6, Value: aws.ToString(r.CidrIpv6)})
		describe(r.Description)
	}
	for _, pair := range p.UserIdGroupPairs {
		rule.Sources = append(rule.Sources, models.Source{Kind: models.SourceSecurityGroup, Value: aws.ToString(pair.GroupId)})
		describe(pair.Description)
	}
	for _, pl := range p.PrefixListIds {
		rule.Sources = append(rule.Sources, models.Source{Kind: models.SourcePrefixList, Value: aws.ToString(pl.PrefixListId)})
		describe(pl.Description)
	}
	return rule
}
