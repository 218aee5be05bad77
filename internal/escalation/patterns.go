package escalation

// Pattern is a known privilege-escalation chain: a principal holding every
// action in Required can grant itself broader access.
type Pattern struct {
	ID          string
	Description string
	Required    []string
	// PassRoleService, when set, is the service principal a passed role must
	// trust (e.g. "lambda.amazonaws.com"); matching roles become hops.
	PassRoleService string
}

// Patterns is the fixed pattern library in evaluation order.
var Patterns = []Pattern{
	{
		ID:          "create_access_key",
		Description: "Can create access keys for other users and act as them.",
		Required:    []string{"iam:CreateAccessKey"},
	},
	{
		ID:          "create_login_profile",
		Description: "Can set a console password on a user without one and sign in as them.",
		Required:    []string{"iam:CreateLoginProfile"},
	},
	{
		ID:          "update_login_profile",
		Description: "Can reset another user's console password.",
		Required:    []string{"iam:UpdateLoginProfile"},
	},
	{
		ID:          "create_user_attach_policy",
		Description: "Can create a new user and attach any managed policy to it.",
		Required:    []string{"iam:CreateUser", "iam:AttachUserPolicy"},
	},
	{
		ID:          "attach_user_policy",
		Description: "Can attach any managed policy, including AdministratorAccess, to a user.",
		Required:    []string{"iam:AttachUserPolicy"},
	},
	{
		ID:          "attach_group_policy",
		Description: "Can attach any managed policy to a group it belongs to.",
		Required:    []string{"iam:AttachGroupPolicy"},
	},
	{
		ID:          "attach_role_policy",
		Description: "Can attach any managed policy to a role it can assume.",
		Required:    []string{"iam:AttachRolePolicy"},
	},
	{
		ID:          "put_user_policy",
		Description: "Can write an arbitrary inline policy on a user.",
		Required:    []string{"iam:PutUserPolicy"},
	},
	{
		ID:          "put_group_policy",
		Description: "Can write an arbitrary inline policy on a group.",
		Required:    []string{"iam:PutGroupPolicy"},
	},
	{
		ID:          "put_role_policy",
		Description: "Can write an arbitrary inline policy on a role.",
		Required:    []string{"iam:PutRolePolicy"},
	},
	{
		ID:          "create_policy_version",
		Description: "Can publish a new default version of a customer-managed policy.",
		Required:    []string{"iam:CreatePolicyVersion"},
	},
	{
		ID:          "set_default_policy_version",
		Description: "Can switch a managed policy to a more permissive existing version.",
		Required:    []string{"iam:SetDefaultPolicyVersion"},
	},
	{
		ID:          "add_user_to_group",
		Description: "Can add itself to a more privileged group.",
		Required:    []string{"iam:AddUserToGroup"},
	},
	{
		ID:          "update_assume_role_policy",
		Description: "Can rewrite a role trust policy to allow itself to assume the role.",
		Required:    []string{"iam:UpdateAssumeRolePolicy"},
	},
	{
		ID:              "passrole_lambda",
		Description:     "Can pass a privileged role to a new Lambda function and invoke it.",
		Required:        []string{"iam:PassRole", "lambda:CreateFunction", "lambda:InvokeFunction"},
		PassRoleService: "lambda.amazonaws.com",
	},
	{
		ID:              "passrole_ec2",
		Description:     "Can launch an EC2 instance with a privileged instance profile.",
		Required:        []string{"iam:PassRole", "ec2:RunInstances"},
		PassRoleService: "ec2.amazonaws.com",
	},
	{
		ID:              "passrole_cloudformation",
		Description:     "Can create a CloudFormation stack that runs as a privileged role.",
		Required:        []string{"iam:PassRole", "cloudformation:CreateStack"},
		PassRoleService: "cloudformation.amazonaws.com",
	},
	{
		ID:              "passrole_glue",
		Description:     "Can create a Glue development endpoint running as a privileged role.",
		Required:        []string{"iam:PassRole", "glue:CreateDevEndpoint"},
		PassRoleService: "glue.amazonaws.com",
	},
	{
		ID:          "update_lambda_code",
		Description: "Can replace the code of an existing Lambda function and inherit its role.",
		Required:    []string{"lambda:UpdateFunctionCode"},
	},
}
