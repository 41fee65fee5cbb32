package aws

import (
	"context"
	"errors"
	"sort"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// live stack states; deleted stacks are hidden
var activeStackStatuses = []cftypes.StackStatus{
	cftypes.StackStatusCreateInProgress,
	cftypes.StackStatusCreateFailed,
	cftypes.StackStatusCreateComplete,
	cftypes.StackStatusRollbackInProgress,
	cftypes.StackStatusRollbackFailed,
	cftypes.StackStatusRollbackComplete,
	cftypes.StackStatusDeleteInProgress,
	cftypes.StackStatusDeleteFailed,
	cftypes.StackStatusUpdateInProgress,
	cftypes.StackStatusUpdateCompleteCleanupInProgress,
	cftypes.StackStatusUpdateComplete,
	cftypes.StackStatusUpdateFailed,
	cftypes.StackStatusUpdateRollbackInProgress,
	cftypes.StackStatusUpdateRollbackFailed,
	cftypes.StackStatusUpdateRollbackCompleteCleanupInProgress,
	cftypes.StackStatusUpdateRollbackComplete,
}

// ListStacks returns every live stack, newest first.
func (s *Services) ListStacks(ctx context.Context) ([]types.Stack, error) {
	out := []types.Stack{}
	err := s.call(ctx, "cloudformation", "ListStacks", func(ctx context.Context) error {
		p := cloudformation.NewListStacksPaginator(s.clients.CloudFormation, &cloudformation.ListStacksInput{
			StackStatusFilter: activeStackStatuses,
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, sum := range page.StackSummaries {
				out = append(out, types.Stack{
					StackName:    sdkaws.ToString(sum.StackName),
					StackID:      sdkaws.ToString(sum.StackId),
					Status:       string(sum.StackStatus),
					Description:  sdkaws.ToString(sum.TemplateDescription),
					CreationTime: sum.CreationTime,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreationTime, out[j].CreationTime
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return out, nil
}

// CreateStack submits a stack and returns its id. The client request token
// makes retries of the same submission idempotent on the AWS side as well.
func (s *Services) CreateStack(ctx context.Context, in types.CreateStackInput) (string, error) {
	input := &cloudformation.CreateStackInput{
		StackName: sdkaws.String(in.StackName),
		Tags: []cftypes.Tag{
			{Key: sdkaws.String("managed-by"), Value: sdkaws.String("aiops-console")},
			{Key: sdkaws.String("environment"), Value: sdkaws.String(in.Environment)},
		},
	}
	if in.TemplateBody != "" {
		input.TemplateBody = sdkaws.String(in.TemplateBody)
	} else {
		input.TemplateURL = sdkaws.String(in.TemplateURL)
	}
	if in.ClientRequestToken != "" {
		input.ClientRequestToken = sdkaws.String(in.ClientRequestToken)
	}
	keys := make([]string, 0, len(in.Parameters))
	for k := range in.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		input.Parameters = append(input.Parameters, cftypes.Parameter{
			ParameterKey:   sdkaws.String(k),
			ParameterValue: sdkaws.String(in.Parameters[k]),
		})
	}
	for _, c := range in.Capabilities {
		input.Capabilities = append(input.Capabilities, cftypes.Capability(c))
	}

	var stackID string
	err := s.call(ctx, "cloudformation", "CreateStack", func(ctx context.Context) error {
		out, err := s.clients.CloudFormation.CreateStack(ctx, input)
		if err != nil {
			return err
		}
		stackID = sdkaws.ToString(out.StackId)
		return nil
	})
	if err != nil {
		if isAlreadyExists(err) {
			return "", errors.Join(ErrStackExists, err)
		}
		return "", err
	}
	return stackID, nil
}

// DeleteStack deletes stackName. It returns ErrStackNotFound when the stack
// does not exist, since CloudFormation silently accepts such deletes.
func (s *Services) DeleteStack(ctx context.Context, stackName string) error {
	err := s.call(ctx, "cloudformation", "DescribeStacks", func(ctx context.Context) error {
		out, err := s.clients.CloudFormation.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			StackName: sdkaws.String(stackName),
		})
		if err != nil {
			return err
		}
		if len(out.Stacks) == 0 || out.Stacks[0].StackStatus == cftypes.StackStatusDeleteComplete {
			return ErrStackNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStackNotFound) || isStackMissing(err) {
			return ErrStackNotFound
		}
		return err
	}

	return s.call(ctx, "cloudformation", "DeleteStack", func(ctx context.Context) error {
		_, err := s.clients.CloudFormation.DeleteStack(ctx, &cloudformation.DeleteStackInput{
			StackName: sdkaws.String(stackName),
		})
		return err
	})
}
