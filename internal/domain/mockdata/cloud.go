package mockdata

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/scoring"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

const mockAccountID = "123456789012"

var serviceDailyCost = []types.ServiceCost{
	{Service: "Amazon Elastic Compute Cloud - Compute", Amount: 120},
	{Service: "Amazon Relational Database Service", Amount: 64},
	{Service: "Amazon Elastic Kubernetes Service", Amount: 45},
	{Service: "Amazon Bedrock", Amount: 22},
	{Service: "Amazon Simple Storage Service", Amount: 15},
	{Service: "Amazon DynamoDB", Amount: 12},
	{Service: "AmazonCloudWatch", Amount: 9},
	{Service: "AWS Lambda", Amount: 6},
}

// Cost returns daily spend for the last days days, oldest first.
func (g *Generator) Cost(env string, days int) types.CostReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := environment.Lookup(env)
	if days <= 0 {
		days = 30
	}
	today := g.now().UTC().Truncate(24 * time.Hour)
	byService := make([]types.ServiceCost, len(serviceDailyCost))
	for i, s := range serviceDailyCost {
		byService[i].Service = s.Service
	}

	daily := make([]types.DailyCost, days)
	total := 0.0
	for d := range daily {
		date := today.AddDate(0, 0, d-days)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		dayTotal := 0.0
		for i, s := range serviceDailyCost {
			amt := s.Amount * p.CostScale * between(g.rng, 0.85, 1.15)
			if weekend {
				amt *= 0.8
			}
			amt = nonNegative(amt)
			byService[i].Amount += amt
			dayTotal += amt
		}
		daily[d] = types.DailyCost{Date: date.Format(time.DateOnly), Amount: round2(dayTotal)}
		total += dayTotal
	}
	for i := range byService {
		byService[i].Amount = round2(byService[i].Amount)
	}

	return types.CostReport{
		Provenance:  types.Provenance{Source: types.SourceMock},
		Environment: p.ID,
		Currency:    "USD",
		Total:       round2(total),
		ByService:   byService,
		Daily:       daily,
	}
}

var findingTemplates = []struct {
	title, resourceType, severity string
}{
	{"S3 general purpose buckets should block public access", "AwsS3Bucket", scoring.FindingHigh},
	{"Security groups should not allow unrestricted access to port 22", "AwsEc2SecurityGroup", scoring.FindingCritical},
	{"EBS default encryption should be enabled", "AwsAccount", scoring.FindingMedium},
	{"RDS DB instances should prohibit public access", "AwsRdsDbInstance", scoring.FindingCritical},
	{"IAM policies should not allow full administrative privileges", "AwsIamPolicy", scoring.FindingHigh},
	{"CloudTrail should have encryption at rest enabled", "AwsCloudTrailTrail", scoring.FindingMedium},
	{"EKS cluster endpoints should not be publicly accessible", "AwsEksCluster", scoring.FindingHigh},
	{"Lambda functions should use supported runtimes", "AwsLambdaFunction", scoring.FindingMedium},
	{"EC2 instances should use IMDSv2", "AwsEc2Instance", scoring.FindingHigh},
	{"VPC flow logging should be enabled in all VPCs", "AwsEc2Vpc", scoring.FindingMedium},
	{"S3 buckets should have server access logging enabled", "AwsS3Bucket", scoring.FindingLow},
	{"Unused IAM credentials should be removed", "AwsIamUser", scoring.FindingInformational},
}

// Findings returns Security Hub style findings for env.
func (g *Generator) Findings(env string) []types.Finding {
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "findings")
	now := g.now().UTC()

	out := make([]types.Finding, 0, len(findingTemplates))
	for i, t := range findingTemplates {
		// production accumulates more open findings
		if r.Float64() > 0.4+p.CostScale*0.5 {
			continue
		}
		status := "NEW"
		switch x := r.Float64(); {
		case x < 0.2:
			status = "RESOLVED"
		case x < 0.45:
			status = "NOTIFIED"
		}
		out = append(out, types.Finding{
			ID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/finding/%d", p.ID, i))).String(),
			Title:        t.title,
			Severity:     t.severity,
			ResourceType: t.resourceType,
			ResourceID:   fmt.Sprintf("arn:aws:%s:%s:%s/%s-%02d", serviceOf(t.resourceType), p.ID, mockAccountID, p.ID, i+1),
			Status:       status,
			UpdatedAt:    now.Add(-time.Duration(r.Intn(14*24)) * time.Hour).Format(time.RFC3339),
		})
	}
	return out
}

func serviceOf(resourceType string) string {
	switch resourceType {
	case "AwsS3Bucket":
		return "s3"
	case "AwsRdsDbInstance":
		return "rds"
	case "AwsIamPolicy", "AwsIamUser":
		return "iam"
	case "AwsEksCluster":
		return "eks"
	case "AwsLambdaFunction":
		return "lambda"
	case "AwsCloudTrailTrail":
		return "cloudtrail"
	default:
		return "ec2"
	}
}

// Security returns a scored security report for env.
func (g *Generator) Security(env string) types.SecurityReport {
	findings := g.Findings(env)
	summary, score := scoring.SecurityPosture(findings)
	return types.SecurityReport{
		Provenance:  types.Provenance{Source: types.SourceMock},
		Environment: environment.Normalize(env),
		Findings:    findings,
		Summary:     summary,
		Score:       score,
	}
}

var instanceTypes = []string{"t3.medium", "m5.large", "m6i.xlarge", "c6g.large", "r5.large"}

// Inventory returns discovered resources for env.
func (g *Generator) Inventory(env string) types.Inventory {
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "inventory")
	now := g.now().UTC()
	region := regionFor(p.ID)

	var res types.Resources
	for i, id := range ResourceIDs(p.ID, ResourceEC2, 0) {
		launched := now.Add(-time.Duration(24+r.Intn(24*120)) * time.Hour)
		state := "running"
		if r.Float64() < 0.15 {
			state = "stopped"
		}
		res.EC2 = append(res.EC2, types.Instance{
			ID:               id,
			Name:             fmt.Sprintf("%s-app-%02d", p.ID, i+1),
			Type:             pick(r, instanceTypes),
			State:            state,
			AvailabilityZone: region + string(rune('a'+i%3)),
			LaunchTime:       &launched,
		})
	}
	for _, id := range ResourceIDs(p.ID, ResourceRDS, p.Resources/4+1) {
		res.RDS = append(res.RDS, types.Database{
			ID:     id,
			Class:  pick(r, []string{"db.t3.medium", "db.r6g.large", "db.m5.large"}),
			Engine: pick(r, []string{"postgres", "mysql", "aurora-postgresql"}),
			Status: "available",
		})
	}
	for _, id := range ResourceIDs(p.ID, ResourceEKS, p.Resources/6+1) {
		res.EKS = append(res.EKS, types.Cluster{
			Name:     id,
			Version:  pick(r, []string{"1.29", "1.30", "1.31"}),
			Status:   "ACTIVE",
			Endpoint: fmt.Sprintf("https://%s.gr7.%s.eks.amazonaws.com", id, region),
		})
	}
	for _, suffix := range []string{"logs", "artifacts", "backups", "static"}[:2+r.Intn(3)] {
		created := now.Add(-time.Duration(24*(30+r.Intn(700))) * time.Hour)
		res.S3 = append(res.S3, types.Bucket{Name: fmt.Sprintf("tgs-%s-%s", p.ID, suffix), CreatedAt: &created})
	}
	for _, t := range []string{"sessions", "orders", "audit"}[:1+r.Intn(3)] {
		res.DynamoDB = append(res.DynamoDB, types.Table{Name: fmt.Sprintf("%s-%s", p.ID, t)})
	}

	return types.Inventory{
		Provenance:  types.Provenance{Source: types.SourceMock},
		Environment: p.ID,
		Resources:   res,
		Counts:      res.Counts(),
	}
}

func regionFor(env string) string {
	if env == environment.Prod {
		return "us-east-1"
	}
	return "us-west-2"
}

// Stacks returns CloudFormation stacks for env.
func (g *Generator) Stacks(env string) []types.Stack {
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "stacks")
	now := g.now().UTC()

	var out []types.Stack
	for _, name := range []string{"network", "data", "compute", "observability"} {
		stackName := p.ID + "-" + name
		created := now.Add(-time.Duration(24*(10+r.Intn(300))) * time.Hour)
		status := "CREATE_COMPLETE"
		if r.Float64() < 0.3 {
			status = "UPDATE_COMPLETE"
		}
		out = append(out, types.Stack{
			StackName:    stackName,
			StackID:      StackARN(regionFor(p.ID), stackName, uuid.NewSHA1(uuid.NameSpaceOID, []byte(stackName)).String()),
			Status:       status,
			Description:  fmt.Sprintf("%s %s resources", p.Name, name),
			CreationTime: &created,
		})
	}
	return out
}

// StackARN formats a CloudFormation stack id.
func StackARN(region, stackName, id string) string {
	return fmt.Sprintf("arn:aws:cloudformation:%s:%s:stack/%s/%s", region, mockAccountID, stackName, id)
}

// SageMakerEndpoints returns inference endpoints for env.
func (g *Generator) SageMakerEndpoints(env string) []types.Endpoint {
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "sagemaker")
	now := g.now().UTC()

	var out []types.Endpoint
	for _, name := range []string{"anomaly-detector", "forecaster", "log-classifier"}[:1+r.Intn(3)] {
		created := now.Add(-time.Duration(24*(1+r.Intn(90))) * time.Hour)
		status := "InService"
		if r.Float64() < 0.15 {
			status = "Updating"
		}
		out = append(out, types.Endpoint{
			Name:         fmt.Sprintf("%s-%s", p.ID, name),
			Status:       status,
			InstanceType: pick(r, []string{"ml.m5.large", "ml.c5.xlarge", "ml.g5.xlarge"}),
			CreatedAt:    &created,
		})
	}
	return out
}
