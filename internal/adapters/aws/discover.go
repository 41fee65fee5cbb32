package aws

import (
	"context"
	"sort"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

const maxClusterDescribes = 4

// Discover lists EC2, RDS, EKS, S3 and DynamoDB resources concurrently. The
// first failure cancels the remaining calls and is returned.
func (s *Services) Discover(ctx context.Context) (types.Resources, error) {
	res := types.Resources{
		EC2:      []types.Instance{},
		RDS:      []types.Database{},
		EKS:      []types.Cluster{},
		S3:       []types.Bucket{},
		DynamoDB: []types.Table{},
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.EC2, err = s.instances(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.RDS, err = s.databases(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.EKS, err = s.clusters(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.S3, err = s.buckets(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.DynamoDB, err = s.tables(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Resources{}, err
	}
	return res, nil
}

func (s *Services) instances(ctx context.Context) ([]types.Instance, error) {
	out := []types.Instance{}
	err := s.call(ctx, "ec2", "DescribeInstances", func(ctx context.Context) error {
		p := ec2.NewDescribeInstancesPaginator(s.clients.EC2, &ec2.DescribeInstancesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, r := range page.Reservations {
				for _, in := range r.Instances {
					inst := types.Instance{
						ID:         sdkaws.ToString(in.InstanceId),
						Type:       string(in.InstanceType),
						LaunchTime: in.LaunchTime,
					}
					if in.State != nil {
						inst.State = string(in.State.Name)
					}
					if in.Placement != nil {
						inst.AvailabilityZone = sdkaws.ToString(in.Placement.AvailabilityZone)
					}
					for _, t := range in.Tags {
						if sdkaws.ToString(t.Key) == "Name" {
							inst.Name = sdkaws.ToString(t.Value)
						}
					}
					out = append(out, inst)
				}
			}
		}
		return nil
	})
	return out, err
}

func (s *Services) databases(ctx context.Context) ([]types.Database, error) {
	out := []types.Database{}
	err := s.call(ctx, "rds", "DescribeDBInstances", func(ctx context.Context) error {
		p := rds.NewDescribeDBInstancesPaginator(s.clients.RDS, &rds.DescribeDBInstancesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, db := range page.DBInstances {
				out = append(out, types.Database{
					ID:     sdkaws.ToString(db.DBInstanceIdentifier),
					Class:  sdkaws.ToString(db.DBInstanceClass),
					Engine: sdkaws.ToString(db.Engine),
					Status: sdkaws.ToString(db.DBInstanceStatus),
				})
			}
		}
		return nil
	})
	return out, err
}

func (s *Services) clusters(ctx context.Context) ([]types.Cluster, error) {
	var names []string
	err := s.call(ctx, "eks", "ListClusters", func(ctx context.Context) error {
		p := eks.NewListClustersPaginator(s.clients.EKS, &eks.ListClustersInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			names = append(names, page.Clusters...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.Cluster, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxClusterDescribes)
	for i, name := range names {
		g.Go(func() error {
			return s.call(ctx, "eks", "DescribeCluster", func(ctx context.Context) error {
				resp, err := s.clients.EKS.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: sdkaws.String(name)})
				if err != nil {
					return err
				}
				c := types.Cluster{Name: name}
				if resp.Cluster != nil {
					c.Version = sdkaws.ToString(resp.Cluster.Version)
					c.Status = string(resp.Cluster.Status)
					c.Endpoint = sdkaws.ToString(resp.Cluster.Endpoint)
				}
				out[i] = c
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Services) buckets(ctx context.Context) ([]types.Bucket, error) {
	out := []types.Bucket{}
	err := s.call(ctx, "s3", "ListBuckets", func(ctx context.Context) error {
		resp, err := s.clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return err
		}
		for _, b := range resp.Buckets {
			out = append(out, types.Bucket{Name: sdkaws.ToString(b.Name), CreatedAt: b.CreationDate})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (s *Services) tables(ctx context.Context) ([]types.Table, error) {
	out := []types.Table{}
	err := s.call(ctx, "dynamodb", "ListTables", func(ctx context.Context) error {
		p := dynamodb.NewListTablesPaginator(s.clients.DynamoDB, &dynamodb.ListTablesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, name := range page.TableNames {
				out = append(out, types.Table{Name: name})
			}
		}
		return nil
	})
	return out, err
}
