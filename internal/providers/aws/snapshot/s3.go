package awssnapshot

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// collectBuckets lists the buckets located in region and reads each
// bucket's policy and tags. A bucket without a policy has Policy == nil.
// Policy and tag lookup failures are logged and leave the field empty.
func collectBuckets(ctx context.Context, client s3APIClient, region string) ([]models.S3Bucket, error) {
	paginator := s3svc.NewListBucketsPaginator(client, &s3svc.ListBucketsInput{
		BucketRegion: aws.String(region),
	})

	buckets := []models.S3Bucket{}
	for paginator.HasMorePages() {
		var page *s3svc.ListBucketsOutput
		err := apiCall("s3:ListBuckets", region, func() (err error) {
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, &models.CollectionError{Op: "list buckets", Resource: region, Err: err}
		}
		for _, b := range page.Buckets {
			bucketRegion := aws.ToString(b.BucketRegion)
			if bucketRegion == "" {
				bucketRegion = region
			}
			buckets = append(buckets, models.S3Bucket{Name: aws.ToString(b.Name), Region: bucketRegion})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i := range buckets {
		i := i
		g.Go(func() error {
			enrichBucket(gctx, client, region, &buckets[i])
			return nil
		})
	}
	_ = g.Wait()
	return buckets, nil
}

func enrichBucket(ctx context.Context, client s3APIClient, region string, b *models.S3Bucket) {
	name := aws.String(b.Name)

	var pol *s3svc.GetBucketPolicyOutput
	err := apiCall("s3:GetBucketPolicy", region, func() (err error) {
		pol, err = client.GetBucketPolicy(ctx, &s3svc.GetBucketPolicyInput{Bucket: name})
		return err
	})
	switch {
	case err == nil:
		if raw := aws.ToString(pol.Policy); raw != "" {
			doc, perr := models.ParsePolicyDocument(raw)
			if perr != nil {
				warnLookup("parse bucket policy", b.Name, perr)
			} else {
				b.Policy = &doc
			}
		}
	case common.IsNotFound(err):
	default:
		warnLookup("get bucket policy", b.Name, err)
	}

	var tagging *s3svc.GetBucketTaggingOutput
	err = apiCall("s3:GetBucketTagging", region, func() (err error) {
		tagging, err = client.GetBucketTagging(ctx, &s3svc.GetBucketTaggingInput{Bucket: name})
		return err
	})
	switch {
	case err == nil:
		if len(tagging.TagSet) > 0 {
			b.Tags = make(map[string]string, len(tagging.TagSet))
			for _, t := range tagging.TagSet {
				b.Tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
			}
		}
	case common.IsNotFound(err):
	default:
		warnLookup("get bucket tagging", b.Name, err)
	}
}
