// Package s3 implements media.StorageProvider on an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectAPI is the subset of the S3 client used by Provider.
type objectAPI interface {
	awss3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Provider lists and reads objects from a single bucket.
type Provider struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// New creates a bucket provider. When publicBaseURL is empty, AccessPath
// builds the virtual-hosted URL https://{bucket}.s3.{region}.amazonaws.com.
func New(client objectAPI, bucket, region, publicBaseURL string) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Provider{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// List pages through every object in the bucket.
func (p *Provider) List(ctx context.Context) ([]string, error) {
	paginator := awss3.NewListObjectsV2Paginator(p.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", p.bucket, err)
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// Open fetches an object body; the caller closes it.
func (p *Provider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

// AccessPath returns the public URL of key.
func (p *Provider) AccessPath(key string) string {
	return p.baseURL + "/" + strings.TrimLeft(key, "/")
}
