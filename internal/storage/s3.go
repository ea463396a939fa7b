package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/xerrors"
)

type s3Storage struct {
	client *s3.Client
	config S3Config
}

type S3Config struct {
	Bucket string
}

// NewS3Storage creates a storage backend over a bucket. Roots are key
// prefixes and locations are keys or s3://bucket/key URLs.
func NewS3Storage(ctx context.Context, s S3Config) (Storage, error) {
	if s.Bucket == "" {
		return nil, xerrors.New("S3 bucket is not configured")
	}

	var optsFunc []func(*config.LoadOptions) error

	s3EndpointUrl, ok := os.LookupEnv("S3_ENDPOINT_URL")
	if ok {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               s3EndpointUrl,
				HostnameImmutable: true,
			}, nil
		})
		optsFunc = append(optsFunc, config.WithEndpointResolverWithOptions(resolver))
	}

	c, err := config.LoadDefaultConfig(ctx, optsFunc...)
	if err != nil {
		return nil, xerrors.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(c, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &s3Storage{
		client: s3Client,
		config: s,
	}, nil
}

// prefix turns a root into the key prefix objects below it share.
func prefix(root string) string {
	p := strings.TrimPrefix(path.Clean("/"+root), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *s3Storage) Exists(ctx context.Context, root string) (bool, error) {
	result, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.config.Bucket),
		Prefix:  aws.String(prefix(root)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, xerrors.Errorf("failed to list S3 prefix %s: %w", root, err)
	}

	return len(result.Contents) > 0, nil
}

func (s *s3Storage) List(ctx context.Context, root string, ext string) ([]string, error) {
	keys := []string{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix(root)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to list S3 objects under %s: %w", root, err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if strings.HasSuffix(key, "/") || !hasExtension(path.Base(key), ext) {
				continue
			}
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (s *s3Storage) Relative(root string, location string) (string, bool) {
	key := strings.TrimPrefix(location, fmt.Sprintf("s3://%s/", s.config.Bucket))
	return strings.CutPrefix(key, prefix(root))
}

func (s *s3Storage) Get(ctx context.Context, location string) ([]byte, error) {
	key := strings.TrimPrefix(location, fmt.Sprintf("s3://%s/", s.config.Bucket))

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	var buffer bytes.Buffer
	_, err = buffer.ReadFrom(result.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to read S3 object: %w", err)
	}

	return buffer.Bytes(), nil
}
