package sidecar

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store writes artifacts as objects under a bucket prefix, for
// deployments where the output directory is not local durable storage.
type S3Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

// S3Config configures NewS3Store. AccessKey/SecretKey are optional; when
// empty the default AWS credential chain is used.
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Store builds an S3Store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sidecar: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Store{client: awss3.NewFromConfig(awsCfg, s3Opts...), bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) Put(ctx context.Context, lineIndex int, name, mime string, data []byte) (string, error) {
	key := fmt.Sprintf("%sline_%d/%s", s.prefix, lineIndex, name)
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mime),
	})
	if err != nil {
		return "", fmt.Errorf("sidecar: s3 put: %w", err)
	}
	return key, nil
}
