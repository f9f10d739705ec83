package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

type S3Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicURL prefixes object URLs as <PublicURL>/<bucket>/<path>.
	PublicURL string
}

// S3Store writes to any S3-compatible endpoint, including Supabase's.
type S3Store struct {
	client    *s3.Client
	publicURL string
	log       zerolog.Logger
}

func NewS3Store(ctx context.Context, opts S3Options, log zerolog.Logger) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	public := opts.PublicURL
	if public == "" {
		public = opts.Endpoint
	}
	return &S3Store{
		client:    client,
		publicURL: strings.TrimRight(public, "/"),
		log:       log.With().Str("component", "storage").Str("backend", "s3").Logger(),
	}, nil
}

func (s *S3Store) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		s.log.Warn().Err(err).Str("bucket", bucket).Msg("head bucket failed, continuing with upload")
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if public {
		in.ACL = types.BucketCannedACLPublicRead
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	s.log.Info().Str("bucket", bucket).Msg("bucket created")
	return nil
}

func (s *S3Store) Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(path),
		Body:         r,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=" + cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", bucket, path, err)
	}
	return s.PublicURL(bucket, path), nil
}

func (s *S3Store) PublicURL(bucket, path string) string {
	return s.publicURL + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}

func (s *S3Store) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	ids := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(p)})
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("remove from %s: %w", bucket, err)
	}
	return nil
}
