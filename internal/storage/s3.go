package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"avatar-chat/internal/config"
)

type S3Api interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3AudioStore struct {
	client S3Api
	bucket string
	prefix string
}

var _ AudioStore = (*S3AudioStore)(nil)

func NewS3AudioStore(ctx context.Context, cfg config.AudioConfig) (*S3AudioStore, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 audio store requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO and friends want path-style addressing.
			o.UsePathStyle = true
		}
	})
	return NewS3AudioStoreFromClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func NewS3AudioStoreFromClient(client S3Api, bucket, prefix string) *S3AudioStore {
	return &S3AudioStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3AudioStore) Put(ctx context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload audio to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3AudioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, ErrNotFound
	}
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch audio s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3AudioStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
