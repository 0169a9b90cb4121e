// Package s3 uploads run artifacts to an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lzhtan/intdb-bench/pkg/logger"
)

// Config holds configuration for the artifact upload.
type Config struct {
	// Bucket is the target bucket. Empty disables the upload.
	Bucket string `yaml:"bucket" env:"IB_S3_BUCKET"`
	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix" env:"IB_S3_PREFIX"`
	// Region is the AWS region for the bucket.
	Region string `yaml:"region" env:"IB_S3_REGION"`
	// Endpoint is an optional custom endpoint (for MinIO, LocalStack, etc.).
	Endpoint string `yaml:"endpoint" env:"IB_S3_ENDPOINT"`
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool `yaml:"use_path_style" env:"IB_S3_PATH_STYLE"`
}

// Enabled reports whether an upload target is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Bucket != ""
}

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies local files to the bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// New creates an uploader using the default AWS credential chain.
func New(ctx context.Context, cfg *Config) (*Uploader, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

// NewWithClient creates an uploader with a pre-configured client.
func NewWithClient(client PutObjectAPI, cfg *Config) *Uploader {
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Key returns the object key for a local file.
func (u *Uploader) Key(runID, localPath string) string {
	return path.Join(u.prefix, runID, filepath.Base(localPath))
}

// Upload uploads every file under runID and returns the written keys.
// All files are attempted; failures are joined.
func (u *Uploader) Upload(ctx context.Context, runID string, files ...string) ([]string, error) {
	var keys []string
	var errs []error
	for _, f := range files {
		key := u.Key(runID, f)
		if err := u.put(ctx, f, key); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("已上传 s3://%s/%s", u.bucket, key)
		keys = append(keys, key)
	}
	return keys, errors.Join(errs...)
}

func (u *Uploader) put(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("打开文件 %s 失败: %w", localPath, err)
	}
	defer file.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("上传 %s 失败: %w", key, err)
	}
	return nil
}
