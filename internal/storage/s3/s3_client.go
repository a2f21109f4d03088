package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"paperledger/internal/config"
	"paperledger/internal/port"
)

type s3Client struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
	spoolDir   string
}

// NewS3Client creates an S3-backed FileStore. Objects are downloaded into
// spoolDir, which must be readable by the OCR backend.
func NewS3Client(cfg *config.S3Config, spoolDir string) (port.FileStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Client{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		spoolDir:   spoolDir,
	}, nil
}

// Localize downloads the object into the spool directory under a unique name
// that keeps the original extension.
func (c *s3Client) Localize(ctx context.Context, key string) (string, func(), error) {
	path := filepath.Join(c.spoolDir, uuid.New().String()+filepath.Ext(key))
	f, err := os.Create(path)
	if err != nil {
		return "", func() {}, fmt.Errorf("s3 spool create: %w", err)
	}
	release := func() { _ = os.Remove(path) }

	_, err = c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	closeErr := f.Close()
	if err != nil {
		release()
		return "", func() {}, fmt.Errorf("s3 download: %w", err)
	}
	if closeErr != nil {
		release()
		return "", func() {}, fmt.Errorf("s3 spool close: %w", closeErr)
	}
	return path, release, nil
}

func (c *s3Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head: %w", err)
}
