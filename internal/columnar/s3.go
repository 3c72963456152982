package columnar

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/guttosm/b3cotahist/internal/logger"
)

// S3Config locates the bucket artifacts are mirrored to.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// s3API is the slice of *s3.Client the mirror uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Mirror uploads artifacts to and downloads them from an S3 bucket.
type S3Mirror struct {
	client  s3API
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewS3Mirror builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Mirror(ctx context.Context, cfg S3Config) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newS3Mirror(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Mirror(client s3API, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix, timeout: 2 * time.Minute}
}

// Key is the object key of an artifact file name.
func (m *S3Mirror) Key(name string) string {
	return path.Join(m.prefix, name)
}

// Upload puts the file at p under the mirror prefix, keyed by its base name.
func (m *S3Mirror) Upload(ctx context.Context, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	key := m.Key(filepath.Base(p))
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/octet-stream"),
		Metadata:    map[string]string{"content-type": "parquet"},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, key, err)
	}
	logger.L().Info().Str("bucket", m.bucket).Str("key", key).Msg("Artifact mirrored to S3")
	return nil
}

// Download fetches object name into dst, writing through a temp file.
func (m *S3Mirror) Download(ctx context.Context, name, dst string) error {
	key := m.Key(name)
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", m.bucket, key, err)
	}
	defer out.Body.Close()

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
