package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

// presignTTL is the longest expiry SigV4 allows.
const presignTTL = 7 * 24 * time.Hour

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Adapter struct {
	client    objectAPI
	presign   func(ctx context.Context, bucket, key string) (string, error)
	bucket    string
	publicURL string
	logger    logger.Logger
}

var _ service.Uploader = (*s3Adapter)(nil)

// NewS3Adapter works against AWS S3 or any S3 compatible endpoint such as
// Cloudflare R2 or MinIO.
func NewS3Adapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket has not config")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})
	presignClient := s3.NewPresignClient(client)

	log.Info("S3 storage initialized", zap.String("bucket", cfg.S3.Bucket))
	return &s3Adapter{
		client: client,
		presign: func(ctx context.Context, bucket, key string) (string, error) {
			req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}, s3.WithPresignExpires(presignTTL))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		bucket:    cfg.S3.Bucket,
		publicURL: cfg.S3.PublicURL,
		logger:    log,
	}, nil
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".xlsx":
		return spreadsheet.ContentType
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func (a *s3Adapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	key := strings.TrimPrefix(path.Join(folder, publicID), "/")

	// PutObject needs a seekable body to compute the length and checksum.
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentTypeFor(key)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	a.logger.Debug("Uploaded to S3", zap.String("key", key), zap.Int("bytes", len(data)))

	if a.publicURL != "" {
		return strings.TrimSuffix(a.publicURL, "/") + "/" + key, nil
	}
	url, err := a.presign(ctx, a.bucket, key)
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 object: %w", err)
	}
	return url, nil
}

func (a *s3Adapter) Delete(ctx context.Context, publicID string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete S3 object: %w", err)
	}
	return nil
}
