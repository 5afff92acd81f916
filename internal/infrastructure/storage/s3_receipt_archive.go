// Package storage archives rendered documents in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	appfinance "github.com/schoolerp/feeledger/internal/application/finance"
	infraconfig "github.com/schoolerp/feeledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// S3ReceiptArchive stores receipt PDFs under receipts/<school>/<number>.pdf.
// Works with AWS S3 and S3-compatible servers such as MinIO.
type S3ReceiptArchive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// Option configures S3ReceiptArchive
type Option func(*S3ReceiptArchive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3ReceiptArchive) {
		s.logger = logger
	}
}

// NewS3ReceiptArchive builds an S3 client from storage configuration
func NewS3ReceiptArchive(cfg *infraconfig.StorageConfig, opts ...Option) (*S3ReceiptArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
		// S3-compatible servers do not all accept streamed trailing checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	a := &S3ReceiptArchive{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.presignExpiration <= 0 {
		a.presignExpiration = 15 * time.Minute
	}
	return a, nil
}

// ReceiptKey returns the object key of a receipt
func ReceiptKey(tenantID uuid.UUID, receiptNumber string) string {
	return path.Join("receipts", tenantID.String(), receiptNumber+".pdf")
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3ReceiptArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating receipt bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutReceipt uploads a rendered receipt, replacing an earlier rendering
func (s *S3ReceiptArchive) PutReceipt(ctx context.Context, tenantID uuid.UUID, receiptNumber string, pdf []byte) error {
	if receiptNumber == "" {
		return errors.New("receipt number is required")
	}
	key := ReceiptKey(tenantID, receiptNumber)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentLength: aws.Int64(int64(len(pdf))),
		ContentType:   aws.String(pdfContentType),
		Metadata: map[string]string{
			"school-id":      tenantID.String(),
			"receipt-number": receiptNumber,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload receipt %s: %w", receiptNumber, err)
	}
	s.logger.Debug("Receipt archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(pdf)))
	return nil
}

// ReceiptURL returns a presigned download URL for an archived receipt
func (s *S3ReceiptArchive) ReceiptURL(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (string, time.Time, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ReceiptKey(tenantID, receiptNumber)),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign receipt URL: %w", err)
	}
	return req.URL, time.Now().Add(s.presignExpiration), nil
}

// Bucket returns the bucket name
func (s *S3ReceiptArchive) Bucket() string {
	return s.bucket
}

var _ appfinance.ReceiptArchive = (*S3ReceiptArchive)(nil)
