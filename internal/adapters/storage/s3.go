package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"eventhub/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds configuration for the image store.
type Config struct {
	Provider        string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	KeyPrefix       string
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// s3API is the subset of the S3 client the store calls.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewImageStore returns an S3-backed ImageStore for provider "s3" and a store that
// keeps nothing otherwise.
func NewImageStore(cfg Config, logger *slog.Logger) domain.ImageStore {
	if cfg.Provider != "s3" {
		logger.Warn("image storage disabled, uploads are discarded", "provider", cfg.Provider)
		return &discardStore{prefix: cfg.KeyPrefix}
	}
	client := s3.NewFromConfig(aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg)
}

func newS3Store(client s3API, cfg Config) *s3Store {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &s3Store{client: client, bucket: cfg.Bucket, prefix: cfg.KeyPrefix, baseURL: base}
}

type s3Store struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
}

// sniff returns the detected content type and file extension. The declared type on the
// upload is ignored.
func sniff(img *domain.Image) (string, string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", "", domain.ErrUnsupportedImage
	}
	contentType := http.DetectContentType(img.Data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, contentType)
	}
	return contentType, ext, nil
}

func objectKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

func (s *s3Store) Upload(ctx context.Context, img *domain.Image) (*domain.StoredImage, error) {
	contentType, ext, err := sniff(img)
	if err != nil {
		return nil, err
	}
	key := objectKey(s.prefix, ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	return &domain.StoredImage{URL: s.baseURL + "/" + key, Key: key}, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// discardStore validates uploads like the S3 store but keeps nothing. For local runs.
type discardStore struct {
	prefix string
}

func (d *discardStore) Upload(ctx context.Context, img *domain.Image) (*domain.StoredImage, error) {
	_, ext, err := sniff(img)
	if err != nil {
		return nil, err
	}
	key := objectKey(d.prefix, ext)
	return &domain.StoredImage{URL: "/images/" + key, Key: key}, nil
}

func (d *discardStore) Delete(ctx context.Context, key string) error {
	return nil
}
