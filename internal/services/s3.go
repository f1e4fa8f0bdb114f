// services/s3.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

// ImageStore persists generated product images and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, data []byte) (*UploadResult, error)
	Delete(ctx context.Context, url string) error
}

type S3Service struct {
	client     *s3.S3
	bucketName string
	region     string
}

func NewS3Service(region, bucketName string, accessKey, secretKey string) *S3Service {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			accessKey,
			secretKey,
			"",
		),
	}))

	return &S3Service{
		client:     s3.New(sess),
		bucketName: bucketName,
		region:     region,
	}
}

type UploadResult struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// SniffImage detects the image type of data and returns its MIME type and extension.
func SniffImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("empty image")
	}
	if len(data) > maxImageSize {
		return "", "", fmt.Errorf("image too large: %d bytes (max: %d bytes)", len(data), maxImageSize)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", "", fmt.Errorf("detect image type: %w", err)
	}
	if !filetype.IsImage(data) || kind == filetype.Unknown {
		return "", "", fmt.Errorf("invalid file type: %s", kind.MIME.Value)
	}
	return kind.MIME.Value, kind.Extension, nil
}

// GeneratedImageKey lays generated images out by day.
func GeneratedImageKey(now time.Time, ext string) string {
	return fmt.Sprintf("products/generated/%s/%s.%s", now.Format("2006/01/02"), uuid.New().String(), ext)
}

func (s *S3Service) Put(ctx context.Context, data []byte) (*UploadResult, error) {
	contentType, ext, err := SniffImage(data)
	if err != nil {
		return nil, err
	}
	key := GeneratedImageKey(time.Now(), ext)

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"), // 1 year cache
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %v", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         s.publicURL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes an object previously returned by Put. URLs outside the
// bucket are ignored.
func (s *S3Service) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Service) publicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}

func (s *S3Service) keyFromURL(url string) (string, bool) {
	prefix := s.publicURL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
