// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adspoint/adspoint-backend/internal/config"
)

// StorageService keeps offer creatives (images, videos) in S3. When no
// AWS credentials are configured it degrades to a stub suitable for
// local development.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type CreativeUpload struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

const (
	creativeMaxSize = 20 * 1024 * 1024
	creativeFolder  = "creatives"
)

var creativeExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4"}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// UploadCreative stores an advertiser's creative and returns the key
// to attach to the offer.
func (s *StorageService) UploadCreative(file multipart.File, header *multipart.FileHeader) (*CreativeUpload, error) {
	if header.Size > creativeMaxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds the %d byte limit", header.Size, creativeMaxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, e := range creativeExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	key := s.creativeKey(ext)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")

	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("S3 not configured, creative stored as stub")
		return &CreativeUpload{
			URL:      fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key),
			Key:      key,
			Size:     int64(len(fileBytes)),
			MimeType: contentType,
		}, nil
	}

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &CreativeUpload{
		URL:      s.creativeURL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteCreative(key string) error {
	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("S3 not configured, skipping creative delete")
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete creative from S3: %w", err)
	}
	return nil
}

// PresignCreativeURL grants temporary read access for a publisher
// reviewing the creative before responding.
func (s *StorageService) PresignCreativeURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *StorageService) creativeKey(ext string) string {
	return fmt.Sprintf("%s/%s_%s%s",
		creativeFolder,
		time.Now().Format("20060102"),
		uuid.New().String()[:8],
		ext,
	)
}

func (s *StorageService) creativeURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.AWS.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
