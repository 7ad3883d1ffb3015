package service

import (
	"fmt"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/lunamoss/readmaster/config"
	"github.com/rs/zerolog/log"
)

// ObjectStorage issues time-limited signed URLs for direct client transfer.
// The API never proxies audio bytes; clients PUT straight to the bucket and
// the worker GETs from it.
type ObjectStorage interface {
	PresignUpload(objectKey, contentType string) (string, error)
	PresignDownload(objectKey string) (string, error)
}

type ossStorage struct {
	bucket      *oss.Bucket
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

func NewObjectStorage(cfg *config.Config) (ObjectStorage, error) {
	client, err := oss.New(cfg.Storage.Endpoint, cfg.Storage.AccessKeyID, cfg.Storage.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OSS client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open OSS bucket %s: %w", cfg.Storage.Bucket, err)
	}
	log.Info().Str("bucket", cfg.Storage.Bucket).Str("endpoint", cfg.Storage.Endpoint).Msg("Object storage initialized")
	return &ossStorage{
		bucket:      bucket,
		uploadTTL:   cfg.Storage.UploadTTL,
		downloadTTL: cfg.Storage.DownloadTTL,
	}, nil
}

func (s *ossStorage) PresignUpload(objectKey, contentType string) (string, error) {
	url, err := s.bucket.SignURL(objectKey, oss.HTTPPut, int64(s.uploadTTL.Seconds()), oss.ContentType(contentType))
	if err != nil {
		return "", fmt.Errorf("failed to sign upload URL for %s: %w", objectKey, err)
	}
	return url, nil
}

func (s *ossStorage) PresignDownload(objectKey string) (string, error) {
	url, err := s.bucket.SignURL(objectKey, oss.HTTPGet, int64(s.downloadTTL.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for %s: %w", objectKey, err)
	}
	return url, nil
}
