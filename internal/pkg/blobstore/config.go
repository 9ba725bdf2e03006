package blobstore

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
)

// Config holds S3 blob storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional base URL for public object access
}

// LoadConfig loads blob storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "ap-south-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// ObjectKey builds a unique key for a submitted photo. Every upload gets a
// fresh key (owner + timestamp + uuid), no overwrite semantics needed.
func (c *Config) ObjectKey(userID uint, uploadUUID, fileExtension string) string {
	now := time.Now()
	return fmt.Sprintf("reports/%d/%d-%s%s", userID, now.Unix(), uploadUUID, fileExtension)
}

// PublicURL returns the dereferenceable URL for an object key.
func (c *Config) PublicURL(key string) string {
	if base := strings.TrimRight(c.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if endpoint := strings.TrimRight(c.EndpointURL, "/"); endpoint != "" {
		return endpoint + "/" + path.Join(c.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, key)
}
