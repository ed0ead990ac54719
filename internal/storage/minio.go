package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOArchiver 报表归档到 MinIO
type MinIOArchiver struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOArchiver 创建归档客户端，bucket 不存在时自动创建
func NewMinIOArchiver(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*MinIOArchiver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &MinIOArchiver{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Upload 上传对象，返回对象键
func (m *MinIOArchiver) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	m.logger.Info("Report archived", zap.String("bucket", m.bucket), zap.String("key", key))
	return key, nil
}
