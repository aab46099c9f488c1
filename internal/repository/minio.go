package repository

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/config"
)

// ObjectStorage хранит выгрузки результатов квизов.
type ObjectStorage interface {
	PutObject(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	PresignedGetURL(ctx context.Context, name string, expiry time.Duration) (string, error)
	ObjectExists(ctx context.Context, name string) (bool, error)
}

type MinIORepository struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIORepository(cfg config.MinIOConfig, logger zerolog.Logger) (*MinIORepository, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	repo := &MinIORepository{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: logger,
	}

	// На старте не валим сервис, если MinIO еще не поднялся: бакет создастся при первой выгрузке.
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := repo.ensureBucket(ctx); err != nil {
		logger.Warn().Err(err).
			Str("endpoint", cfg.Endpoint).
			Str("bucket", cfg.Bucket).
			Msg("MinIO not ready during startup; exports will retry on demand")
	} else {
		logger.Info().
			Str("endpoint", cfg.Endpoint).
			Str("bucket", cfg.Bucket).
			Bool("ssl", cfg.UseSSL).
			Msg("Connected to MinIO")
	}

	return repo, nil
}

func (r *MinIORepository) ensureBucket(ctx context.Context) error {
	r.ensureMu.Lock()
	defer r.ensureMu.Unlock()
	if r.bucketEnsured {
		return nil
	}

	backoff := 500 * time.Millisecond
	for {
		exists, err := r.client.BucketExists(ctx, r.bucket)
		if err == nil && !exists {
			err = r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{Region: r.region})
			if err == nil {
				r.logger.Info().Str("bucket", r.bucket).Msg("Created new bucket")
			}
		}
		if err == nil {
			r.bucketEnsured = true
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("minio not ready: %w", err)
		case <-time.After(backoff):
		}
	}
}

func (r *MinIORepository) PutObject(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	info, err := r.client.PutObject(ctx, r.bucket, name, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("object", name).
		Str("etag", info.ETag).
		Int64("size", size).
		Msg("Object uploaded to MinIO")

	return nil
}

func (r *MinIORepository) PresignedGetURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	if err := r.ensureBucket(ctx); err != nil {
		return "", err
	}

	url, err := r.client.PresignedGetObject(ctx, r.bucket, name, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

func (r *MinIORepository) ObjectExists(ctx context.Context, name string) (bool, error) {
	if err := r.ensureBucket(ctx); err != nil {
		return false, err
	}

	_, err := r.client.StatObject(ctx, r.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}

	return true, nil
}
