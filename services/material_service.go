package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/utils"
	"go.uber.org/zap"
)

// MaterialStore stores course material files and hands out download links.
type MaterialStore interface {
	Upload(ctx context.Context, courseID uint, fileHeader *multipart.FileHeader) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3MaterialStore keeps materials in the bucket under courses/{id}/.
type S3MaterialStore struct {
	s3  S3Interface
	now func() time.Time
}

// NewS3MaterialStore wraps an S3Interface.
func NewS3MaterialStore(s3 S3Interface) *S3MaterialStore {
	return &S3MaterialStore{s3: s3, now: time.Now}
}

// Upload validates the file and stores it, returning the object key.
func (m *S3MaterialStore) Upload(ctx context.Context, courseID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateMaterialFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.FromCtx(ctx).Warn("failed to close uploaded file", zap.Error(closeErr))
		}
	}()

	filename := filepath.Base(fileHeader.Filename)
	key := fmt.Sprintf("courses/%d/%d_%s", courseID, m.now().Unix(), filename)
	if err := m.s3.PutObject(ctx, key, utils.MaterialContentType(filename), file); err != nil {
		return "", err
	}
	return key, nil
}

// URL returns a presigned download link for key.
func (m *S3MaterialStore) URL(ctx context.Context, key string) (string, error) {
	return m.s3.GetPresignedURL(ctx, key)
}

// Delete removes the object behind key.
func (m *S3MaterialStore) Delete(ctx context.Context, key string) error {
	return m.s3.DeleteObject(ctx, key)
}
