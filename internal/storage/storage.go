package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"socialnet/internal/config"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage 媒体文件存储后端
type Storage interface {
	// UploadFile stores file under key and returns the public URL.
	UploadFile(ctx context.Context, file *multipart.FileHeader, key string) (string, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// New 根据配置创建存储后端
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.MediaBackend {
	case "local":
		return NewLocalStorage(cfg.MediaLocalPath, cfg.MediaURLPrefix)
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
}

// NewKey 生成唯一的对象 key: posts/2006/01/<uuid>.ext
func NewKey(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return path.Join("posts", now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}
