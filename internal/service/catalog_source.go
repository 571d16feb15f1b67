package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"english_tutor_backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CatalogSource 内容目录文件的来源
type CatalogSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileCatalogSource 本地文件
type FileCatalogSource struct {
	Path string
}

func (s FileCatalogSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileCatalogSource) String() string {
	return s.Path
}

// MinioCatalogSource MinIO 对象
type MinioCatalogSource struct {
	Client *minio.Client
	Bucket string
	Object string
}

func NewMinioCatalogSource(cfg config.StorageConfig, bucket, object string) (*MinioCatalogSource, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("storage.minio_endpoint is not configured")
	}
	if bucket == "" {
		bucket = cfg.MinioBucket
	}
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("bucket and object are required")
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioCatalogSource{Client: client, Bucket: bucket, Object: object}, nil
}

func (s *MinioCatalogSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 是惰性的，先 Stat 确认对象存在
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat %s: %w", s, err)
	}
	return obj, nil
}

func (s *MinioCatalogSource) String() string {
	return "minio://" + s.Bucket + "/" + s.Object
}
