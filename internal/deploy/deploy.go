// Package deploy uploads a built output tree to an S3-compatible bucket.
// Deployment sits outside the build pipeline: it reads the artifacts the
// pipeline published and never modifies them.
package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/picsmith/picsmith/internal/config"
	"github.com/picsmith/picsmith/internal/manifest"
)

// contentTypes maps published file extensions to the types a static host
// should serve them with.
var contentTypes = map[string]string{
	".webp": "image/webp",
	".json": "application/json",
	".js":   "application/javascript",
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
}

// Client wraps a minio client pointed at one bucket.
type Client struct {
	api    *minio.Client
	bucket string
}

// New builds a client from the deploy configuration.
func New(cfg config.S3Config) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &Client{api: api, bucket: cfg.Bucket}, nil
}

// Upload walks outputDir and uploads every file to the bucket under its
// path relative to outputDir. The directory must hold a manifest, otherwise
// there is nothing meaningful to deploy. The first failure aborts the walk;
// objects already uploaded stay in place, the same no-transaction stance the
// build takes across its artifacts. Returns the number of uploaded objects.
func (c *Client) Upload(ctx context.Context, outputDir string) (int, error) {
	if _, err := os.Stat(filepath.Join(outputDir, manifest.Filename)); err != nil {
		return 0, fmt.Errorf("%s has no %s, run a build first: %w", outputDir, manifest.Filename, err)
	}

	uploaded := 0
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if err := c.putFile(ctx, key, path); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		uploaded++
		return nil
	})
	return uploaded, err
}

func (c *Client) putFile(ctx context.Context, key, path string) error {
	info, err := c.api.FPutObject(ctx, c.bucket, key, path, minio.PutObjectOptions{
		ContentType: ContentType(key),
	})
	if err != nil {
		return err
	}
	slog.Info("Uploaded object", "key", key, "size", info.Size)
	return nil
}

// ContentType returns the content type to serve name with, falling back to
// a generic binary type for unrecognized extensions.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
