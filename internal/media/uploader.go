// Package media uploads images to the S3-compatible bucket fronted by the image CDN.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/oklog/ulid/v2"

	"github.com/partsline/partsline/internal/config"
)

const defaultPrefix = "uploads"

var (
	ErrNotImage = errors.New("only image uploads are accepted")
	ErrTooLarge = errors.New("upload exceeds the size limit")
)

// objectPutter is the part of *minio.Client the uploader needs
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader stores images and hands back their durable public URL
type Uploader struct {
	client    objectPutter
	bucket    string
	publicURL string
	prefix    string
	maxBytes  int64
}

// NewUploader connects to the bucket described by cfg
func NewUploader(cfg config.CDNConfig) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return newUploader(client, cfg.Bucket, publicURL, cfg.MaxBytes), nil
}

func newUploader(client objectPutter, bucket, publicURL string, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		prefix:    defaultPrefix,
		maxBytes:  maxBytes,
	}
}

// MaxBytes returns the per-upload size limit
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload stores r under a fresh key and returns its public URL. contentType may
// be empty, in which case it is sniffed from the data.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	key := path.Join(u.prefix, strings.ToLower(ulid.Make().String())+extension(filename, contentType))

	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return u.publicURL + "/" + key, nil
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
