package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"coursebay/internal/domain/service"
	"coursebay/pkg/logger"
)

// CloudStorageClient stores chat media in a GCS bucket and implements
// service.MediaStore.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Upload writes one media object and returns its storage ref and public URL.
// The caller's ctx deadline bounds the write; a deadline hit aborts the
// upload and surfaces as an error.
func (c *CloudStorageClient) Upload(ctx context.Context, data []byte, contentType, folder string) (*service.MediaRef, error) {
	ref := fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), time.Now().Format("20060102150405"), extensionFor(contentType))

	obj := c.client.Bucket(c.bucketName).Object(ref)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return nil, fmt.Errorf("failed to write media object: %v", err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize media object: %v", err)
	}

	logger.Debug("Uploaded media object %s (%d bytes)", ref, len(data))

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return nil, fmt.Errorf("failed to set media ACL: %v", err)
	}

	return &service.MediaRef{
		StorageRef: ref,
		URL:        fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, ref),
	}, nil
}

// Delete removes a stored object by ref.
func (c *CloudStorageClient) Delete(ctx context.Context, storageRef string) error {
	if err := c.client.Bucket(c.bucketName).Object(storageRef).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete media object %s: %v", storageRef, err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
