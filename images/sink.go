package images

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Sink turns a compressed image into the string stored on the listing.
type Sink interface {
	Store(ctx context.Context, name string, res *Result) (string, error)
}

// DataURLSink embeds the image as a base64 data URL.
type DataURLSink struct{}

func (DataURLSink) Store(_ context.Context, _ string, res *Result) (string, error) {
	return res.DataURL(), nil
}

// MinioSink uploads to a bucket and returns the object's public URL.
type MinioSink struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioSink(client *minio.Client, bucket, publicURL string) *MinioSink {
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &MinioSink{client: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func (s *MinioSink) Store(ctx context.Context, name string, res *Result) (string, error) {
	ext := res.Format
	if ext == "jpeg" {
		ext = "jpg"
	}
	objectName := fmt.Sprintf("properties/%s.%s", name, ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(res.Data), int64(len(res.Data)),
		minio.PutObjectOptions{ContentType: res.ContentType()})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to storage: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
