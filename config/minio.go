package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// InitMinio connects to the image bucket and creates it when missing.
// It returns nil when no endpoint is configured.
func InitMinio(cfg MinioConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		log.Println("MINIO_ENDPOINT not set, images will be stored inline as data URLs")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.Printf("Warning: Failed to check bucket existence: %v", err)
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.Printf("Warning: Failed to create bucket: %v", err)
		} else {
			log.Printf("Created bucket: %s", cfg.Bucket)
		}
	}

	log.Println("Connected to MinIO")
	return client, nil
}
