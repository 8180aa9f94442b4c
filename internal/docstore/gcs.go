// Package docstore issues short-lived signed read URLs for uploaded diploma
// documents stored in Google Cloud Storage.
package docstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultURLExpiry = 15 * time.Minute

// GCS wraps a Cloud Storage client scoped to a single bucket.
type GCS struct {
	client *storage.Client
	bucket string
	expiry time.Duration
}

// NewGCS creates a signed URL provider for the given bucket. Credentials are
// resolved from the environment (application default credentials).
func NewGCS(ctx context.Context, bucket string, urlExpiry time.Duration) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	if urlExpiry <= 0 {
		urlExpiry = defaultURLExpiry
	}

	return &GCS{client: client, bucket: bucket, expiry: urlExpiry}, nil
}

// SignedReadURL returns a time-boxed V4 signed GET URL for the object at the
// given path.
func (g *GCS) SignedReadURL(_ context.Context, filePath string) (string, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return "", fmt.Errorf("file path is required")
	}

	url, err := g.client.Bucket(g.bucket).SignedURL(filePath, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(g.expiry),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign read url for %s: %w", filePath, err)
	}

	return url, nil
}

func (g *GCS) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
