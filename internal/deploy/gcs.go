package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBucket is a Google Cloud Storage bucket.
type GCSBucket struct {
	client  *storage.Client
	name    string
	project string
}

var (
	_ Bucket  = (*GCSBucket)(nil)
	_ Ensurer = (*GCSBucket)(nil)
)

// NewGCSBucket connects to bucket. With an empty credentialsFile the client
// uses application default credentials. project is only needed to create
// the bucket.
func NewGCSBucket(ctx context.Context, bucket, project, credentialsFile string) (*GCSBucket, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSBucket{client: client, name: bucket, project: project}, nil
}

// EnsureBucket creates the bucket when it does not exist and a project is
// configured.
func (b *GCSBucket) EnsureBucket(ctx context.Context) error {
	handle := b.client.Bucket(b.name)
	_, err := handle.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("get bucket %s: %w", b.name, err)
	}
	if b.project == "" {
		return fmt.Errorf("bucket %s does not exist and no project is configured to create it", b.name)
	}
	if err := handle.Create(ctx, b.project, nil); err != nil {
		return fmt.Errorf("create bucket %s: %w", b.name, err)
	}
	return nil
}

// List implements Bucket.
func (b *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.client.Bucket(b.name).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", b.name, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Upload implements Bucket.
func (b *GCSBucket) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to copy to GCS object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}
	return nil
}

// Delete implements Bucket.
func (b *GCSBucket) Delete(ctx context.Context, key string) error {
	err := b.client.Bucket(b.name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gs://%s/%s: %w", b.name, key, err)
	}
	return nil
}

// Close releases the client.
func (b *GCSBucket) Close() error {
	return b.client.Close()
}
