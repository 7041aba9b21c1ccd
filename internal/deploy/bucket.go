package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/kiln/internal/config"
)

// Bucket is an object store a site is deployed to.
type Bucket interface {
	// List returns the keys of every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Upload stores r under key, replacing any existing object.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Ensurer is implemented by buckets that can create themselves when missing.
type Ensurer interface {
	EnsureBucket(ctx context.Context) error
}

// Open returns the bucket a deploy target describes.
func Open(ctx context.Context, target config.DeployTarget) (Bucket, error) {
	switch target.Kind {
	case config.DeployKindGCS, "":
		return NewGCSBucket(ctx, target.Bucket, target.Project, target.CredentialsFile)
	case config.DeployKindLocal:
		return NewLocalBucket(target.LocalRoot, target.Bucket)
	default:
		return nil, fmt.Errorf("unknown deploy kind %q", target.Kind)
	}
}

// Deploy opens the target's bucket and mirrors source into it.
func Deploy(ctx context.Context, target config.DeployTarget, source string, opts ...Option) (*Result, error) {
	bucket, err := Open(ctx, target)
	if err != nil {
		return nil, err
	}
	defer bucket.Close()

	opts = append([]Option{
		WithPrefix(target.Path),
		WithConcurrency(target.Concurrency),
		WithBucketName(target.Bucket),
	}, opts...)
	return NewDeployer(bucket, source, opts...).Run(ctx)
}
