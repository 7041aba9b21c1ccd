package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/kiln/internal/output"
)

// DefaultConcurrency is the number of parallel uploads when none is set.
const DefaultConcurrency = 8

// Result reports what a deployment did, or would do under dry-run.
type Result struct {
	Bucket   string   `json:"bucket"`
	Prefix   string   `json:"prefix,omitempty"`
	Uploaded []string `json:"uploaded"`
	Deleted  []string `json:"deleted"`
	DryRun   bool     `json:"dry_run"`
}

// Deployer mirrors a local output directory into a Bucket.
type Deployer struct {
	bucket      Bucket
	name        string
	source      string
	prefix      string
	concurrency int
	dryRun      bool
	logger      *slog.Logger
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithPrefix places every key under prefix. A trailing slash is not allowed.
func WithPrefix(prefix string) Option {
	return func(d *Deployer) { d.prefix = prefix }
}

// WithConcurrency bounds the number of parallel uploads and deletes.
func WithConcurrency(n int) Option {
	return func(d *Deployer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDryRun reports the planned changes without touching the bucket.
func WithDryRun(dryRun bool) Option {
	return func(d *Deployer) { d.dryRun = dryRun }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deployer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithBucketName sets the bucket name reported in results and logs.
func WithBucketName(name string) Option {
	return func(d *Deployer) { d.name = name }
}

// NewDeployer creates a deployer for the files under source.
func NewDeployer(bucket Bucket, source string, opts ...Option) *Deployer {
	d := &Deployer{
		bucket:      bucket,
		source:      source,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Key returns the object key for a rooted site path.
func Key(prefix, sitePath string) string {
	rel := strings.TrimPrefix(sitePath, "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// Run lists the bucket, deletes objects that have no local file and uploads
// every local file.
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	if strings.HasSuffix(d.prefix, "/") {
		return nil, fmt.Errorf("path %q requires no trailing slash", d.prefix)
	}

	files, err := output.Files(d.source)
	if err != nil {
		return nil, fmt.Errorf("list output %s: %w", d.source, err)
	}

	if !d.dryRun {
		if e, ok := d.bucket.(Ensurer); ok {
			if err := e.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
	}

	listPrefix := ""
	if d.prefix != "" {
		listPrefix = d.prefix + "/"
	}
	remote, err := d.bucket.List(ctx, listPrefix)
	if err != nil {
		return nil, err
	}

	local := make(map[string]string, len(files))
	for _, f := range files {
		local[Key(d.prefix, f)] = f
	}

	result := &Result{
		Bucket:   d.name,
		Prefix:   d.prefix,
		Uploaded: []string{},
		Deleted:  []string{},
		DryRun:   d.dryRun,
	}
	for _, key := range remote {
		if _, ok := local[key]; !ok {
			result.Deleted = append(result.Deleted, key)
		}
	}
	for key := range local {
		result.Uploaded = append(result.Uploaded, key)
	}
	sort.Strings(result.Deleted)
	sort.Strings(result.Uploaded)

	d.logger.Info("deploying",
		"bucket", d.name,
		"prefix", d.prefix,
		"uploads", len(result.Uploaded),
		"deletes", len(result.Deleted),
		"dry_run", d.dryRun,
	)
	if d.dryRun {
		return result, nil
	}

	if err := d.each(ctx, result.Deleted, func(ctx context.Context, key string) error {
		d.logger.Debug("deleting object", "key", key)
		return d.bucket.Delete(ctx, key)
	}); err != nil {
		return nil, err
	}

	if err := d.each(ctx, result.Uploaded, func(ctx context.Context, key string) error {
		return d.upload(ctx, key, local[key])
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Deployer) upload(ctx context.Context, key, sitePath string) error {
	f, err := os.Open(output.NewWriter(d.source, d.logger).FilePath(sitePath))
	if err != nil {
		return err
	}
	defer f.Close()

	d.logger.Debug("uploading object", "key", key)
	if err := d.bucket.Upload(ctx, key, f, contentType(key)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// each runs fn for every key with at most d.concurrency in flight and
// returns the first error.
func (d *Deployer) each(ctx context.Context, keys []string, fn func(context.Context, string) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var mu sync.Mutex
	var failed []string
	for _, key := range keys {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := fn(gCtx, key); err != nil {
				mu.Lock()
				failed = append(failed, key)
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.Error("deploy failed", "failed_keys", failed, "error", err)
		return err
	}
	return nil
}

func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
