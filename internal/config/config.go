// Package config defines the site configuration file and its loading.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultFilename is the config file looked up in the site root.
const DefaultFilename = "kiln.yaml"

// Snapshot backends.
const (
	SnapshotBackendBadger = "badger"
	SnapshotBackendMemory = "memory"
)

// Routers.
const (
	RouterPretty   = "pretty"
	RouterVerbatim = "verbatim"
)

// Deploy target kinds.
const (
	DeployKindGCS   = "gcs"
	DeployKindLocal = "local"
)

// Config represents the site configuration.
type Config struct {
	LogLevel  slog.Level              `yaml:"log_level"`
	Site      SiteConfig              `yaml:"site"`
	Snapshots SnapshotConfig          `yaml:"snapshots"`
	Metadata  MetadataConfig          `yaml:"metadata"`
	Watch     WatchConfig             `yaml:"watch"`
	Deploy    map[string]DeployTarget `yaml:"deploy"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Snapshots.Validate(); err != nil {
		return fmt.Errorf("snapshots: %w", err)
	}
	if err := c.Metadata.Validate(); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for _, name := range c.DeployTargets() {
		target := c.Deploy[name]
		if err := target.Validate(); err != nil {
			return fmt.Errorf("deploy %s: %w", name, err)
		}
		c.Deploy[name] = target
	}
	return nil
}

// DeployTargets returns the configured target names, sorted.
func (c *Config) DeployTargets() []string {
	names := make([]string, 0, len(c.Deploy))
	for name := range c.Deploy {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Target returns the named deploy target.
func (c *Config) Target(name string) (DeployTarget, error) {
	t, ok := c.Deploy[name]
	if !ok {
		return DeployTarget{}, fmt.Errorf("no deploy target %q (have %s)", name, strings.Join(c.DeployTargets(), ", "))
	}
	return t, nil
}

// Resolve makes every relative path absolute against root.
func (c *Config) Resolve(root string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
	abs(&c.Site.ContentDir)
	abs(&c.Site.LayoutsDir)
	abs(&c.Site.Rules)
	abs(&c.Site.OutputDir)
	abs(&c.Snapshots.Path)
	abs(&c.Metadata.Path)
	for name, t := range c.Deploy {
		abs(&t.LocalRoot)
		abs(&t.CredentialsFile)
		c.Deploy[name] = t
	}
}

// SiteConfig locates the site sources and output.
type SiteConfig struct {
	ContentDir string `yaml:"content_dir"`
	LayoutsDir string `yaml:"layouts_dir"`
	Rules      string `yaml:"rules"`
	OutputDir  string `yaml:"output_dir"`
	Router     string `yaml:"router"`
	Prune      bool   `yaml:"prune"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.Rules, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Router, validation.Required, validation.In(RouterPretty, RouterVerbatim)),
	)
}

// SnapshotConfig selects the snapshot backend.
type SnapshotConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// Validate validates the snapshot configuration.
func (c *SnapshotConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(SnapshotBackendBadger, SnapshotBackendMemory)),
		validation.Field(&c.Path, validation.When(c.Backend == SnapshotBackendBadger, validation.Required)),
	)
}

// MetadataConfig locates the SQLite run metadata database.
type MetadataConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the metadata configuration.
func (c *MetadataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// DeployTarget describes one deployment destination.
//
// Kind selects the bucket implementation:
//   - "gcs": a Google Cloud Storage bucket; Project is only needed when the
//     bucket should be created if missing.
//   - "local": a directory under LocalRoot standing in for a bucket.
type DeployTarget struct {
	Kind            string `yaml:"kind"`
	Bucket          string `yaml:"bucket"`
	Path            string `yaml:"path"`
	Project         string `yaml:"project"`
	CredentialsFile string `yaml:"credentials_file"`
	LocalRoot       string `yaml:"local_root"`
	Concurrency     int    `yaml:"concurrency"`
}

// Validate validates the deploy target.
func (c *DeployTarget) Validate() error {
	if c.Kind == "" {
		c.Kind = DeployKindGCS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.In(DeployKindGCS, DeployKindLocal)),
		validation.Field(&c.Bucket, validation.Required.Error("no bucket found in deployment configuration")),
		validation.Field(&c.LocalRoot, validation.When(c.Kind == DeployKindLocal, validation.Required)),
		validation.Field(&c.Concurrency, validation.Min(0)),
	); err != nil {
		return err
	}
	if strings.HasSuffix(c.Path, "/") {
		return fmt.Errorf("path %q requires no trailing slash", c.Path)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Site: SiteConfig{
			ContentDir: "content",
			LayoutsDir: "layouts",
			Rules:      "rules.cue",
			OutputDir:  "output",
			Router:     RouterPretty,
			Prune:      true,
		},
		Snapshots: SnapshotConfig{
			Backend: SnapshotBackendBadger,
			Path:    "tmp/snapshots",
		},
		Metadata: MetadataConfig{
			Path: "tmp/kiln.db",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
