// Package config loads service configuration from the environment and
// builds the component graph at the composition root.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magezero/r2media/pkg/r2media"
	"github.com/magezero/r2media/pkg/r2media/existcache"
	"github.com/magezero/r2media/pkg/r2media/scratch"
	fsstorage "github.com/magezero/r2media/pkg/r2media/storage/fs"
	s3storage "github.com/magezero/r2media/pkg/r2media/storage/s3"
	"github.com/magezero/r2media/pkg/r2media/transcode"
)

// Backend selection values
const (
	BackendR2    = "r2"
	BackendLocal = "local"
)

// Config is the full service configuration
type Config struct {
	Port         string `env:"PORT" env-default:"8080"`
	MediaBackend string `env:"R2MEDIA_BACKEND" env-default:"r2"`

	AccountID string `env:"R2_ACCOUNT_ID" env-default:""`
	Endpoint  string `env:"R2_ENDPOINT" env-default:""`
	Region    string `env:"R2_REGION" env-default:"auto"`
	Bucket    string `env:"R2_BUCKET" env-default:""`
	AccessKey string `env:"R2_ACCESS_KEY" env-default:""`
	SecretKey string `env:"R2_SECRET_KEY" env-default:""`
	KeyPrefix string `env:"R2_KEY_PREFIX" env-default:""`
	PathStyle bool   `env:"R2_PATH_STYLE" env-default:"false"`

	CacheTTLSeconds int    `env:"R2MEDIA_CACHE_TTL" env-default:"3600"`
	BaseMediaURL    string `env:"R2MEDIA_BASE_MEDIA_URL" env-default:""`
	ScratchDir      string `env:"R2MEDIA_SCRATCH_DIR" env-default:""`
	LocalMediaDir   string `env:"R2MEDIA_LOCAL_MEDIA_DIR" env-default:"./data/media"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields for the selected backend
func (c *Config) Validate() error {
	if c.MediaBackend != BackendR2 && c.MediaBackend != BackendLocal {
		return fmt.Errorf("media backend must be %q or %q, got %q", BackendR2, BackendLocal, c.MediaBackend)
	}

	if c.MediaBackend == BackendR2 {
		if c.Bucket == "" {
			return errors.New("bucket is required for the r2 backend")
		}
		if c.ResolvedEndpoint() == "" {
			return errors.New("endpoint or account ID is required for the r2 backend")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access key and secret key are required for the r2 backend")
		}
		if c.BaseMediaURL == "" {
			return errors.New("base media URL is required for the r2 backend")
		}
	}

	return nil
}

// IsR2Selected reports whether the remote store is the active media backend
func (c *Config) IsR2Selected() bool {
	return c.MediaBackend == BackendR2
}

// ResolvedEndpoint returns the configured endpoint, deriving the Cloudflare
// R2 endpoint from the account ID when none is set explicitly.
func (c *Config) ResolvedEndpoint() string {
	if ep := strings.TrimSpace(c.Endpoint); ep != "" {
		return ep
	}
	if id := strings.TrimSpace(c.AccountID); id != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", id)
	}
	return ""
}

// CacheTTL returns the existence-cache TTL, falling back to the default for
// non-positive values.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return existcache.DefaultTTL
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ResolvedScratchDir returns the scratch root, defaulting under the system
// temp directory.
func (c *Config) ResolvedScratchDir() string {
	if c.ScratchDir != "" {
		return c.ScratchDir
	}
	return filepath.Join(os.TempDir(), "r2media")
}

// App bundles the built component graph
type App struct {
	Config    *Config
	Service   r2media.Service
	Media     *r2media.MediaStore
	Cache     *existcache.Cache
	Scratch   *scratch.Manager
	Sync      *r2media.CacheSynchronizer
	Validator *ConnectionValidator
}

// Build wires the component graph: the BlobStore strategy is selected here,
// by configuration, and every component receives its collaborators
// explicitly.
func (c *Config) Build(logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := c.buildBlobStore()
	if err != nil {
		return nil, err
	}

	cache := existcache.New(c.CacheTTL())
	media := r2media.NewMediaStore(store, r2media.NewKeyFormatter(c.KeyPrefix), logger)

	scratchMgr, err := scratch.New(c.ResolvedScratchDir(), media, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch manager: %w", err)
	}

	// The local backend serves media directly, so it carries no CDN URL;
	// the resize endpoint is inactive then and the URL is only a placeholder.
	baseMediaURL := c.BaseMediaURL
	if baseMediaURL == "" {
		baseMediaURL = "/media"
	}

	svc, err := r2media.New(
		r2media.WithMediaStore(media),
		r2media.WithExistenceCache(cache),
		r2media.WithScratch(scratchMgr),
		r2media.WithTranscoder(transcode.New()),
		r2media.WithProber(r2media.NewHTTPProber()),
		r2media.WithBaseMediaURL(baseMediaURL),
		r2media.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return &App{
		Config:    c,
		Service:   svc,
		Media:     media,
		Cache:     cache,
		Scratch:   scratchMgr,
		Sync:      r2media.NewCacheSynchronizer(media, cache, c.LocalMediaDir, logger),
		Validator: NewConnectionValidator(c),
	}, nil
}

func (c *Config) buildBlobStore() (r2media.BlobStore, error) {
	switch c.MediaBackend {
	case BackendLocal:
		backend, err := fsstorage.New(fsstorage.Config{BaseDir: c.LocalMediaDir})
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem backend: %w", err)
		}
		return backend, nil
	case BackendR2:
		backend, err := s3storage.New(s3storage.Config{
			Region:          c.Region,
			Bucket:          c.Bucket,
			AccessKeyID:     c.AccessKey,
			SecretAccessKey: c.SecretKey,
			Endpoint:        c.ResolvedEndpoint(),
			UsePathStyle:    c.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 backend: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported media backend: %s", c.MediaBackend)
	}
}

// ConnectionValidator probes the remote store with optionally overridden
// credentials, as used by an admin "test connection" action before the
// configuration is saved.
type ConnectionValidator struct {
	saved *Config
}

// NewConnectionValidator creates a validator over the saved configuration
func NewConnectionValidator(saved *Config) *ConnectionValidator {
	return &ConnectionValidator{saved: saved}
}

// Overrides carries unsaved form values; empty fields fall back to the
// saved configuration.
type Overrides struct {
	AccountID string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle *bool
}

// TestConnection resolves overrides over the saved config, validates the
// required fields and probes the bucket.
func (v *ConnectionValidator) TestConnection(ctx context.Context, o Overrides) (bool, string) {
	resolved := *v.saved
	if o.AccountID != "" {
		resolved.AccountID = o.AccountID
	}
	if o.Endpoint != "" {
		resolved.Endpoint = o.Endpoint
	}
	if o.Region != "" {
		resolved.Region = o.Region
	}
	if o.Bucket != "" {
		resolved.Bucket = o.Bucket
	}
	if o.AccessKey != "" {
		resolved.AccessKey = o.AccessKey
	}
	if o.SecretKey != "" {
		resolved.SecretKey = o.SecretKey
	}
	if o.PathStyle != nil {
		resolved.PathStyle = *o.PathStyle
	}

	if resolved.Bucket == "" {
		return false, "bucket is required"
	}
	if resolved.ResolvedEndpoint() == "" {
		return false, "endpoint or account ID is required"
	}
	if resolved.AccessKey == "" || resolved.SecretKey == "" {
		return false, "access key and secret key are required"
	}

	backend, err := s3storage.New(s3storage.Config{
		Region:          resolved.Region,
		Bucket:          resolved.Bucket,
		AccessKeyID:     resolved.AccessKey,
		SecretAccessKey: resolved.SecretKey,
		Endpoint:        resolved.ResolvedEndpoint(),
		UsePathStyle:    resolved.PathStyle,
	})
	if err != nil {
		return false, err.Error()
	}

	if err := backend.CheckConnection(ctx); err != nil {
		return false, err.Error()
	}
	return true, "connection successful"
}
