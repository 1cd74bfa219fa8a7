package r2media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service is the on-demand resize orchestrator
type Service interface {
	// Resize produces (or finds) the derived image for the request and
	// returns its canonical URL
	Resize(ctx context.Context, req ResizeRequest) (*ResizeResult, error)

	// EnsureDerived makes sure a derived cache path exists remotely,
	// probing the CDN when the existence cache has no answer and
	// regenerating the image when the probe confirms absence
	EnsureDerived(ctx context.Context, relativePath string) error
}

// service implements Service
type service struct {
	media        *MediaStore
	cache        ExistenceCache
	scratch      Scratch
	transcoder   Transcoder
	prober       Prober
	baseMediaURL string
	logger       *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithMediaStore sets the media store
func WithMediaStore(media *MediaStore) Option {
	return func(s *service) { s.media = media }
}

// WithExistenceCache sets the existence cache
func WithExistenceCache(cache ExistenceCache) Option {
	return func(s *service) { s.cache = cache }
}

// WithScratch sets the scratch-space manager
func WithScratch(scratch Scratch) Option {
	return func(s *service) { s.scratch = scratch }
}

// WithTranscoder sets the image transcoder
func WithTranscoder(t Transcoder) Option {
	return func(s *service) { s.transcoder = t }
}

// WithProber sets the CDN existence prober
func WithProber(p Prober) Option {
	return func(s *service) { s.prober = p }
}

// WithBaseMediaURL sets the CDN base URL used for redirects and probes
func WithBaseMediaURL(url string) Option {
	return func(s *service) { s.baseMediaURL = strings.TrimRight(url, "/") }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}
	for _, option := range options {
		option(s)
	}

	if s.media == nil {
		return nil, fmt.Errorf("media store is required")
	}
	if s.cache == nil {
		return nil, fmt.Errorf("existence cache is required")
	}
	if s.scratch == nil {
		return nil, fmt.Errorf("scratch manager is required")
	}
	if s.transcoder == nil {
		return nil, fmt.Errorf("transcoder is required")
	}
	if s.baseMediaURL == "" {
		return nil, fmt.Errorf("base media URL is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}
