package r2media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// productMediaPrefix is the logical directory holding original product
// images; derived cache paths live under its cache/ subdirectory.
const productMediaPrefix = "catalog/product/"

// DefaultQuality is applied when a request carries no quality parameter
const DefaultQuality = 80

// ClampQuality forces a quality value into [1,100]
func ClampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// normalize strips the image path and coerces dimensions and quality into
// their valid ranges. Must be applied before DerivedPath.
func (r ResizeRequest) normalize() ResizeRequest {
	r.ImagePath = strings.TrimLeft(r.ImagePath, "/")
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if r.Quality == 0 {
		r.Quality = DefaultQuality
	}
	r.Quality = ClampQuality(r.Quality)
	return r
}

// DerivedPath computes the canonical cache path for a resize request. The
// naming is fixed: catalog/product/cache/{w|auto}x{h|auto}/{q}/image/{path}.
// The same request always maps to the same path.
func DerivedPath(req ResizeRequest) string {
	req = req.normalize()

	w := "auto"
	if req.Width > 0 {
		w = strconv.Itoa(req.Width)
	}
	h := "auto"
	if req.Height > 0 {
		h = strconv.Itoa(req.Height)
	}

	return productMediaPrefix + "cache/" + w + "x" + h + "/" + strconv.Itoa(req.Quality) + "/image/" + req.ImagePath
}

// OriginalPath maps a resize request's image path to the logical path of
// the original asset.
func OriginalPath(imagePath string) string {
	return productMediaPrefix + strings.TrimLeft(imagePath, "/")
}

func (s *service) Resize(ctx context.Context, req ResizeRequest) (*ResizeResult, error) {
	req = req.normalize()
	if req.ImagePath == "" {
		return nil, fmt.Errorf("%w: no image path provided", ErrInvalidInput)
	}

	derivedPath := DerivedPath(req)

	if exists, ok := s.cache.Get(derivedPath); ok && exists {
		return &ResizeResult{Path: derivedPath, URL: s.cdnURL(derivedPath)}, nil
	}

	if err := s.generate(ctx, req, derivedPath); err != nil {
		return nil, err
	}

	s.cache.Set(derivedPath, true)
	return &ResizeResult{Path: derivedPath, URL: s.cdnURL(derivedPath), Generated: true}, nil
}

// generate runs the download-transcode-upload pipeline for one derived
// path. Scratch files are removed on every return path.
func (s *service) generate(ctx context.Context, req ResizeRequest, derivedPath string) error {
	originalPath := OriginalPath(req.ImagePath)

	tempOriginal, ok := s.scratch.DownloadToTemp(ctx, originalPath)
	if !ok {
		s.logger.Error("Original image not found in store", "path", originalPath)
		// Record the derived path as absent so existence checks for a dead
		// image stay cheap.
		s.cache.Set(derivedPath, false)
		return fmt.Errorf("%w: %s", ErrObjectNotFound, originalPath)
	}
	defer s.scratch.Cleanup(tempOriginal)

	tempResized := s.scratch.TempPath(derivedPath)
	defer s.scratch.Cleanup(tempResized)

	if err := s.transcoder.Resize(tempOriginal, tempResized, req.Width, req.Height, req.Quality); err != nil {
		s.logger.Error("Failed to transcode image",
			"original", originalPath, "derived", derivedPath, "error", err)
		return err
	}

	if !s.scratch.Upload(ctx, tempResized, derivedPath) {
		s.logger.Error("Failed to upload derived image",
			"original", originalPath, "derived", derivedPath)
		return fmt.Errorf("%w: %s", ErrUploadFailed, derivedPath)
	}

	return nil
}

func (s *service) EnsureDerived(ctx context.Context, relativePath string) error {
	relativePath = strings.TrimLeft(relativePath, "/")

	req, ok := ParseDerivedPath(relativePath)
	if !ok {
		// Not a derived cache path; nothing to generate.
		return nil
	}

	if exists, found := s.cache.Get(relativePath); found {
		if exists {
			return nil
		}
		return s.regenerate(ctx, req, relativePath)
	}

	// Unknown: ask the CDN before doing any work. A confirmed answer is
	// cached either way. A failed probe counts as absent but is never
	// cached, so the next request re-probes.
	if s.prober != nil {
		exists, err := s.prober.Probe(ctx, s.cdnURL(relativePath))
		if err != nil {
			s.logger.Error("CDN existence probe failed", "path", relativePath, "error", err)
			return s.regenerate(ctx, req, relativePath)
		}
		s.cache.Set(relativePath, exists)
		if exists {
			return nil
		}
	}

	return s.regenerate(ctx, req, relativePath)
}

func (s *service) regenerate(ctx context.Context, req ResizeRequest, derivedPath string) error {
	if err := s.generate(ctx, req, derivedPath); err != nil {
		return err
	}
	s.cache.Set(derivedPath, true)
	return nil
}

// ParseDerivedPath recovers the resize parameters from a derived cache
// path. Returns ok=false for paths outside the derived-cache namespace or
// with an unrecognized shape.
func ParseDerivedPath(path string) (ResizeRequest, bool) {
	const cachePrefix = productMediaPrefix + "cache/"
	if !strings.HasPrefix(path, cachePrefix) {
		return ResizeRequest{}, false
	}

	// cache/{WxH}/{q}/image/{original...}
	rest := strings.TrimPrefix(path, cachePrefix)
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 4 || parts[2] != "image" || parts[3] == "" {
		return ResizeRequest{}, false
	}

	dims := strings.SplitN(parts[0], "x", 2)
	if len(dims) != 2 {
		return ResizeRequest{}, false
	}

	req := ResizeRequest{ImagePath: parts[3]}
	if dims[0] != "auto" {
		w, err := strconv.Atoi(dims[0])
		if err != nil || w <= 0 {
			return ResizeRequest{}, false
		}
		req.Width = w
	}
	if dims[1] != "auto" {
		h, err := strconv.Atoi(dims[1])
		if err != nil || h <= 0 {
			return ResizeRequest{}, false
		}
		req.Height = h
	}

	q, err := strconv.Atoi(parts[1])
	if err != nil || q < 1 || q > 100 {
		return ResizeRequest{}, false
	}
	req.Quality = q

	return req, true
}

func (s *service) cdnURL(path string) string {
	return s.baseMediaURL + "/" + strings.TrimLeft(path, "/")
}
