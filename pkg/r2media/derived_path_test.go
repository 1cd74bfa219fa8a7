package r2media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magezero/r2media/pkg/r2media"
)

func TestDerivedPath(t *testing.T) {
	tests := []struct {
		name string
		req  r2media.ResizeRequest
		want string
	}{
		{
			name: "both dimensions",
			req:  r2media.ResizeRequest{ImagePath: "a/b/img.jpg", Width: 400, Height: 300, Quality: 80},
			want: "catalog/product/cache/400x300/80/image/a/b/img.jpg",
		},
		{
			name: "width only uses auto height",
			req:  r2media.ResizeRequest{ImagePath: "a/b/img.jpg", Width: 400, Quality: 80},
			want: "catalog/product/cache/400xauto/80/image/a/b/img.jpg",
		},
		{
			name: "height only uses auto width",
			req:  r2media.ResizeRequest{ImagePath: "a/b/img.jpg", Height: 300, Quality: 80},
			want: "catalog/product/cache/autox300/80/image/a/b/img.jpg",
		},
		{
			name: "no dimensions uses auto for both",
			req:  r2media.ResizeRequest{ImagePath: "img.jpg", Quality: 90},
			want: "catalog/product/cache/autoxauto/90/image/img.jpg",
		},
		{
			name: "zero quality falls back to the default",
			req:  r2media.ResizeRequest{ImagePath: "img.jpg", Width: 100, Height: 100},
			want: "catalog/product/cache/100x100/80/image/img.jpg",
		},
		{
			name: "quality above range is clamped to 100",
			req:  r2media.ResizeRequest{ImagePath: "img.jpg", Width: 100, Height: 100, Quality: 150},
			want: "catalog/product/cache/100x100/100/image/img.jpg",
		},
		{
			name: "negative quality is clamped to 1",
			req:  r2media.ResizeRequest{ImagePath: "img.jpg", Width: 100, Height: 100, Quality: -5},
			want: "catalog/product/cache/100x100/1/image/img.jpg",
		},
		{
			name: "leading slash on image path is stripped",
			req:  r2media.ResizeRequest{ImagePath: "/a/img.jpg", Width: 50, Height: 50, Quality: 70},
			want: "catalog/product/cache/50x50/70/image/a/img.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r2media.DerivedPath(tt.req))
		})
	}
}

func TestDerivedPathDeterministic(t *testing.T) {
	req := r2media.ResizeRequest{ImagePath: "a/b/img.jpg", Width: 400, Height: 300, Quality: 80}

	first := r2media.DerivedPath(req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r2media.DerivedPath(req))
	}
}

func TestDerivedPathDistinguishesParameters(t *testing.T) {
	base := r2media.ResizeRequest{ImagePath: "a/img.jpg", Width: 400, Height: 300, Quality: 80}

	variants := []r2media.ResizeRequest{
		{ImagePath: "a/img.jpg", Width: 401, Height: 300, Quality: 80},
		{ImagePath: "a/img.jpg", Width: 400, Height: 301, Quality: 80},
		{ImagePath: "a/img.jpg", Width: 400, Height: 300, Quality: 81},
		{ImagePath: "b/img.jpg", Width: 400, Height: 300, Quality: 80},
	}

	basePath := r2media.DerivedPath(base)
	for _, v := range variants {
		assert.NotEqual(t, basePath, r2media.DerivedPath(v))
	}
}

func TestOriginalPath(t *testing.T) {
	assert.Equal(t, "catalog/product/a/b/img.jpg", r2media.OriginalPath("a/b/img.jpg"))
	assert.Equal(t, "catalog/product/a/b/img.jpg", r2media.OriginalPath("/a/b/img.jpg"))
}

func TestParseDerivedPath(t *testing.T) {
	t.Run("round trips a generated path", func(t *testing.T) {
		req := r2media.ResizeRequest{ImagePath: "a/b/img.jpg", Width: 400, Height: 300, Quality: 80}

		parsed, ok := r2media.ParseDerivedPath(r2media.DerivedPath(req))
		require.True(t, ok)
		assert.Equal(t, req, parsed)
	})

	t.Run("auto dimensions parse as zero", func(t *testing.T) {
		parsed, ok := r2media.ParseDerivedPath("catalog/product/cache/autox300/80/image/img.jpg")
		require.True(t, ok)
		assert.Equal(t, 0, parsed.Width)
		assert.Equal(t, 300, parsed.Height)

		parsed, ok = r2media.ParseDerivedPath("catalog/product/cache/400xauto/80/image/img.jpg")
		require.True(t, ok)
		assert.Equal(t, 400, parsed.Width)
		assert.Equal(t, 0, parsed.Height)
	})

	t.Run("image path keeps its slashes", func(t *testing.T) {
		parsed, ok := r2media.ParseDerivedPath("catalog/product/cache/400x300/80/image/a/b/c/img.jpg")
		require.True(t, ok)
		assert.Equal(t, "a/b/c/img.jpg", parsed.ImagePath)
	})

	t.Run("rejects malformed paths", func(t *testing.T) {
		malformed := []string{
			"catalog/product/a/b/img.jpg",
			"some/other/dir/img.jpg",
			"catalog/product/cache/400x300/80/img.jpg",
			"catalog/product/cache/400x300/80/image/",
			"catalog/product/cache/400/80/image/img.jpg",
			"catalog/product/cache/0x300/80/image/img.jpg",
			"catalog/product/cache/-1x300/80/image/img.jpg",
			"catalog/product/cache/400x300/0/image/img.jpg",
			"catalog/product/cache/400x300/101/image/img.jpg",
			"catalog/product/cache/400x300/abc/image/img.jpg",
		}
		for _, path := range malformed {
			_, ok := r2media.ParseDerivedPath(path)
			assert.False(t, ok, "path %q should not parse", path)
		}
	})
}

func TestClampQuality(t *testing.T) {
	assert.Equal(t, 1, r2media.ClampQuality(-5))
	assert.Equal(t, 1, r2media.ClampQuality(0))
	assert.Equal(t, 1, r2media.ClampQuality(1))
	assert.Equal(t, 55, r2media.ClampQuality(55))
	assert.Equal(t, 100, r2media.ClampQuality(100))
	assert.Equal(t, 100, r2media.ClampQuality(150))
}
