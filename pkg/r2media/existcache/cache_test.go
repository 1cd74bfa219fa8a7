package existcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magezero/r2media/pkg/r2media/existcache"
)

func TestCacheUnknownVersusFalse(t *testing.T) {
	cache := existcache.New(time.Minute)

	// Never recorded: a miss, not a "does not exist".
	_, ok := cache.Get("catalog/product/a.jpg")
	assert.False(t, ok)

	// A recorded negative is a hit carrying false.
	cache.Set("catalog/product/a.jpg", false)
	exists, ok := cache.Get("catalog/product/a.jpg")
	assert.True(t, ok)
	assert.False(t, exists)

	cache.Set("catalog/product/a.jpg", true)
	exists, ok = cache.Get("catalog/product/a.jpg")
	assert.True(t, ok)
	assert.True(t, exists)
}

func TestCacheRemove(t *testing.T) {
	cache := existcache.New(time.Minute)

	cache.Set("a.jpg", true)
	cache.Remove("a.jpg")

	_, ok := cache.Get("a.jpg")
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := existcache.New(time.Minute)

	cache.Set("a.jpg", true)
	cache.Set("b.jpg", false)
	assert.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())

	_, ok := cache.Get("a.jpg")
	assert.False(t, ok)
}

func TestCacheEntriesExpire(t *testing.T) {
	cache := existcache.New(20 * time.Millisecond)

	cache.Set("a.jpg", true)
	exists, ok := cache.Get("a.jpg")
	assert.True(t, ok)
	assert.True(t, exists)

	time.Sleep(50 * time.Millisecond)

	_, ok = cache.Get("a.jpg")
	assert.False(t, ok)
}

func TestCacheDistinguishesPaths(t *testing.T) {
	cache := existcache.New(time.Minute)

	cache.Set("catalog/product/cache/100x100/80/image/a.jpg", true)
	cache.Set("catalog/product/cache/200x200/80/image/a.jpg", false)

	exists, ok := cache.Get("catalog/product/cache/100x100/80/image/a.jpg")
	assert.True(t, ok)
	assert.True(t, exists)

	exists, ok = cache.Get("catalog/product/cache/200x200/80/image/a.jpg")
	assert.True(t, ok)
	assert.False(t, exists)
}
