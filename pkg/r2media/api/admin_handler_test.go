package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magezero/r2media/pkg/r2media"
	"github.com/magezero/r2media/pkg/r2media/api"
	"github.com/magezero/r2media/pkg/r2media/config"
	"github.com/magezero/r2media/pkg/r2media/existcache"
	memorystorage "github.com/magezero/r2media/pkg/r2media/storage/memory"
)

func TestTestConnectionRejectsIncompleteConfig(t *testing.T) {
	validator := config.NewConnectionValidator(&config.Config{})
	handler := api.NewAdminHandler(validator, nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/test-connection", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TestConnectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "bucket is required", resp.Message)
}

func TestTestConnectionOverridesFillMissingFields(t *testing.T) {
	// Saved config has a bucket; the request supplies everything else except
	// credentials, so validation fails one step further along.
	validator := config.NewConnectionValidator(&config.Config{Bucket: "media"})
	handler := api.NewAdminHandler(validator, nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/test-connection?account_id=acct123", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TestConnectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "access key and secret key are required", resp.Message)
}

func TestCleanCachePurgesDerivedImages(t *testing.T) {
	logger := slog.Default()
	media := r2media.NewMediaStore(memorystorage.New(), r2media.NewKeyFormatter(""), logger)
	cache := existcache.New(0)
	sync := r2media.NewCacheSynchronizer(media, cache, t.TempDir(), logger)

	ctx := context.Background()
	derived := "catalog/product/cache/100x100/80/image/a.jpg"
	_, err := media.SaveFile(ctx, r2media.File{Path: derived, Content: []byte("x")}, true)
	require.NoError(t, err)
	cache.Set(derived, true)

	handler := api.NewAdminHandler(nil, sync, logger)

	req := httptest.NewRequest(http.MethodPost, "/cache/clean", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "completed"}`, rec.Body.String())

	exists, err := media.FileExists(ctx, derived)
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok := cache.Get(derived)
	assert.False(t, ok)
}
