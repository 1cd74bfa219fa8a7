package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magezero/r2media/pkg/r2media"
	"github.com/magezero/r2media/pkg/r2media/storage/memory"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "a/b.jpg", strings.NewReader("bytes")))

	rc, err := backend.Download(ctx, "a/b.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestDownloadMissingKey(t *testing.T) {
	backend := memory.New()

	_, err := backend.Download(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, r2media.ErrObjectNotFound)
}

func TestUploadWithParamsKeepsMetadata(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader("img"), r2media.UploadParams{
		ObjectKey:   "img.png",
		MimeType:    "image/png",
		Disposition: "inline",
	})
	require.NoError(t, err)

	meta, err := backend.GetObjectMeta(ctx, "img.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, "inline", meta.Metadata["content_disposition"])
	assert.Equal(t, int64(3), meta.Size)
}

func TestDeleteAndBatch(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "a.jpg", strings.NewReader("x")))
	require.NoError(t, backend.Upload(ctx, "b.jpg", strings.NewReader("x")))

	require.NoError(t, backend.Delete(ctx, "a.jpg"))
	assert.ErrorIs(t, backend.Delete(ctx, "a.jpg"), r2media.ErrObjectNotFound)

	// Batch deletes skip keys that are already gone.
	require.NoError(t, backend.DeleteBatch(ctx, []string{"a.jpg", "b.jpg"}))

	exists, err := backend.Exists(ctx, "b.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCopyIsDeep(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "src.jpg", strings.NewReader("payload")))
	require.NoError(t, backend.Copy(ctx, "src.jpg", "dst.jpg"))

	// Deleting the source leaves the copy intact.
	require.NoError(t, backend.Delete(ctx, "src.jpg"))

	rc, err := backend.Download(ctx, "dst.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestCopyMissingSource(t *testing.T) {
	backend := memory.New()

	err := backend.Copy(context.Background(), "missing.jpg", "dst.jpg")
	assert.ErrorIs(t, err, r2media.ErrObjectNotFound)
}

func TestListWithDelimiter(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	for _, key := range []string{"dir/a.jpg", "dir/b.jpg", "dir/sub/c.jpg", "other/d.jpg"} {
		require.NoError(t, backend.Upload(ctx, key, strings.NewReader("x")))
	}

	infos, err := backend.List(ctx, r2media.ListOptions{Prefix: "dir/", Delimiter: "/"})
	require.NoError(t, err)

	var files, prefixes []string
	for _, info := range infos {
		if info.IsPrefix {
			prefixes = append(prefixes, info.Key)
		} else {
			files = append(files, info.Key)
		}
	}
	assert.Equal(t, []string{"dir/a.jpg", "dir/b.jpg"}, files)
	assert.Equal(t, []string{"dir/sub/"}, prefixes)
}
