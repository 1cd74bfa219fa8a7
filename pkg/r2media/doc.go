// Package r2media redirects a platform's media storage to an S3-compatible
// object store (Cloudflare R2) and serves derived image sizes on demand.
//
// The package provides:
//   - BlobStore: the object-store contract implemented by storage/s3,
//     storage/fs and storage/memory
//   - MediaStore: logical-path file operations (load, save, copy, list,
//     prefix delete) on top of a BlobStore and a key prefix
//   - Service: the on-demand resize orchestrator (cache check, download,
//     transcode, upload, redirect)
//   - CacheSynchronizer: bulk upload of a locally generated image cache
//
// Existence caching, scratch-space management and image transcoding live in
// the existcache, scratch and transcode subpackages.
package r2media
