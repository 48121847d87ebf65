package port

import (
	"context"
	"io"
)

// ArtifactStorage moves videos and produced artifacts between the worker
// and the object store.
type ArtifactStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadArtifact(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadArtifact(ctx context.Context, objectKey string) ([]byte, error)

	// RemoveArtifact releases a superseded object. Slots hold at most one
	// live object, so every replacement is paired with a removal.
	RemoveArtifact(ctx context.Context, objectKey string) error
}
