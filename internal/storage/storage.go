package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ArchiveStorage is the object-storage boundary for archived plan snapshots.
// Superseded plans are exported as JSON blobs so history survives outside the
// primary store.
type ArchiveStorage interface {
	// PutPlanSnapshot uploads one serialized plan under the given object key.
	PutPlanSnapshot(ctx context.Context, objectKey string, data []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for a snapshot directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// SnapshotKey builds the canonical object key for a user's archived plan.
func SnapshotKey(userID, planID string) string {
	return "archives/" + userID + "/" + planID + ".json"
}
