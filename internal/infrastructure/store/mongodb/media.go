package mongodb

import (
	"bytes"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mediaBucketName = "media"

// MediaStore archives attachment bytes in a GridFS bucket. Uploads are
// best-effort from the caller's point of view; the bucket is shared with the
// rest of the bridge's database.
type MediaStore struct {
	bucket *gridfs.Bucket
}

// NewMediaStore creates a GridFS-backed media store on the given database.
func NewMediaStore(db *mongo.Database) (*MediaStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(mediaBucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to create gridfs bucket: %w", err)
	}
	return &MediaStore{bucket: bucket}, nil
}

// Put stores a blob and returns its storage id.
func (s *MediaStore) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})

	// mongo-driver v1's GridFS API takes no context; honor the caller's
	// deadline via the bucket's write deadline instead.
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return "", fmt.Errorf("failed to set gridfs write deadline: %w", err)
		}
	}
	id, err := s.bucket.UploadFromStream(filename, bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to gridfs: %w", filename, err)
	}
	return id.Hex(), nil
}
