package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrObjectNotFound = errors.New("media object not found")

// Object is a stored media payload.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore is durable storage for synthesized media.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
	Open(ctx context.Context, path string) (*Object, error)
}

// GridFSStore keeps objects in a MongoDB GridFS bucket, keyed by path.
// Each operation opens its own bucket handle so per-call deadlines never
// leak between concurrent requests.
type GridFSStore struct {
	db   *mongo.Database
	name string
}

func NewGridFSStore(db *mongo.Database, bucketName string) (*GridFSStore, error) {
	s := &GridFSStore{db: db, name: bucketName}
	if _, err := s.bucket(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GridFSStore) bucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.name))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return bucket, nil
}

// writeBucket returns a fresh bucket carrying ctx's deadline, if any.
func (s *GridFSStore) writeBucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := s.bucket()
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (s *GridFSStore) readBucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := s.bucket()
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (s *GridFSStore) Put(ctx context.Context, path, contentType string, data []byte) error {
	bucket, err := s.writeBucket(ctx)
	if err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if _, err := bucket.UploadFromStream(path, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("gridfs upload %s: %w", path, err)
	}
	return nil
}

func (s *GridFSStore) Open(ctx context.Context, path string) (*Object, error) {
	bucket, err := s.readBucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := bucket.OpenDownloadStreamByName(path)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gridfs open %s: %w", path, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("gridfs read %s: %w", path, err)
	}
	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && len(file.Metadata) > 0 {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return &Object{Data: data, ContentType: contentType}, nil
}

// MemoryStore is an in-process ObjectStore for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(_ context.Context, path, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *MemoryStore) Open(_ context.Context, path string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &obj, nil
}

// Paths lists stored object paths.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}
