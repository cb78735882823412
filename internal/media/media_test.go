package media

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creatorstation/editorial/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestObjectPath(t *testing.T) {
	p := ObjectPath("3f1c2a9e-0000-4000-8000-000000000001", time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(p, "candidates/3f1c2a9e-0000-4000-8000-000000000001/2026/02/03/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))
	assert.NoError(t, ValidateObjectPath(p))

	assert.Error(t, ValidateObjectPath(""))
	assert.Error(t, ValidateObjectPath("candidates/../../etc/passwd"))
	assert.Error(t, ValidateObjectPath("other/file.jpg"))
}

func TestControllerServesStoredObject(t *testing.T) {
	store := NewMemoryStore()
	path := ObjectPath("c1", time.Now())
	require.NoError(t, store.Put(context.Background(), path, "image/jpeg", []byte("jpeg-bytes")))

	app := fiber.New()
	NewController(store, logging.Discard()).MountController(app.Group("/media"))

	resp, err := app.Test(httptest.NewRequest("GET", "/media/"+path, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "jpeg-bytes", string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/media/"+ObjectPath("c1", time.Now()), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/not-a-path.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGridFSStoreIsolatesDeadlinesPerCall(t *testing.T) {
	// Connect is lazy; no server is contacted while building buckets.
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	store, err := NewGridFSStore(client.Database("editorial_test"), "images")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	buckets := make([]*gridfs.Bucket, 8)
	for i := range buckets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			if i%2 == 0 {
				ctx = short
			}
			var b *gridfs.Bucket
			var err error
			if i%4 < 2 {
				b, err = store.writeBucket(ctx)
			} else {
				b, err = store.readBucket(ctx)
			}
			assert.NoError(t, err)
			buckets[i] = b
		}(i)
	}
	wg.Wait()

	for i := range buckets {
		for j := i + 1; j < len(buckets); j++ {
			assert.NotSame(t, buckets[i], buckets[j])
		}
	}
}
