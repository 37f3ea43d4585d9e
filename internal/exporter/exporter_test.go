package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository/sqlite"
	"inventory-api/internal/service"
	"inventory-api/internal/storage"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Key] = data
	m.uploads++
	return fmt.Sprintf("s3://%s/%s", opts.Bucket, opts.Key), nil
}

func (m *memoryStorage) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStorage) DeleteObjects(_ context.Context, _ string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

func (m *memoryStorage) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example/%s?ttl=%d", bucket, key, int(expires.Seconds())), nil
}

func (m *memoryStorage) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *memoryStorage) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func newInventory(t *testing.T) service.InventoryService {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.NewInventoryRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return service.NewInventoryService(repo, service.PageLimits{})
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestExporter_ExportNow(t *testing.T) {
	ctx := context.Background()
	inventory := newInventory(t)
	for _, it := range []domain.Inventory{
		{Name: "Laptop", Description: "Dell XPS", Price: decimal.RequireFromString("1200.00"), StockQuantity: 10},
		{Name: "Mouse", Description: "Logitech", Price: decimal.RequireFromString("25.50"), StockQuantity: 2},
	} {
		_, err := inventory.CreateInventory(ctx, it)
		require.NoError(t, err)
	}

	store := newMemoryStorage()
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	exp, err := New(Config{
		Bucket:            "bucket",
		KeyPrefix:         "/snapshots/",
		LowStockThreshold: 5,
		Logger:            quietLogger(),
		Now:               func() time.Time { return fixed },
	}, inventory, store)
	require.NoError(t, err)

	snap, err := exp.ExportNow(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(snap.Key, "snapshots/inventory-20240506T070809.000000000Z-"), snap.Key)
	assert.True(t, strings.HasSuffix(snap.Key, ".json"))
	assert.Equal(t, "s3://bucket/"+snap.Key, snap.Location)
	assert.Equal(t, 2, snap.ItemCount)
	assert.Equal(t, 1, snap.LowStock)
	assert.Equal(t, fixed, snap.GeneratedAt)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(store.objects[snap.Key], &doc))
	assert.EqualValues(t, 2, doc["itemCount"])
	assert.EqualValues(t, 5, doc["lowStockThreshold"])
	items := doc["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Laptop", first["name"])
	assert.EqualValues(t, 1200, first["price"])
	assert.EqualValues(t, 10, first["stockQuantity"])
	assert.Len(t, doc["lowStock"], 1)
}

func TestExporter_ListAndPrune(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStorage()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp, err := New(Config{
		Bucket:    "bucket",
		KeyPrefix: "snapshots",
		URLExpiry: time.Minute,
		Logger:    quietLogger(),
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}, newInventory(t), store)
	require.NoError(t, err)

	var keys []string
	for i := 0; i < 4; i++ {
		snap, err := exp.ExportNow(ctx)
		require.NoError(t, err)
		keys = append(keys, snap.Key)
	}
	store.objects["snapshots/readme.txt"] = []byte("not a snapshot")

	listed, err := exp.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	assert.Equal(t, keys[3], listed[0].Key)
	assert.Equal(t, keys[0], listed[3].Key)
	assert.Equal(t, "https://bucket.example/"+keys[3]+"?ttl=60", listed[0].URL)

	removed, err := exp.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{keys[2], keys[3], "snapshots/readme.txt"}, store.keys())

	removed, err = exp.Prune(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = exp.Prune(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExporter_PruneKeepsNewestWithinSameSecond(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStorage()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp, err := New(Config{
		Bucket: "bucket",
		Logger: quietLogger(),
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
	}, newInventory(t), store)
	require.NoError(t, err)

	var last string
	for i := 0; i < 20; i++ {
		snap, err := exp.ExportNow(ctx)
		require.NoError(t, err)
		last = snap.Key
	}

	removed, err := exp.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 19, removed)
	assert.Equal(t, []string{last}, store.keys())
}

func TestExporter_PeriodicExport(t *testing.T) {
	store := newMemoryStorage()
	exp, err := New(Config{
		Bucket:   "bucket",
		Interval: 10 * time.Millisecond,
		Keep:     1,
		Logger:   quietLogger(),
	}, newInventory(t), store)
	require.NoError(t, err)

	require.NoError(t, exp.Start(context.Background()))
	assert.Error(t, exp.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return store.uploadCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	exp.Shutdown()

	assert.Len(t, store.keys(), 1)
	uploads := store.uploadCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, uploads, store.uploadCount())
}

func TestExporter_DisabledInterval(t *testing.T) {
	store := newMemoryStorage()
	exp, err := New(Config{Bucket: "bucket", Logger: quietLogger()}, newInventory(t), store)
	require.NoError(t, err)

	require.NoError(t, exp.Start(context.Background()))
	exp.Shutdown()
	assert.Zero(t, store.uploadCount())
}

func TestNew_Validation(t *testing.T) {
	inventory := newInventory(t)
	store := newMemoryStorage()

	_, err := New(Config{}, inventory, store)
	assert.Error(t, err)
	_, err = New(Config{Bucket: "b"}, nil, store)
	assert.Error(t, err)
	_, err = New(Config{Bucket: "b"}, inventory, nil)
	assert.Error(t, err)
}
