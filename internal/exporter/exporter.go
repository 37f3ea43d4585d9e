package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inventory-api/internal/domain"
	"inventory-api/internal/service"
	"inventory-api/internal/storage"
)

const (
	keyTimeLayout  = "20060102T150405.000000000Z"
	snapshotPrefix = "inventory-"
	snapshotSuffix = ".json"
)

// Exporter writes inventory snapshots to object storage, on demand or on a timer.
type Exporter interface {
	Start(ctx context.Context) error
	Shutdown()
	ExportNow(ctx context.Context) (*Snapshot, error)
	List(ctx context.Context) ([]SnapshotObject, error)
	Prune(ctx context.Context, keep int) (int, error)
}

type Config struct {
	Bucket            string
	KeyPrefix         string
	Interval          time.Duration
	Keep              int
	LowStockThreshold int
	URLExpiry         time.Duration
	Logger            *logrus.Logger
	Now               func() time.Time
}

// Snapshot describes an uploaded export.
type Snapshot struct {
	Key         string
	Location    string
	ItemCount   int
	LowStock    int
	GeneratedAt time.Time
}

// SnapshotObject is a stored export with a temporary download link.
type SnapshotObject struct {
	Key          string
	Size         int64
	LastModified *time.Time
	URL          string
}

type snapshotDocument struct {
	GeneratedAt       time.Time      `json:"generatedAt"`
	ItemCount         int            `json:"itemCount"`
	LowStockThreshold int            `json:"lowStockThreshold"`
	LowStock          []int64        `json:"lowStock"`
	Items             []snapshotItem `json:"items"`
}

type snapshotItem struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         json.RawMessage `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type exporter struct {
	cfg       Config
	inventory service.InventoryService
	storage   storage.Service

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(cfg Config, inventory service.InventoryService, store storage.Service) (Exporter, error) {
	if inventory == nil {
		return nil, errors.New("inventory service is required")
	}
	if store == nil {
		return nil, errors.New("storage service is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 15 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &exporter{
		cfg:       cfg,
		inventory: inventory,
		storage:   store,
	}, nil
}

func (e *exporter) Start(ctx context.Context) error {
	if e.cfg.Interval <= 0 {
		e.cfg.Logger.Info("periodic inventory export disabled")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return errors.New("exporter already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.loop(loopCtx)
	}()

	e.cfg.Logger.Infof("inventory exporter started, interval: %s", e.cfg.Interval)
	return nil
}

func (e *exporter) Shutdown() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	e.cfg.Logger.Info("inventory exporter stopped")
}

func (e *exporter) loop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *exporter) tick(ctx context.Context) {
	snap, err := e.ExportNow(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.cfg.Logger.WithError(err).Warn("periodic inventory export failed")
		}
		return
	}
	e.cfg.Logger.WithFields(logrus.Fields{
		"key":   snap.Key,
		"items": snap.ItemCount,
	}).Info("inventory snapshot exported")

	if e.cfg.Keep > 0 {
		removed, err := e.Prune(ctx, e.cfg.Keep)
		if err != nil {
			e.cfg.Logger.WithError(err).Warn("prune inventory snapshots")
			return
		}
		if removed > 0 {
			e.cfg.Logger.Debugf("pruned %d inventory snapshots", removed)
		}
	}
}

func (e *exporter) ExportNow(ctx context.Context) (*Snapshot, error) {
	items, err := e.inventory.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	generatedAt := e.cfg.Now().UTC()
	doc := snapshotDocument{
		GeneratedAt:       generatedAt,
		ItemCount:         len(items),
		LowStockThreshold: e.cfg.LowStockThreshold,
		LowStock:          []int64{},
		Items:             make([]snapshotItem, len(items)),
	}
	for i := range items {
		doc.Items[i] = toSnapshotItem(items[i])
		if items[i].StockQuantity < e.cfg.LowStockThreshold {
			doc.LowStock = append(doc.LowStock, items[i].ID)
		}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := e.objectKey(generatedAt)
	location, err := e.storage.Upload(ctx, bytes.NewReader(body), storage.UploadOptions{
		Bucket:      e.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Key:         key,
		Location:    location,
		ItemCount:   doc.ItemCount,
		LowStock:    len(doc.LowStock),
		GeneratedAt: generatedAt,
	}, nil
}

func (e *exporter) List(ctx context.Context) ([]SnapshotObject, error) {
	objects, err := e.listSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]SnapshotObject, 0, len(objects))
	for _, obj := range objects {
		url, err := e.storage.GetObjectURL(ctx, e.cfg.Bucket, obj.Key, e.cfg.URLExpiry)
		if err != nil {
			return nil, err
		}
		resp = append(resp, SnapshotObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
		})
	}
	return resp, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
func (e *exporter) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("%w: keep must not be negative", domain.ErrInvalidArgument)
	}
	objects, err := e.listSnapshots(ctx)
	if err != nil {
		return 0, err
	}
	if len(objects) <= keep {
		return 0, nil
	}

	stale := objects[keep:]
	keys := make([]string, len(stale))
	for i := range stale {
		keys[i] = stale[i].Key
	}
	if err := e.storage.DeleteObjects(ctx, e.cfg.Bucket, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// listSnapshots returns export objects under the prefix, newest first.
func (e *exporter) listSnapshots(ctx context.Context) ([]storage.ObjectInfo, error) {
	prefix := e.keyPath(snapshotPrefix)
	objects, err := e.storage.ListObjects(ctx, e.cfg.Bucket, prefix)
	if err != nil {
		return nil, err
	}

	snapshots := objects[:0]
	for _, obj := range objects {
		if strings.HasPrefix(obj.Key, prefix) && strings.HasSuffix(obj.Key, snapshotSuffix) {
			snapshots = append(snapshots, obj)
		}
	}
	// keys embed a sortable UTC timestamp
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Key > snapshots[j].Key
	})
	return snapshots, nil
}

func (e *exporter) objectKey(at time.Time) string {
	name := fmt.Sprintf("%s%s-%s%s", snapshotPrefix, at.UTC().Format(keyTimeLayout), uuid.NewString(), snapshotSuffix)
	return e.keyPath(name)
}

func (e *exporter) keyPath(name string) string {
	if e.cfg.KeyPrefix == "" {
		return name
	}
	return path.Join(e.cfg.KeyPrefix, name)
}

func toSnapshotItem(item domain.Inventory) snapshotItem {
	return snapshotItem{
		ID:            item.ID,
		Name:          item.Name,
		Description:   item.Description,
		Price:         json.RawMessage(item.Price.StringFixed(domain.PriceScale)),
		StockQuantity: item.StockQuantity,
		UpdatedAt:     item.UpdatedAt,
	}
}
