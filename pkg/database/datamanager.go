package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/dgraph-io/ristretto"
	"github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v3"
)

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	TTL time.Duration
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{TTL: 5 * time.Minute}
}

// NewCache creates the read cache shared by every DataManager.
// maxCost is expressed in bytes of encoded documents.
func NewCache(maxCost int64) (*ristretto.Cache, error) {
	if maxCost <= 0 {
		maxCost = 32 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	return cache, nil
}

// DataManager provides typed, cached access to one collection of a DocumentStore.
// Updates to the same key are serialized so load-mutate-save cycles never lose writes.
type DataManager[T any] struct {
	collection string
	store      DocumentStore
	cache      *ristretto.Cache
	locks      *xsync.MapOf[string, *sync.Mutex]
	options    DataManagerOptions
}

// NewDataManager creates a new DataManager for a collection. cache may be nil.
func NewDataManager[T any](collection string, store DocumentStore, cache *ristretto.Cache, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}

	return &DataManager[T]{
		collection: collection,
		store:      store,
		cache:      cache,
		locks:      xsync.NewMapOf[string, *sync.Mutex](),
		options:    dmOptions,
	}
}

// Collection returns the collection name
func (dm *DataManager[T]) Collection() string {
	return dm.collection
}

func (dm *DataManager[T]) cacheKey(key string) string {
	return dm.collection + ":" + key
}

func (dm *DataManager[T]) lock(key string) *sync.Mutex {
	mu, _ := dm.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	return mu
}

// decode builds a T from defaults and overlays the stored document on top of it.
// Objects merge key by key; arrays and scalars in the stored document replace the default whole.
func (dm *DataManager[T]) decode(raw []byte, found bool, defaults func() T) (T, error) {
	var doc T
	if !found {
		if defaults != nil {
			doc = defaults()
		}
		return doc, nil
	}
	if defaults != nil {
		base, err := json.Marshal(defaults())
		if err != nil {
			return doc, fmt.Errorf("encoding %s defaults: %w", dm.collection, err)
		}
		raw = overlay(base, raw)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decoding %s document: %w", dm.collection, err)
	}
	return doc, nil
}

// overlay merges stored over base. Anything that is not an object on both sides is taken from stored.
func overlay(base, stored json.RawMessage) json.RawMessage {
	var b, s map[string]json.RawMessage
	if json.Unmarshal(base, &b) != nil || json.Unmarshal(stored, &s) != nil || b == nil || s == nil {
		return stored
	}
	for k, v := range s {
		if bv, ok := b[k]; ok {
			b[k] = overlay(bv, v)
		} else {
			b[k] = v
		}
	}
	merged, err := json.Marshal(b)
	if err != nil {
		return stored
	}
	return merged
}

// Get returns the document for key. Missing documents resolve to defaults();
// stored fields override the defaults one by one, nested objects included.
func (dm *DataManager[T]) Get(ctx context.Context, key string, defaults func() T) (T, error) {
	if dm.cache != nil {
		if cached, ok := dm.cache.Get(dm.cacheKey(key)); ok {
			return dm.decode(cached.([]byte), true, defaults)
		}
	}

	// Misses load under the key lock so a concurrent Update cannot be shadowed by a stale fill
	mu := dm.lock(key)
	mu.Lock()
	defer mu.Unlock()

	raw, found, err := dm.store.Load(ctx, dm.collection, key)
	if err != nil {
		logger.Warn(fmt.Sprintf("Fallo al leer '%s/%s': %v", dm.collection, key, err), "DataManager")
		var zero T
		return zero, err
	}
	if found && dm.cache != nil {
		dm.cache.SetWithTTL(dm.cacheKey(key), raw, int64(len(raw)), dm.options.TTL)
		// Apply the buffered set before releasing the lock so a later Del cannot be overtaken
		dm.cache.Wait()
	}
	return dm.decode(raw, found, defaults)
}

// Update loads the document (or defaults), applies mutate and saves the result,
// all under the per-key lock. A mutate error aborts without writing.
func (dm *DataManager[T]) Update(ctx context.Context, key string, defaults func() T, mutate func(doc *T) error) (T, error) {
	mu := dm.lock(key)
	mu.Lock()
	defer mu.Unlock()

	raw, found, err := dm.store.Load(ctx, dm.collection, key)
	if err != nil {
		var zero T
		return zero, err
	}
	doc, err := dm.decode(raw, found, defaults)
	if err != nil {
		return doc, err
	}

	if err := mutate(&doc); err != nil {
		return doc, err
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return doc, fmt.Errorf("encoding %s document: %w", dm.collection, err)
	}
	if err := dm.store.Save(ctx, dm.collection, key, encoded); err != nil {
		logger.Error(fmt.Sprintf("Fallo al guardar '%s/%s': %v", dm.collection, key, err), "DataManager")
		return doc, err
	}

	if dm.cache != nil {
		dm.cache.Del(dm.cacheKey(key))
	}
	return doc, nil
}

// Delete removes a document from the store and cache
func (dm *DataManager[T]) Delete(ctx context.Context, key string) error {
	mu := dm.lock(key)
	mu.Lock()
	defer mu.Unlock()

	if dm.cache != nil {
		dm.cache.Del(dm.cacheKey(key))
	}
	return dm.store.Delete(ctx, dm.collection, key)
}

// Keys lists the stored keys of the collection
func (dm *DataManager[T]) Keys(ctx context.Context) ([]string, error) {
	return dm.store.Keys(ctx, dm.collection)
}
