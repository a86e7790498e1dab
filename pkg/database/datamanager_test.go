package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

type testDoc struct {
	Name    string   `json:"name"`
	Counter int      `json:"counter"`
	Tags    []string `json:"tags"`
	Nested  struct {
		Enabled bool `json:"enabled"`
		Limit   int  `json:"limit"`
	} `json:"nested"`
}

func testDefaults() testDoc {
	d := testDoc{Name: "default", Tags: []string{"a"}}
	d.Nested.Limit = 5
	return d
}

func newTestManager(t *testing.T) (*DataManager[testDoc], DocumentStore) {
	t.Helper()
	cache, err := NewCache(1 << 20)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	store := NewMemoryStore()
	return NewDataManager[testDoc]("tests", store, cache), store
}

func TestGetReturnsDefaultsWhenMissing(t *testing.T) {
	dm, _ := newTestManager(t)

	doc, err := dm.Get(context.Background(), "g1", testDefaults)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Name != "default" || doc.Nested.Limit != 5 || len(doc.Tags) != 1 {
		t.Errorf("Get() = %+v, want defaults", doc)
	}
}

func TestStoredFieldsOverlayDefaults(t *testing.T) {
	dm, store := newTestManager(t)

	// Only nested.enabled is stored, limit must come from defaults
	if err := store.Save(context.Background(), "tests", "g1", []byte(`{"nested":{"enabled":true}}`)); err != nil {
		t.Fatal(err)
	}

	doc, err := dm.Get(context.Background(), "g1", testDefaults)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !doc.Nested.Enabled {
		t.Error("stored nested.enabled was lost")
	}
	if doc.Nested.Limit != 5 {
		t.Errorf("nested.limit = %d, want default 5", doc.Nested.Limit)
	}
	if doc.Name != "default" {
		t.Errorf("name = %q, want default", doc.Name)
	}
}

type ruleDoc struct {
	Rules []struct {
		Threshold int   `json:"threshold"`
		Millis    int64 `json:"millis,omitempty"`
	} `json:"rules"`
}

func TestStoredArraysReplaceDefaults(t *testing.T) {
	store := NewMemoryStore()
	dm := NewDataManager[ruleDoc]("rules", store, nil)
	defaults := func() ruleDoc {
		var d ruleDoc
		_ = json.Unmarshal([]byte(`{"rules":[{"threshold":3,"millis":3600000},{"threshold":5}]}`), &d)
		return d
	}

	tests := []struct {
		name   string
		stored string
		want   []int64
	}{
		{"omitted field does not inherit default element", `{"rules":[{"threshold":4}]}`, []int64{0}},
		{"shorter array", `{"rules":[{"threshold":3}]}`, []int64{0}},
		{"empty array", `{"rules":[]}`, []int64{}},
		{"missing array keeps defaults", `{}`, []int64{3600000, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Save(context.Background(), "rules", "g1", []byte(tt.stored)); err != nil {
				t.Fatal(err)
			}
			doc, err := dm.Get(context.Background(), "g1", defaults)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if len(doc.Rules) != len(tt.want) {
				t.Fatalf("rules = %+v, want %d", doc.Rules, len(tt.want))
			}
			for i, r := range doc.Rules {
				if r.Millis != tt.want[i] {
					t.Errorf("rules[%d].millis = %d, want %d", i, r.Millis, tt.want[i])
				}
			}
		})
	}
}

func TestUpdatePersistsAndInvalidatesCache(t *testing.T) {
	dm, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := dm.Update(ctx, "g1", testDefaults, func(d *testDoc) error {
		d.Name = "first"
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	// Warm the cache
	if _, err := dm.Get(ctx, "g1", testDefaults); err != nil {
		t.Fatal(err)
	}

	if _, err := dm.Update(ctx, "g1", testDefaults, func(d *testDoc) error {
		d.Name = "second"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := dm.Get(ctx, "g1", testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "second" {
		t.Errorf("Name = %q, want %q", doc.Name, "second")
	}
}

func TestUpdateMutateErrorAbortsWrite(t *testing.T) {
	dm, store := newTestManager(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	_, err := dm.Update(ctx, "g1", testDefaults, func(d *testDoc) error {
		d.Name = "never saved"
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Update() error = %v, want %v", err, errBoom)
	}

	if _, found, _ := store.Load(ctx, "tests", "g1"); found {
		t.Error("document was written despite mutate error")
	}
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	dm, _ := newTestManager(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dm.Update(ctx, "g1", testDefaults, func(d *testDoc) error {
				d.Counter++
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	doc, err := dm.Get(ctx, "g1", testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Counter != workers {
		t.Errorf("Counter = %d, want %d", doc.Counter, workers)
	}
}

func TestDeleteAndKeys(t *testing.T) {
	dm, _ := newTestManager(t)
	ctx := context.Background()

	for _, key := range []string{"b", "a"} {
		if _, err := dm.Update(ctx, key, testDefaults, func(d *testDoc) error { return nil }); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := dm.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := dm.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	doc, err := dm.Get(ctx, "a", testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "default" {
		t.Errorf("Get() after Delete = %+v, want defaults", doc)
	}
}

func TestNilCacheIsSupported(t *testing.T) {
	dm := NewDataManager[testDoc]("tests", NewMemoryStore(), nil)
	ctx := context.Background()

	if _, err := dm.Update(ctx, "g1", testDefaults, func(d *testDoc) error {
		d.Counter = 3
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	doc, err := dm.Get(ctx, "g1", testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Counter != 3 {
		t.Errorf("Counter = %d, want 3", doc.Counter)
	}
}
