//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore/disk"
	"github.com/suparena/tablestore/storagemodels"
)

// Test entities
type IntegrationEvent struct {
	ID        string
	UserID    string
	Kind      string
	CreatedAt time.Time
}

func init() {
	disk.RegisterType(IntegrationEvent{})
}

// setupStore builds a Store rooted at TABLESTORE_TEST_DIR, so the large
// tables below land on a real disk rather than tmpfs.
func setupStore(t *testing.T) *tablestore.Store {
	dir := os.Getenv("TABLESTORE_TEST_DIR")
	if dir == "" {
		t.Skip("TABLESTORE_TEST_DIR not set, skipping integration test")
	}
	dir, err := os.MkdirTemp(dir, "tablestore-it-")
	if err != nil {
		t.Fatalf("Failed to create test dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfg := config.Default()
	cfg.DataDir = dir
	if err := cfg.LoadEnv(config.DefaultEnvPrefix); err != nil {
		t.Fatalf("Failed to load environment: %v", err)
	}
	cfg.DataDir = dir
	return tablestore.NewStore(tablestore.WithConfig(cfg), tablestore.WithLogger(cfg.NewLogger(os.Stderr)))
}

func TestIntegrationLargeTable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	store := setupStore(t)
	defer store.CloseAll(ctx)

	const total = 50000
	for _, comp := range []storagemodels.Compression{storagemodels.CompressionNone, storagemodels.CompressionZstd} {
		alias := storagemodels.Alias("events-" + string(comp))
		path := string(alias) + ".tbl"
		_, err := store.New(ctx, alias, storagemodels.OnDisk(path),
			storagemodels.WithEntryType(storagemodels.DuplicateBag),
			storagemodels.WithCompression(comp))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		start := time.Now()
		for i := 0; i < total; i++ {
			event := IntegrationEvent{
				ID:        fmt.Sprintf("evt-%d", i),
				UserID:    fmt.Sprintf("user-%d", i%100),
				Kind:      "login",
				CreatedAt: time.Now(),
			}
			if _, err := store.Put(ctx, alias, event.UserID, event); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}
		t.Logf("%s: wrote %d events in %v", comp, total, time.Since(start))

		if err := store.Close(ctx, alias); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := store.Open(ctx, alias, storagemodels.OnDisk(path)); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if got := store.Size(ctx, alias); got != total {
			t.Fatalf("Expected %d objects after reopen, got %d", total, got)
		}

		info, err := store.Info(ctx, alias)
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		t.Logf("%s: file size %d bytes", comp, info.(*storagemodels.DiskInfo).FileSize)
	}
}

func TestIntegrationStreaming(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	store := setupStore(t)
	defer store.CloseAll(ctx)

	path := filepath.Join("stream", "events.tbl")
	store.New(ctx, "stream", storagemodels.OnDisk(path))
	for i := 0; i < 10000; i++ {
		store.Put(ctx, "stream", fmt.Sprintf("key-%05d", i), i)
	}

	var progressCalled int
	results := store.Stream(ctx, "stream",
		storagemodels.WithBufferSize(64),
		storagemodels.WithProgressInterval(1000),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progressCalled++
			t.Logf("Progress: %d items processed, %.0f items/s", p.ItemsProcessed, p.CurrentRate)
		}),
	)

	count := 0
	for result := range results {
		if result.Error != nil {
			t.Fatalf("Stream error: %v", result.Error)
		}
		count++
	}

	if count != 10000 {
		t.Fatalf("Expected 10000 items, got %d", count)
	}
	if progressCalled == 0 {
		t.Error("Progress handler was not called")
	}
}
