package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanReturnsMarkdownSortedByPath(t *testing.T) {
	store := contentstore.NewMemoryStore()
	store.Seed("content/portfolio/portrait/studio/photo-2.md", "two")
	store.Seed("content/portfolio/portrait/studio/photo-1.md", "one")
	store.Seed("content/portfolio/portrait/studio/notes.txt", "not content")
	store.Seed("content/portfolio/portrait/exterieur/photo-1.md", "three")
	store.Seed("content/portfolio/portrait/_index.md", "index")

	scanner := services.NewScannerService(services.ScannerServiceConfig{
		Store:          store,
		MaxScanWorkers: 4,
	})

	items := scanner.Scan(context.Background(), "content/portfolio/portrait")

	require.Len(t, items, 4)
	assert.Equal(t, "content/portfolio/portrait/_index.md", items[0].Path)
	assert.Equal(t, "content/portfolio/portrait/exterieur/photo-1.md", items[1].Path)
	assert.Equal(t, "content/portfolio/portrait/studio/photo-1.md", items[2].Path)
	assert.Equal(t, "content/portfolio/portrait/studio/photo-2.md", items[3].Path)
	assert.Equal(t, "one", items[2].Content)
}

func TestScanMissingRootReturnsNothing(t *testing.T) {
	store := contentstore.NewMemoryStore()

	scanner := services.NewScannerService(services.ScannerServiceConfig{
		Store: store,
	})

	items := scanner.Scan(context.Background(), "content/portfolio/voyage")

	assert.Empty(t, items)
}

func TestScanReturnsWhenContextCancelled(t *testing.T) {
	store := contentstore.NewMemoryStore()
	store.Seed("content/portfolio/portrait/studio/photo-1.md", "one")
	store.Seed("content/portfolio/portrait/exterieur/photo-1.md", "two")

	scanner := services.NewScannerService(services.ScannerServiceConfig{
		Store:          store,
		MaxScanWorkers: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan []services.RawItem, 1)

	go func() {
		done <- scanner.Scan(ctx, "content/portfolio/portrait")
	}()

	select {
	case items := <-done:
		assert.Empty(t, items)

	case <-time.After(2 * time.Second):
		t.Fatal("scan did not return after its context was cancelled")
	}
}

func TestScanUnreachableSubtreeIsSkipped(t *testing.T) {
	store := contentstore.NewMemoryStore()
	store.Seed("content/portfolio/portrait/studio/photo-1.md", "one")
	store.Seed("content/portfolio/portrait/exterieur/photo-1.md", "two")
	store.FailPaths["content/portfolio/portrait/exterieur"] = true

	scanner := services.NewScannerService(services.ScannerServiceConfig{
		Store: store,
	})

	items := scanner.Scan(context.Background(), "content/portfolio/portrait")

	require.Len(t, items, 1)
	assert.Equal(t, "content/portfolio/portrait/studio/photo-1.md", items[0].Path)
}
