package services_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
	"github.com/crocodeal/crocodealphotographie/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryFile(title, image, category, album string, isCover bool) string {
	sb := strings.Builder{}
	sb.WriteString("---\n")
	sb.WriteString("title: " + title + "\n")
	sb.WriteString("image: " + image + "\n")
	sb.WriteString("category: " + category + "\n")
	sb.WriteString("album: " + album + "\n")

	if isCover {
		sb.WriteString("isCover: true\n")
	}

	sb.WriteString("---\n")
	return sb.String()
}

func newPortfolioService(store contentstore.ContentStore, categories []string) services.PortfolioService {
	scanner := services.NewScannerService(services.ScannerServiceConfig{
		Store:          store,
		MaxScanWorkers: 4,
	})

	validator := services.NewValidatorService(services.ValidatorServiceConfig{
		Store: store,
	})

	return services.NewPortfolioService(services.PortfolioServiceConfig{
		Store:          store,
		Scanner:        scanner,
		Validator:      validator,
		Categories:     categories,
		ContentRoot:    "content/portfolio",
		IndexPath:      "portfolio-index.json",
		CoverCachePath: "covers-cache.json",
	})
}

func seedContentTree(store *contentstore.MemoryStore) {
	store.Seed("static/img/portrait/studio/photo-1.jpg", "bytes")
	store.Seed("static/img/portrait/studio/photo-2.jpg", "bytes")
	store.Seed("static/img/mariage/plage/photo-1.jpg", "bytes")
	store.Seed("static/img/mariage/plage/photo-2.jpg", "bytes")

	store.Seed("content/portfolio/portrait/studio/photo-1.md",
		entryFile("Studio 1", "/static/img/portrait/studio/photo-1.jpg", "portrait", "studio", false))
	store.Seed("content/portfolio/portrait/studio/photo-2.md",
		entryFile("Studio 2", "/static/img/portrait/studio/photo-2.jpg", "portrait", "studio", false))
	store.Seed("content/portfolio/portrait/studio/photo-3.md",
		entryFile("Studio 3", "/static/img/portrait/studio/photo-3.jpg", "portrait", "studio", false))

	store.Seed("content/portfolio/mariage/plage/photo-1.md",
		entryFile("Plage 1", "/static/img/mariage/plage/photo-1.jpg", "mariage", "plage", false))
	store.Seed("content/portfolio/mariage/plage/photo-2.md",
		entryFile("Plage 2", "/static/img/mariage/plage/photo-2.jpg", "mariage", "plage", true))
}

func TestRegenerate(t *testing.T) {
	store := contentstore.NewMemoryStore()
	seedContentTree(store)

	service := newPortfolioService(store, []string{"portrait", "mariage"})

	report, err := service.Regenerate(context.Background(), "test")

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.True(t, report.Changed)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 4, report.Valid)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 2, report.Covers)

	/*
	 * The index lists categories in their configured order, entries within a
	 * category in path order. The broken entry is absent.
	 */
	index := []models.PortfolioEntry{}
	require.NoError(t, json.Unmarshal([]byte(store.Content("portfolio-index.json")), &index))
	require.Len(t, index, 4)

	assert.Equal(t, "Studio 1", index[0].Title)
	assert.Equal(t, "Studio 2", index[1].Title)
	assert.Equal(t, "Plage 1", index[2].Title)
	assert.Equal(t, "Plage 2", index[3].Title)

	/*
	 * One cover per album: the marked entry when there is one, the album's
	 * first entry otherwise.
	 */
	covers := models.CoverCache{}
	require.NoError(t, json.Unmarshal([]byte(store.Content("covers-cache.json")), &covers))
	require.Len(t, covers.Covers, 2)

	assert.Greater(t, covers.Version, int64(0))
	assert.Equal(t, "portrait", covers.Covers[0].Category)
	assert.Equal(t, "/static/img/portrait/studio/photo-1.jpg", covers.Covers[0].ImageURL)
	assert.Equal(t, "mariage", covers.Covers[1].Category)
	assert.Equal(t, "/static/img/mariage/plage/photo-2.jpg", covers.Covers[1].ImageURL)
	assert.Equal(t, covers.Covers[1].ImageURL, covers.Covers[1].OptimizedURL)

	/*
	 * Artifacts are written pretty-printed so content repo diffs stay
	 * readable.
	 */
	assert.True(t, strings.HasPrefix(store.Content("portfolio-index.json"), "[\n  {"))
}

func TestRegenerateIsDeterministic(t *testing.T) {
	first := contentstore.NewMemoryStore()
	seedContentTree(first)

	second := contentstore.NewMemoryStore()
	seedContentTree(second)

	_, err := newPortfolioService(first, []string{"portrait", "mariage"}).Regenerate(context.Background(), "test")
	require.NoError(t, err)

	_, err = newPortfolioService(second, []string{"portrait", "mariage"}).Regenerate(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, first.Content("portfolio-index.json"), second.Content("portfolio-index.json"))
}

func TestRegenerateSkipsWriteWhenUnchanged(t *testing.T) {
	store := contentstore.NewMemoryStore()
	seedContentTree(store)

	service := newPortfolioService(store, []string{"portrait", "mariage"})
	ctx := context.Background()

	report, err := service.Regenerate(ctx, "test")
	require.NoError(t, err)
	require.True(t, report.Changed)

	indexRevision := store.CurrentRevision("portfolio-index.json")
	coversRevision := store.CurrentRevision("covers-cache.json")

	report, err = service.Regenerate(ctx, "test")
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.False(t, report.Changed)
	assert.Equal(t, indexRevision, store.CurrentRevision("portfolio-index.json"))
	assert.Equal(t, coversRevision, store.CurrentRevision("covers-cache.json"))
}

func TestRegenerateRecreatesMissingCoverCache(t *testing.T) {
	store := contentstore.NewMemoryStore()
	seedContentTree(store)

	service := newPortfolioService(store, []string{"portrait", "mariage"})
	ctx := context.Background()

	_, err := service.Regenerate(ctx, "test")
	require.NoError(t, err)

	/*
	 * Lose the cache artifact while the index stays current; the next run
	 * must recreate it even though nothing else changed.
	 */
	require.NoError(t, store.Delete(ctx, "covers-cache.json", "", ""))

	report, err := service.Regenerate(ctx, "test")

	require.NoError(t, err)
	assert.False(t, report.Changed)

	covers := models.CoverCache{}
	require.NoError(t, json.Unmarshal([]byte(store.Content("covers-cache.json")), &covers))
	assert.Len(t, covers.Covers, 2)
}

func TestRegenerateTreatsLegacyCoverEncodingAsUnchanged(t *testing.T) {
	store := contentstore.NewMemoryStore()
	store.Seed("static/img/mariage/plage/photo-1.jpg", "bytes")
	store.Seed("content/portfolio/mariage/plage/photo-1.md",
		entryFile("Plage 1", "/static/img/mariage/plage/photo-1.jpg", "mariage", "plage", true))

	store.Seed("portfolio-index.json", `[
  {
    "image": "/static/img/mariage/plage/photo-1.jpg",
    "title": "Plage 1",
    "category": "mariage",
    "album": "plage",
    "date": "",
    "isCover": "True"
  }
]`)

	service := newPortfolioService(store, []string{"mariage"})

	report, err := service.Regenerate(context.Background(), "test")

	require.NoError(t, err)
	assert.False(t, report.Changed)
}

/*
staleRevisionStore simulates a concurrent writer: the revision handed to the
caller is older than the one the store will enforce on write.
*/
type staleRevisionStore struct {
	contentstore.ContentStore

	staleRevision string
}

func (s staleRevisionStore) Revision(_ context.Context, _ string) (string, error) {
	return s.staleRevision, nil
}

func TestRegenerateConflictFailsRun(t *testing.T) {
	store := contentstore.NewMemoryStore()
	store.Seed("static/img/mariage/plage/photo-1.jpg", "bytes")
	store.Seed("content/portfolio/mariage/plage/photo-1.md",
		entryFile("Plage 1", "/static/img/mariage/plage/photo-1.jpg", "mariage", "plage", false))

	store.Seed("portfolio-index.json", "[]")
	staleRevision := store.CurrentRevision("portfolio-index.json")
	store.Seed("portfolio-index.json", `[{"image":"x","title":"someone else wrote this"}]`)

	scanner := services.NewScannerService(services.ScannerServiceConfig{Store: store})
	validator := services.NewValidatorService(services.ValidatorServiceConfig{Store: store})

	service := services.NewPortfolioService(services.PortfolioServiceConfig{
		Store:          staleRevisionStore{ContentStore: store, staleRevision: staleRevision},
		Scanner:        scanner,
		Validator:      validator,
		Categories:     []string{"mariage"},
		ContentRoot:    "content/portfolio",
		IndexPath:      "portfolio-index.json",
		CoverCachePath: "covers-cache.json",
	})

	report, err := service.Regenerate(context.Background(), "test")

	assert.ErrorIs(t, err, contentstore.ErrConflict)
	assert.False(t, report.Success)
	assert.Contains(t, report.Message, "failed to persist portfolio index")

	// The concurrent writer's content is left alone.
	assert.Equal(t, `[{"image":"x","title":"someone else wrote this"}]`, store.Content("portfolio-index.json"))
}

func TestSelectCovers(t *testing.T) {
	service := newPortfolioService(contentstore.NewMemoryStore(), nil)

	entries := []models.PortfolioEntry{
		{Image: "a.jpg", Title: "A", Category: "portrait", Album: "studio"},
		{Image: "b.jpg", Title: "B", Category: "portrait", Album: "studio", IsCover: true},
		{Image: "c.jpg", Title: "C", Category: "voyage", Album: "islande"},
		{Image: "d.jpg", Title: "D", Category: "", Album: "orphan"},
		{Image: "e.jpg", Title: "E", Category: "voyage", Album: ""},
	}

	covers := service.SelectCovers(entries)

	require.Len(t, covers.Covers, 2)
	assert.Equal(t, "b.jpg", covers.Covers[0].ImageURL)
	assert.Equal(t, "studio", covers.Covers[0].Album)
	assert.Equal(t, "c.jpg", covers.Covers[1].ImageURL)
	assert.Equal(t, "islande", covers.Covers[1].Album)
}

func TestPersistIndexEmptyEntries(t *testing.T) {
	store := contentstore.NewMemoryStore()
	service := newPortfolioService(store, nil)

	changed, err := service.PersistIndex(context.Background(), []models.PortfolioEntry{})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "[]", store.Content("portfolio-index.json"))
}
