package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
	"github.com/crocodeal/crocodealphotographie/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Séance Plage", want: "seance-plage"},
		{title: "Mariage: Sophie & Marc!", want: "mariage-sophie-marc"},
		{title: "Événementiel 2026", want: "evenementiel-2026"},
		{title: "  déjà   vu  ", want: "deja-vu"},
		{title: "studio", want: "studio"},
		{title: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, services.Slugify(tt.title))
		})
	}
}

func TestBatchCreate(t *testing.T) {
	store := contentstore.NewMemoryStore()

	service := services.NewUploadService(services.UploadServiceConfig{
		Store:       store,
		ContentRoot: "content/portfolio",
	})

	files := []services.BatchFile{
		{Name: "a.jpg", URL: "https://cdn.example.com/file/bucket/a.jpg"},
		{Name: "b.jpg", URL: "https://cdn.example.com/file/bucket/b.jpg"},
		{Name: "c.jpg", URL: ""},
	}

	result, err := service.BatchCreate(context.Background(), "mariage", "Séance Plage", files)

	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	require.Len(t, result.Errors, 1)

	assert.Equal(t, "content/portfolio/mariage/seance-plage/seance-plage-1.md", result.Created[0])
	assert.Equal(t, "content/portfolio/mariage/seance-plage/seance-plage-2.md", result.Created[1])

	first := frontmatter.Parse(store.Content(result.Created[0]))
	require.NotNil(t, first)

	assert.Equal(t, "https://cdn.example.com/file/bucket/a.jpg", first["image"])
	assert.Equal(t, "Séance Plage 1", first["title"])
	assert.Equal(t, "Mariage", first["category"])
	assert.Equal(t, "Séance Plage", first["album"])
	assert.Equal(t, true, first["isCover"])

	second := frontmatter.Parse(store.Content(result.Created[1]))
	require.NotNil(t, second)

	/* Only the first photo of a batch becomes the cover. */
	assert.Equal(t, false, second["isCover"])

	/* Synthesized dates are parseable and strictly increasing. */
	firstDate, err := time.Parse(time.RFC3339, first["date"].(string))
	require.NoError(t, err)

	secondDate, err := time.Parse(time.RFC3339, second["date"].(string))
	require.NoError(t, err)

	assert.True(t, secondDate.After(firstDate))
}

func TestBatchCreateEmptySlug(t *testing.T) {
	service := services.NewUploadService(services.UploadServiceConfig{
		Store:       contentstore.NewMemoryStore(),
		ContentRoot: "content/portfolio",
	})

	_, err := service.BatchCreate(context.Background(), "portrait", "???", []services.BatchFile{
		{Name: "a.jpg", URL: "https://cdn.example.com/a.jpg"},
	})

	assert.Error(t, err)
}
