package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
)

type AlbumIndexResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type AlbumIndexServicer interface {
	CreateMissing(ctx context.Context) (AlbumIndexResult, error)
}

type AlbumIndexServiceConfig struct {
	Store       contentstore.ContentStore
	Categories  []string
	ContentRoot string
}

/*
AlbumIndexService creates the _index.md files the CMS needs to recognize
album directories as nested collections. Albums created through the batch
uploader have one already; albums created by hand usually do not.
*/
type AlbumIndexService struct {
	store       contentstore.ContentStore
	categories  []string
	contentRoot string
}

func NewAlbumIndexService(config AlbumIndexServiceConfig) AlbumIndexService {
	return AlbumIndexService{
		store:       config.Store,
		categories:  config.Categories,
		contentRoot: config.ContentRoot,
	}
}

func (s AlbumIndexService) CreateMissing(ctx context.Context) (AlbumIndexResult, error) {
	result := AlbumIndexResult{}

	for _, category := range s.categories {
		categoryPath := path.Join(s.contentRoot, strings.ToLower(category))

		albums, err := s.store.List(ctx, categoryPath)

		if err != nil {
			slog.Warn("category not accessible, skipping", "path", categoryPath, "error", err)
			continue
		}

		for _, album := range albums {
			if album.Type != contentstore.ItemTypeDir {
				continue
			}

			indexPath := album.Path + "/_index.md"

			exists, existsErr := s.store.Exists(ctx, indexPath)

			if existsErr != nil {
				slog.Error("error checking album index", "path", indexPath, "error", existsErr)
				result.Errors++
				continue
			}

			if exists {
				result.Skipped++
				continue
			}

			albumName := titleFromSlug(album.Name)

			content := frontmatter.Serialize([]frontmatter.Field{
				{Key: "title", Value: albumName},
				{Key: "album", Value: albumName},
				{Key: "category", Value: categoryDisplayName(category)},
				{Key: "date", Value: time.Now().UTC().Format(time.RFC3339)},
			})

			message := fmt.Sprintf("Create album index: %s", albumName)

			if _, writeErr := s.store.Write(ctx, indexPath, []byte(content), "", message); writeErr != nil {
				slog.Error("error creating album index", "path", indexPath, "error", writeErr)
				result.Errors++
				continue
			}

			slog.Info("created album index", "path", indexPath)
			result.Created++
		}
	}

	return result, nil
}

/*
titleFromSlug turns an album directory slug back into a display name:
"seance-plage" becomes "Seance Plage".
*/
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")

	for index, word := range words {
		words[index] = capitalize(word)
	}

	return strings.Join(words, " ")
}

func categoryDisplayName(category string) string {
	return capitalize(category)
}

func capitalize(word string) string {
	runes := []rune(word)

	if len(runes) == 0 {
		return word
	}

	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
