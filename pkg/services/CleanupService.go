package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type CleanupResult struct {
	Before                  int `json:"before"`
	After                   int `json:"after"`
	Cleaned                 int `json:"cleaned"`
	OrphanImagesDeleted     int `json:"orphanImagesDeleted"`
	OrphanMarkdownsDeleted  int `json:"orphanMarkdownsDeleted"`
	EmptyDirectoriesRemoved int `json:"emptyDirectoriesRemoved"`
}

type CleanupServicer interface {
	Clean(ctx context.Context) (CleanupResult, error)
	Reset(ctx context.Context) error
}

type CleanupServiceConfig struct {
	Store            contentstore.ContentStore
	Validator        ValidatorServicer
	PortfolioService PortfolioServicer
	Categories       []string
	ContentRoot      string
	ImageRoot        string
	IndexPath        string
}

/*
CleanupService rebuilds the index from only the entries whose image still
resolves, then sweeps the content tree: markdown files no longer backed by a
valid entry, images nothing references, and album directories left empty.
Entries pointing at an external CDN are kept without deleting anything.
*/
type CleanupService struct {
	store            contentstore.ContentStore
	validator        ValidatorServicer
	portfolioService PortfolioServicer
	categories       []string
	contentRoot      string
	imageRoot        string
	indexPath        string
}

func NewCleanupService(config CleanupServiceConfig) CleanupService {
	return CleanupService{
		store:            config.Store,
		validator:        config.Validator,
		portfolioService: config.PortfolioService,
		categories:       config.Categories,
		contentRoot:      config.ContentRoot,
		imageRoot:        config.ImageRoot,
		indexPath:        config.IndexPath,
	}
}

func (s CleanupService) Clean(ctx context.Context) (CleanupResult, error) {
	var (
		err    error
		result CleanupResult
	)

	result.Before = s.currentIndexSize(ctx)

	validEntries := []models.PortfolioEntry{}
	validImagePaths := map[string]bool{}
	validMarkdownPaths := map[string]bool{}

	for _, category := range s.categories {
		categoryPath := path.Join(s.contentRoot, strings.ToLower(category))

		albums, listErr := s.store.List(ctx, categoryPath)

		if listErr != nil {
			slog.Warn("category not accessible during cleanup", "path", categoryPath, "error", listErr)
			continue
		}

		for _, album := range albums {
			if album.Type != contentstore.ItemTypeDir {
				continue
			}

			files, albumErr := s.store.List(ctx, album.Path)

			if albumErr != nil {
				slog.Warn("album not accessible during cleanup", "path", album.Path, "error", albumErr)
				continue
			}

			for _, file := range files {
				if file.Type != contentstore.ItemTypeFile || !strings.HasSuffix(file.Name, contentExtension) {
					continue
				}

				content, fetchErr := s.store.FetchContent(ctx, file.Path)

				if fetchErr != nil {
					continue
				}

				data := frontmatter.Parse(content)
				entry, validateErr := s.validator.Validate(ctx, data)

				if validateErr != nil {
					slog.Info("cleanup dropping entry", "path", file.Path, "reason", validateErr)
					continue
				}

				validEntries = append(validEntries, entry)
				validMarkdownPaths[file.Path] = true

				if !isExternalImageURL(entry.Image) {
					validImagePaths[strings.TrimPrefix(entry.Image, "/")] = true
				}
			}
		}
	}

	result.OrphanImagesDeleted = s.deleteOrphanImages(ctx, validImagePaths)
	result.OrphanMarkdownsDeleted = s.deleteOrphanMarkdowns(ctx, validMarkdownPaths)
	result.EmptyDirectoriesRemoved = s.removeEmptyAlbumDirs(ctx)

	if _, err = s.portfolioService.PersistIndex(ctx, validEntries); err != nil {
		return result, fmt.Errorf("error persisting cleaned index: %w", err)
	}

	/*
	 * The cover cache must not keep pointing at albums or images the sweep
	 * just removed.
	 */
	if err = s.portfolioService.PersistCovers(ctx, s.portfolioService.SelectCovers(validEntries)); err != nil {
		return result, fmt.Errorf("error persisting cover cache after cleanup: %w", err)
	}

	result.After = len(validEntries)
	result.Cleaned = result.Before - result.After

	slog.Info("portfolio cleanup finished",
		"before", result.Before,
		"after", result.After,
		"orphanImages", result.OrphanImagesDeleted,
		"orphanMarkdowns", result.OrphanMarkdownsDeleted,
	)

	return result, nil
}

/*
Reset empties the index and the cover cache entirely.
*/
func (s CleanupService) Reset(ctx context.Context) error {
	if _, err := s.portfolioService.PersistIndex(ctx, []models.PortfolioEntry{}); err != nil {
		return fmt.Errorf("error resetting portfolio index: %w", err)
	}

	if err := s.portfolioService.PersistCovers(ctx, s.portfolioService.SelectCovers(nil)); err != nil {
		return fmt.Errorf("error resetting cover cache: %w", err)
	}

	return nil
}

func (s CleanupService) currentIndexSize(ctx context.Context) int {
	content, err := s.store.FetchContent(ctx, s.indexPath)

	if err != nil {
		return 0
	}

	entries := []models.PortfolioEntry{}

	if err = json.Unmarshal([]byte(content), &entries); err != nil {
		return 0
	}

	return len(entries)
}

func (s CleanupService) deleteOrphanImages(ctx context.Context, validImagePaths map[string]bool) int {
	deleted := 0

	for _, category := range s.categories {
		imageDir := path.Join(s.imageRoot, strings.ToLower(category))

		albums, err := s.store.List(ctx, imageDir)

		if err != nil {
			continue
		}

		for _, album := range albums {
			if album.Type != contentstore.ItemTypeDir {
				continue
			}

			images, albumErr := s.store.List(ctx, album.Path)

			if albumErr != nil {
				continue
			}

			for _, image := range images {
				if image.Type != contentstore.ItemTypeFile || !hasImageExtension(image.Name) {
					continue
				}

				if validImagePaths[image.Path] {
					continue
				}

				slog.Info("deleting orphan image", "path", image.Path)

				message := fmt.Sprintf("Remove orphan image: %s", image.Name)

				if deleteErr := s.store.Delete(ctx, image.Path, image.Revision, message); deleteErr != nil {
					slog.Error("error deleting orphan image", "path", image.Path, "error", deleteErr)
					continue
				}

				deleted++
			}
		}
	}

	return deleted
}

func (s CleanupService) deleteOrphanMarkdowns(ctx context.Context, validMarkdownPaths map[string]bool) int {
	deleted := 0

	for _, category := range s.categories {
		categoryPath := path.Join(s.contentRoot, strings.ToLower(category))

		albums, err := s.store.List(ctx, categoryPath)

		if err != nil {
			continue
		}

		for _, album := range albums {
			if album.Type != contentstore.ItemTypeDir {
				continue
			}

			files, albumErr := s.store.List(ctx, album.Path)

			if albumErr != nil {
				continue
			}

			for _, file := range files {
				if file.Type != contentstore.ItemTypeFile || !strings.HasSuffix(file.Name, contentExtension) {
					continue
				}

				if validMarkdownPaths[file.Path] {
					continue
				}

				if s.referencesExternalImage(ctx, file.Path) {
					slog.Info("keeping external entry during cleanup", "path", file.Path)
					continue
				}

				slog.Info("deleting orphan markdown", "path", file.Path)

				message := fmt.Sprintf("Remove orphan entry: %s", file.Name)

				if deleteErr := s.store.Delete(ctx, file.Path, file.Revision, message); deleteErr != nil {
					slog.Error("error deleting orphan markdown", "path", file.Path, "error", deleteErr)
					continue
				}

				deleted++
			}
		}
	}

	return deleted
}

func (s CleanupService) removeEmptyAlbumDirs(ctx context.Context) int {
	removed := 0

	for _, category := range s.categories {
		categoryPath := path.Join(s.contentRoot, strings.ToLower(category))

		albums, err := s.store.List(ctx, categoryPath)

		if err != nil {
			continue
		}

		for _, album := range albums {
			if album.Type != contentstore.ItemTypeDir {
				continue
			}

			children, albumErr := s.store.List(ctx, album.Path)

			if albumErr != nil || len(children) > 0 {
				continue
			}

			message := fmt.Sprintf("Remove empty album directory: %s", album.Name)

			if deleteErr := s.store.Delete(ctx, album.Path, album.Revision, message); deleteErr != nil {
				slog.Error("error removing empty album directory", "path", album.Path, "error", deleteErr)
				continue
			}

			removed++
		}
	}

	return removed
}

func (s CleanupService) referencesExternalImage(ctx context.Context, markdownPath string) bool {
	content, err := s.store.FetchContent(ctx, markdownPath)

	if err != nil {
		return false
	}

	data := frontmatter.Parse(content)

	if data == nil {
		return false
	}

	entry := models.EntryFromFrontmatter(data)
	return isExternalImageURL(entry.Image)
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)

	for _, extension := range imageExtensions {
		if strings.HasSuffix(lower, extension) {
			return true
		}
	}

	return false
}
