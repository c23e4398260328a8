package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
)

var (
	ErrMissingFrontmatter = fmt.Errorf("missing frontmatter")
	ErrMissingImageField  = fmt.Errorf("missing image field")
	ErrImageNotFound      = fmt.Errorf("image not found in store")
)

type ValidatorServicer interface {
	Validate(ctx context.Context, data map[string]any) (models.PortfolioEntry, error)
}

type ValidatorServiceConfig struct {
	Store contentstore.ContentStore
}

/*
ValidatorService decides whether a parsed entry belongs in the index. A
rejected entry is dropped and logged by the caller; it never aborts a
regeneration run.
*/
type ValidatorService struct {
	store contentstore.ContentStore
}

func NewValidatorService(config ValidatorServiceConfig) ValidatorService {
	return ValidatorService{
		store: config.Store,
	}
}

/*
Validate checks that the frontmatter parsed at all, that the image field is
present, and that a repo-local image actually exists in the store. Entries
pointing at an external CDN are taken at face value; the CDN is not ours to
probe.
*/
func (s ValidatorService) Validate(ctx context.Context, data map[string]any) (models.PortfolioEntry, error) {
	if data == nil {
		return models.PortfolioEntry{}, ErrMissingFrontmatter
	}

	entry := models.EntryFromFrontmatter(data)

	if entry.Image == "" {
		return entry, ErrMissingImageField
	}

	if isExternalImageURL(entry.Image) {
		return entry, nil
	}

	// Stored paths are repo-root-relative.
	imagePath := strings.TrimPrefix(entry.Image, "/")

	exists, err := s.store.Exists(ctx, imagePath)

	if err != nil {
		slog.Warn("image existence check failed, treating as missing", "path", imagePath, "error", err)
		exists = false
	}

	if !exists {
		return entry, ErrImageNotFound
	}

	return entry, nil
}

func isExternalImageURL(image string) bool {
	if !strings.HasPrefix(image, "http") {
		return false
	}

	return strings.Contains(image, "cloudinary.com") ||
		strings.Contains(image, "cloudflare") ||
		strings.Contains(image, "cdn")
}
