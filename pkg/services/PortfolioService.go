package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
)

type PortfolioServicer interface {
	Regenerate(ctx context.Context, trigger string) (models.RunReport, error)
	SelectCovers(entries []models.PortfolioEntry) models.CoverCache
	PersistIndex(ctx context.Context, entries []models.PortfolioEntry) (bool, error)
	PersistCovers(ctx context.Context, covers models.CoverCache) error
}

type PortfolioServiceConfig struct {
	Store          contentstore.ContentStore
	Scanner        ScannerServicer
	Validator      ValidatorServicer
	Categories     []string
	ContentRoot    string
	IndexPath      string
	CoverCachePath string
}

/*
PortfolioService drives index regeneration: scan every category subtree,
parse and validate each entry, aggregate the catalog index in scan order,
select one cover per album, and persist both artifacts with optimistic
writes. Broken entries are dropped and counted; only a store-level failure
or a write conflict fails the run.
*/
type PortfolioService struct {
	store          contentstore.ContentStore
	scanner        ScannerServicer
	validator      ValidatorServicer
	categories     []string
	contentRoot    string
	indexPath      string
	coverCachePath string
}

func NewPortfolioService(config PortfolioServiceConfig) PortfolioService {
	return PortfolioService{
		store:          config.Store,
		scanner:        config.Scanner,
		validator:      config.Validator,
		categories:     config.Categories,
		contentRoot:    config.ContentRoot,
		indexPath:      config.IndexPath,
		coverCachePath: config.CoverCachePath,
	}
}

func (s PortfolioService) Regenerate(ctx context.Context, trigger string) (models.RunReport, error) {
	var (
		err     error
		changed bool
	)

	report := models.RunReport{
		StartedAt: time.Now(),
		Trigger:   trigger,
	}

	entries := []models.PortfolioEntry{}

	for _, category := range s.categories {
		categoryPath := path.Join(s.contentRoot, strings.ToLower(category))

		for _, item := range s.scanner.Scan(ctx, categoryPath) {
			report.Scanned++

			data := frontmatter.Parse(item.Content)
			entry, validateErr := s.validator.Validate(ctx, data)

			if validateErr != nil {
				report.Rejected++
				slog.Warn("portfolio entry rejected", "path", item.Path, "reason", validateErr)
				continue
			}

			report.Valid++
			entries = append(entries, entry)
		}
	}

	covers := s.SelectCovers(entries)
	report.Covers = len(covers.Covers)

	if changed, err = s.PersistIndex(ctx, entries); err != nil {
		report.Message = fmt.Sprintf("failed to persist portfolio index: %s", err.Error())
		return report, err
	}

	report.Changed = changed

	/*
	 * The cover cache follows the index, but a missing cache artifact is
	 * recreated even when the index itself did not change.
	 */
	if changed || !s.coverCacheExists(ctx) {
		if err = s.PersistCovers(ctx, covers); err != nil {
			report.Message = fmt.Sprintf("failed to persist cover cache: %s", err.Error())
			return report, err
		}
	}

	report.Success = true
	report.Message = fmt.Sprintf("%d photos indexed, %d covers selected", report.Valid, report.Covers)

	return report, nil
}

/*
SelectCovers groups entries by (category, album) and picks one
representative image per group: the first entry marked as cover in iteration
order, or the group's first entry when none is marked. Groups keep the order
in which they were first encountered.
*/
func (s PortfolioService) SelectCovers(entries []models.PortfolioEntry) models.CoverCache {
	type albumGroup struct {
		category string
		album    string
		entries  []models.PortfolioEntry
	}

	groups := []*albumGroup{}
	groupIndex := map[string]int{}

	for _, entry := range entries {
		if entry.Category == "" || entry.Album == "" {
			continue
		}

		key := entry.Category + "\x00" + entry.Album

		index, ok := groupIndex[key]

		if !ok {
			index = len(groups)
			groupIndex[key] = index
			groups = append(groups, &albumGroup{category: entry.Category, album: entry.Album})
		}

		groups[index].entries = append(groups[index].entries, entry)
	}

	cache := models.CoverCache{
		Version: time.Now().UnixMilli(),
		Covers:  []models.Cover{},
	}

	for _, group := range groups {
		chosen := group.entries[0]

		for _, entry := range group.entries {
			if bool(entry.IsCover) {
				chosen = entry
				break
			}
		}

		cache.Covers = append(cache.Covers, models.Cover{
			Category:     group.category,
			Album:        group.album,
			ImageURL:     chosen.Image,
			OptimizedURL: chosen.Image,
		})
	}

	return cache
}

/*
PersistIndex writes the catalog index unless the stored artifact already has
the same content. It reads the current revision marker immediately before
writing; a concurrent modification surfaces as contentstore.ErrConflict and
the caller may simply re-run regeneration. Returns whether a write happened.
*/
func (s PortfolioService) PersistIndex(ctx context.Context, entries []models.PortfolioEntry) (bool, error) {
	var (
		err      error
		revision string
	)

	if revision, err = s.store.Revision(ctx, s.indexPath); err != nil {
		return false, err
	}

	if revision != "" && !s.indexChanged(ctx, entries) {
		slog.Info("portfolio index unchanged, skipping write", "entries", len(entries))
		return false, nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")

	if err != nil {
		return false, fmt.Errorf("error serializing portfolio index: %w", err)
	}

	message := fmt.Sprintf("Regenerate portfolio index (%d photos)", len(entries))

	if _, err = s.store.Write(ctx, s.indexPath, data, revision, message); err != nil {
		return false, err
	}

	return true, nil
}

func (s PortfolioService) coverCacheExists(ctx context.Context) bool {
	revision, err := s.store.Revision(ctx, s.coverCachePath)

	if err != nil {
		return false
	}

	return revision != ""
}

/*
PersistCovers writes the cover cache artifact with the same optimistic guard
as the index.
*/
func (s PortfolioService) PersistCovers(ctx context.Context, covers models.CoverCache) error {
	var (
		err      error
		revision string
	)

	if revision, err = s.store.Revision(ctx, s.coverCachePath); err != nil {
		return err
	}

	data, err := json.MarshalIndent(covers, "", "  ")

	if err != nil {
		return fmt.Errorf("error serializing cover cache: %w", err)
	}

	message := fmt.Sprintf("Update cover cache (%d covers)", len(covers.Covers))

	if _, err = s.store.Write(ctx, s.coverCachePath, data, revision, message); err != nil {
		return err
	}

	return nil
}

/*
indexChanged compares the new entries against the stored artifact, entry for
entry. Both sides are normalized and sorted by album then title so a mere
reordering or a legacy isCover encoding does not count as a change. Any
failure to read or parse the stored artifact counts as changed.
*/
func (s PortfolioService) indexChanged(ctx context.Context, entries []models.PortfolioEntry) bool {
	existingContent, err := s.store.FetchContent(ctx, s.indexPath)

	if err != nil {
		return true
	}

	existing := []models.PortfolioEntry{}

	if err = json.Unmarshal([]byte(existingContent), &existing); err != nil {
		slog.Warn("stored portfolio index is not parseable, rewriting", "error", err)
		return true
	}

	if len(existing) != len(entries) {
		return true
	}

	sortEntries := func(list []models.PortfolioEntry) []models.PortfolioEntry {
		sorted := make([]models.PortfolioEntry, len(list))
		copy(sorted, list)

		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].Album != sorted[j].Album {
				return sorted[i].Album < sorted[j].Album
			}

			return sorted[i].Title < sorted[j].Title
		})

		return sorted
	}

	sortedExisting := sortEntries(existing)
	sortedNew := sortEntries(entries)

	for index := range sortedNew {
		if sortedExisting[index] != sortedNew[index] {
			return true
		}
	}

	return false
}
