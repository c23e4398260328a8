package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
)

const contentExtension = ".md"

/*
RawItem is one content file pulled out of the tree: its path in the store and
its raw text.
*/
type RawItem struct {
	Path    string
	Content string
}

type ScannerServicer interface {
	Scan(ctx context.Context, root string) []RawItem
}

type ScannerServiceConfig struct {
	Store          contentstore.ContentStore
	MaxScanWorkers int
}

/*
ScannerService walks a subtree of the content store, fetching every markdown
file it finds. Directory listings and file fetches run on a bounded worker
pool so the number of outstanding requests stays capped. An unreachable
subtree contributes nothing; it never fails the walk.
*/
type ScannerService struct {
	store          contentstore.ContentStore
	maxScanWorkers int
}

func NewScannerService(config ScannerServiceConfig) ScannerService {
	maxScanWorkers := config.MaxScanWorkers

	if maxScanWorkers <= 0 {
		maxScanWorkers = 10
	}

	return ScannerService{
		store:          config.Store,
		maxScanWorkers: maxScanWorkers,
	}
}

/*
Scan performs a fresh traversal of root and returns the fetched items sorted
by path, so the merge order is deterministic regardless of fetch order.
*/
func (s ScannerService) Scan(ctx context.Context, root string) []RawItem {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []RawItem
	)

	/*
	 * The pool is deliberately not bound to ctx: a bound pool drops queued
	 * tasks on cancellation without running them, which would leave the
	 * WaitGroup hanging. Instead every task runs and bails out early once
	 * ctx is cancelled.
	 */
	pool := pond.NewPool(s.maxScanWorkers)

	var walk func(path string)

	walk = func(path string) {
		defer wg.Done()

		if ctx.Err() != nil {
			return
		}

		children, err := s.store.List(ctx, path)

		if err != nil {
			slog.Warn("content subtree not accessible, skipping", "path", path, "error", err)
			return
		}

		for _, child := range children {
			switch {
			case child.Type == contentstore.ItemTypeDir:
				wg.Add(1)
				pool.Submit(func() {
					walk(child.Path)
				})

			case strings.HasSuffix(child.Name, contentExtension):
				wg.Add(1)
				pool.Submit(func() {
					defer wg.Done()

					if ctx.Err() != nil {
						return
					}

					content, err := s.store.FetchContent(ctx, child.Path)

					if err != nil {
						slog.Warn("error fetching content file, skipping", "path", child.Path, "error", err)
						return
					}

					mu.Lock()
					items = append(items, RawItem{Path: child.Path, Content: content})
					mu.Unlock()
				})
			}
		}
	}

	wg.Add(1)
	walk(root)

	wg.Wait()
	_ = pool.Stop().Wait()

	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})

	return items
}
