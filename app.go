package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/zon-format/docsearch/internal/config"
	"github.com/zon-format/docsearch/internal/content"
	"github.com/zon-format/docsearch/internal/docsync"
	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
	"github.com/zon-format/docsearch/internal/site"
	"github.com/zon-format/docsearch/tools"
)

// app wires the search service to its content and background refreshers
type app struct {
	site    *site.Site
	service *search.Service

	// Only set when serving a docs directory
	syncer    *docsync.Syncer
	scheduler *docsync.Scheduler
	watcher   *docsync.Watcher

	// Only set when rate limiting through Redis
	redis *redis.Client
}

func newApp(cfg *config.Config) (*app, error) {
	s, err := content.LoadSite(cfg.SiteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load site definition: %w", err)
	}

	src, err := content.OpenSource(cfg.DocsDir)
	if err != nil {
		return nil, err
	}

	service, err := search.NewService(indexing.NewBuilder(s, src), search.Options{
		Engine:   cfg.SearchEngine,
		CacheTTL: cfg.SearchCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	a := &app{site: s, service: service}

	if cfg.DocsDir == "" {
		log.Printf("Serving embedded documentation (%d documents)", len(s.Documents()))
		return a, nil
	}

	a.syncer = docsync.New(s, cfg.DocsDir, docsync.Options{TTL: cfg.DocsTTL})
	if len(a.syncer.Remote()) > 0 && cfg.DocsSyncInterval > 0 {
		a.scheduler, err = docsync.NewScheduler(a.syncer, cfg.DocsSyncInterval, func(docsync.Result) {
			service.Reset()
		})
		if err != nil {
			service.Close()
			return nil, err
		}
	}

	if cfg.DocsWatch {
		a.watcher, err = docsync.NewWatcher(cfg.DocsDir, service.Reset)
		if err != nil {
			// Edits still show up once the cache TTL expires
			log.Printf("Warning: Failed to watch docs directory: %v", err)
			a.watcher = nil
		}
	}

	return a, nil
}

// start launches background refreshers and warms the index
func (a *app) start() {
	if a.scheduler != nil {
		a.scheduler.Start()
	}
	if a.watcher != nil {
		a.watcher.Start()
	}

	st := a.service.Warm(context.Background())
	log.Printf("✓ Search index ready: %d entries from %d documents (engine=%s)", st.Entries, len(a.site.Documents()), st.Engine)
}

func (a *app) docSearch() *tools.DocSearch {
	if a.syncer == nil {
		return tools.NewDocSearch(a.site, a.service, nil)
	}
	return tools.NewDocSearch(a.site, a.service, a.syncer)
}

// close stops refreshers before disposing the engine they reset
func (a *app) close() error {
	var errs []error
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.service.Close())
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
