package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/config"
	"github.com/Ayash-Bera/mediguide/internal/database"
	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/Ayash-Bera/mediguide/internal/repository"
	"github.com/Ayash-Bera/mediguide/internal/seeder"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/gocolly/colly/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DirectorySeeder crawls directory pages and stores the facility listings
type DirectorySeeder struct {
	collector   *colly.Collector
	processor   *seeder.DirectoryProcessor
	selectors   seeder.Selectors
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger

	mu       sync.Mutex
	listings map[string][]seeder.Listing
	errors   []error
}

// SeedStats summarises a crawl
type SeedStats struct {
	Pages     int
	Listings  int
	Stored    int
	Unchanged int
	Rejected  int
	Removed   int
}

var (
	// Command line flags
	dryRun     = flag.Bool("dry-run", false, "Don't write to the database, just print what would be stored")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	pageLimit  = flag.Int("limit", 0, "Limit number of pages to process (0 = all)")
	concurrent = flag.Int("concurrent", 2, "Number of concurrent requests")
	delay      = flag.Duration("delay", 2*time.Second, "Delay between requests")
	pagesFlag  = flag.String("pages", "", "Comma separated directory page URLs (overrides seed.pages)")
	prune      = flag.Bool("prune", true, "Deactivate stored listings no longer present on a crawled page")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting facility directory seeder...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	pages := cfg.Seed.Pages
	if *pagesFlag != "" {
		pages = splitPages(*pagesFlag)
	}
	if len(pages) == 0 {
		logger.Fatal("No directory pages configured (set seed.pages or --pages)")
	}

	var repoManager *repository.RepositoryManager
	if !*dryRun {
		dbConfig := &database.Config{
			DatabaseURL: cfg.Database.URL,
			RedisURL:    cfg.Redis.URL,
			LogLevel:    os.Getenv("LOG_LEVEL"),
		}

		dbManager, err := database.NewManager(dbConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database manager")
		}
		defer dbManager.Close()

		if err := dbManager.Migrate(); err != nil {
			logger.WithError(err).Fatal("Failed to migrate database")
		}

		repoManager = repository.NewRepositoryManager(dbManager.DB)
	}

	ds := NewDirectorySeeder(cfg.Seed.UserAgent, repoManager, logger)

	stats, err := ds.Seed(context.Background(), pages)
	if err != nil {
		logger.WithError(err).Fatal("Directory seeding failed")
	}

	logger.WithFields(logrus.Fields{
		"pages":     stats.Pages,
		"listings":  stats.Listings,
		"stored":    stats.Stored,
		"unchanged": stats.Unchanged,
		"rejected":  stats.Rejected,
		"removed":   stats.Removed,
	}).Info("Directory seeding completed successfully!")
}

func NewDirectorySeeder(userAgent string, repoManager *repository.RepositoryManager, logger *logrus.Logger) *DirectorySeeder {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.Async(true),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: *concurrent,
		Delay:       *delay,
	})

	c.SetRequestTimeout(30 * time.Second)

	ds := &DirectorySeeder{
		collector:   c,
		processor:   seeder.NewDirectoryProcessor(),
		selectors:   seeder.DefaultSelectors(),
		repoManager: repoManager,
		logger:      logger,
		listings:    make(map[string][]seeder.Listing),
	}

	c.OnHTML("body", func(e *colly.HTMLElement) {
		pageURL := e.Request.URL.String()
		found := seeder.ExtractListings(e.DOM, ds.selectors, pageURL)

		ds.mu.Lock()
		ds.listings[pageURL] = append(ds.listings[pageURL], found...)
		ds.mu.Unlock()

		logger.WithFields(logrus.Fields{
			"page":     pageURL,
			"listings": len(found),
		}).Debug("Listings extracted")
	})

	c.OnError(func(r *colly.Response, err error) {
		ds.mu.Lock()
		ds.errors = append(ds.errors, fmt.Errorf("failed to fetch %s (status %d): %w", r.Request.URL, r.StatusCode, err))
		ds.mu.Unlock()
	})

	return ds
}

// Seed crawls pages, then normalises and stores what was found
func (ds *DirectorySeeder) Seed(ctx context.Context, pages []string) (*SeedStats, error) {
	if *pageLimit > 0 && *pageLimit < len(pages) {
		pages = pages[:*pageLimit]
		ds.logger.WithField("limit", *pageLimit).Info("Limited pages to process")
	}

	ds.logger.WithField("total_pages", len(pages)).Info("Crawling directory pages")

	for _, page := range pages {
		if err := ds.collector.Visit(page); err != nil {
			ds.logger.WithError(err).WithField("page", page).Error("Failed to queue page")
		}
	}
	ds.collector.Wait()

	for _, err := range ds.errors {
		ds.logger.WithError(err).Warn("Crawl error")
	}

	stats := &SeedStats{Pages: len(ds.listings)}
	crawledAt := time.Now()

	var facilities []*models.DirectoryFacility
	for page, listings := range ds.listings {
		for _, l := range listings {
			stats.Listings++
			f, err := ds.processor.BuildFacility(l, crawledAt)
			if err != nil {
				stats.Rejected++
				ds.logger.WithError(err).WithField("page", page).Debug("Listing rejected")
				continue
			}
			facilities = append(facilities, f)
		}
	}
	facilities = ds.processor.RemoveDuplicates(facilities)

	for i, f := range facilities {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if *dryRun || ds.repoManager == nil {
			ds.logger.WithFields(logrus.Fields{
				"name":        f.Name,
				"city":        f.City,
				"specialties": strings.Join(f.Specialties, ","),
				"emergency":   f.Emergency,
				"hash":        f.ContentHash[:8],
			}).Info("DRY RUN: Would store facility")
			continue
		}

		changed, err := ds.store(f)
		if err != nil {
			ds.logger.WithError(err).WithField("name", f.Name).Warn("Failed to store facility")
			continue
		}
		if changed {
			stats.Stored++
		} else {
			stats.Unchanged++
		}

		if len(facilities) > 50 && i%25 == 0 {
			ds.logger.WithField("progress", fmt.Sprintf("%d/%d", i+1, len(facilities))).Debug("Store progress")
		}
	}

	if *prune && !*dryRun && ds.repoManager != nil {
		stats.Removed = ds.deactivateMissing(facilities)
	}

	if stats.Pages == 0 && len(ds.errors) > 0 {
		return stats, fmt.Errorf("no page could be crawled: %w", ds.errors[0])
	}
	return stats, nil
}

// store upserts f unless an identical listing is already active
func (ds *DirectorySeeder) store(f *models.DirectoryFacility) (bool, error) {
	existing, err := ds.repoManager.Directory.GetByNameAndAddress(f.Name, f.Address)
	switch {
	case err == nil && existing.ContentHash == f.ContentHash && existing.IsActive:
		return false, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	if err := ds.repoManager.Directory.Upsert(f); err != nil {
		return false, err
	}
	return true, nil
}

// deactivateMissing retires listings of crawled pages that were not seen in
// this run. Pages that yielded nothing are left alone.
func (ds *DirectorySeeder) deactivateMissing(seen []*models.DirectoryFacility) int {
	present := make(map[string]bool, len(seen))
	for _, f := range seen {
		present[strings.ToLower(f.Name+"|"+f.Address)] = true
	}

	removed := 0
	for page, listings := range ds.listings {
		if len(listings) == 0 {
			continue
		}

		stored, err := ds.repoManager.Directory.ListBySource(page)
		if err != nil {
			ds.logger.WithError(err).WithField("page", page).Warn("Failed to list stored facilities")
			continue
		}

		for _, entry := range stored {
			if present[strings.ToLower(entry.Name+"|"+entry.Address)] {
				continue
			}
			if err := ds.repoManager.Directory.Deactivate(entry.ID); err != nil {
				ds.logger.WithError(err).WithField("name", entry.Name).Warn("Failed to deactivate facility")
				continue
			}
			removed++
			ds.logger.WithFields(logrus.Fields{
				"name": entry.Name,
				"page": page,
			}).Info("Facility no longer listed, deactivated")
		}
	}
	return removed
}

func splitPages(raw string) []string {
	var pages []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}
