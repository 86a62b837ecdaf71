package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/nangoso/maple-price-tracker/internal/metrics"
	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// defaultItemDelay is the pause between items within a run, shedding load on
// the upstream feed.
const defaultItemDelay = 1 * time.Second

// ErrRunInProgress is returned when a collection trigger fires while the
// previous run is still going. The new trigger is dropped, not queued.
var ErrRunInProgress = errors.New("collection run already in progress")

// RunSummary is the outcome of one collection run. It is logged and exposed
// on the status endpoint; nothing else consumes it.
type RunSummary struct {
	RunID             string        `json:"run_id"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	ItemsProcessed    int           `json:"items_processed"`
	ActiveCreated     int           `json:"active_created"`
	InactiveCreated   int           `json:"inactive_created"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	ItemsSkipped      int           `json:"items_skipped"`
}

// itemOutcome is one item's result within a run. Failures are values, not
// panics: a skipped item never aborts the rest of the batch.
type itemOutcome struct {
	active     int
	inactive   int
	duplicates int
	skipped    bool
	err        error
}

// Collector drives the per-item collection pipeline: fetch listings, dedup,
// classify against the IQR bounds and comment filter, persist. Items are
// processed sequentially with a fixed inter-item delay.
type Collector struct {
	feed      *FeedService
	items     *store.ItemStore
	prices    *store.PriceStore
	db        *gorm.DB
	itemDelay time.Duration

	runMu sync.Mutex // held for the duration of a run; overlap guard

	mu      sync.RWMutex
	lastRun *RunSummary
}

func NewCollector(feed *FeedService, items *store.ItemStore, prices *store.PriceStore, db *gorm.DB, itemDelay time.Duration) *Collector {
	if itemDelay <= 0 {
		itemDelay = defaultItemDelay
	}
	return &Collector{
		feed:      feed,
		items:     items,
		prices:    prices,
		db:        db,
		itemDelay: itemDelay,
	}
}

// Run executes one collection pass over the whole catalog. If a run is still
// in progress the call returns ErrRunInProgress immediately; overlapping
// scheduler ticks are skipped rather than stacked.
func (c *Collector) Run(ctx context.Context) (*RunSummary, error) {
	if !c.runMu.TryLock() {
		metrics.CollectionRunsTotal.WithLabelValues("skipped_overlap").Inc()
		return nil, ErrRunInProgress
	}
	defer c.runMu.Unlock()

	summary := &RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	today := summary.StartedAt.Format(models.DateFormat)

	items, err := c.items.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load item catalog: %w", err)
	}

	log.Printf("Collector: run %s started for %d items", summary.RunID, len(items))

	limiter := rate.NewLimiter(rate.Every(c.itemDelay), 1)
	for _, item := range items {
		if err := limiter.Wait(ctx); err != nil {
			log.Printf("Collector: run %s cancelled: %v", summary.RunID, err)
			break
		}

		outcome := c.collectItem(ctx, item, today)
		if outcome.err != nil {
			log.Printf("Collector: item %s (%s) skipped: %v", item.Name, item.ItemCode, outcome.err)
		}
		if outcome.skipped {
			summary.ItemsSkipped++
			metrics.ItemsSkippedTotal.Inc()
			continue
		}

		summary.ItemsProcessed++
		summary.ActiveCreated += outcome.active
		summary.InactiveCreated += outcome.inactive
		summary.DuplicatesSkipped += outcome.duplicates
	}

	summary.Duration = time.Since(summary.StartedAt)

	metrics.CollectionRunsTotal.WithLabelValues("completed").Inc()
	metrics.CollectionRunDuration.Observe(summary.Duration.Seconds())
	metrics.PriceRecordsCreatedTotal.WithLabelValues(string(models.StatusActive)).Add(float64(summary.ActiveCreated))
	metrics.PriceRecordsCreatedTotal.WithLabelValues(string(models.StatusInactive)).Add(float64(summary.InactiveCreated))
	metrics.DuplicateListingsTotal.Add(float64(summary.DuplicatesSkipped))
	metrics.LastCollectionTimestamp.Set(float64(time.Now().Unix()))
	metrics.UpdateCatalogMetrics(c.db)

	c.mu.Lock()
	c.lastRun = summary
	c.mu.Unlock()

	log.Printf("Collector: run %s completed in %v - processed: %d, active: %d, inactive: %d, duplicates: %d, skipped: %d",
		summary.RunID, summary.Duration.Round(time.Millisecond),
		summary.ItemsProcessed, summary.ActiveCreated, summary.InactiveCreated,
		summary.DuplicatesSkipped, summary.ItemsSkipped)

	return summary, nil
}

// collectItem runs the fetch-dedup-classify-persist pipeline for one item.
// Panics from any step are converted into a skipped outcome.
func (c *Collector) collectItem(ctx context.Context, item models.Item, date string) (outcome itemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = itemOutcome{skipped: true, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	listings := c.feed.FetchSellListings(ctx, item.ItemCode)
	if len(listings) == 0 {
		return itemOutcome{skipped: true}
	}

	// Bounds come from this fetch alone, not persisted history. The day's
	// stored group gets a second look from the revalidator.
	fetched := make([]int64, len(listings))
	for i, l := range listings {
		fetched[i] = l.Price
	}
	bounds, enough := IQRBounds(fetched)

	for _, listing := range listings {
		if listing.URL != "" {
			exists, err := c.prices.Exists(item.ID, date, listing.URL)
			if err != nil {
				return itemOutcome{skipped: true, err: fmt.Errorf("dedup check failed: %w", err)}
			}
			if exists {
				outcome.duplicates++
				continue
			}
		}

		status := models.StatusInactive
		if IsPriceValid(listing.Price, bounds, enough) && IsCommentAcceptable(listing.Comment) {
			status = models.StatusActive
		}

		created, err := c.prices.Insert(&models.PriceRecord{
			ItemID:    item.ID,
			Date:      date,
			Price:     listing.Price,
			SourceURL: listing.URL,
			Comment:   listing.Comment,
			Status:    status,
		})
		if err != nil {
			return itemOutcome{skipped: true, err: fmt.Errorf("insert failed: %w", err)}
		}
		if !created {
			// Lost the conditional insert to a concurrent writer; still a dup.
			outcome.duplicates++
			continue
		}

		if status == models.StatusActive {
			outcome.active++
		} else {
			outcome.inactive++
		}
	}

	log.Printf("Collector: item %s (%s) - %d active, %d inactive, %d duplicates",
		item.Name, item.ItemCode, outcome.active, outcome.inactive, outcome.duplicates)
	return outcome
}

// LastRun returns the summary of the most recent completed run, or nil if no
// run has finished since startup.
func (c *Collector) LastRun() *RunSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRun
}
