package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nangoso/maple-price-tracker/internal/metrics"
	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// RevalidationSummary is the outcome of one revalidation batch.
type RevalidationSummary struct {
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	ItemsChecked  int           `json:"items_checked"`
	GroupsChecked int           `json:"groups_checked"`
	Demoted       int           `json:"demoted"`
}

// Revalidator re-applies the IQR rule to already-persisted daily price
// groups. Unlike ingestion-time classification, the bounds here come from the
// whole stored group regardless of status, so late-arriving samples can pull
// earlier ones out of range. It only ever demotes ACTIVE records; an
// INACTIVE record never comes back. Running it twice in a row changes
// nothing the second time.
type Revalidator struct {
	items  *store.ItemStore
	prices *store.PriceStore
}

func NewRevalidator(items *store.ItemStore, prices *store.PriceStore) *Revalidator {
	return &Revalidator{items: items, prices: prices}
}

// Run revalidates every daily group of every item.
func (r *Revalidator) Run(ctx context.Context) (*RevalidationSummary, error) {
	summary := &RevalidationSummary{StartedAt: time.Now()}

	items, err := r.items.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load item catalog: %w", err)
	}

	log.Printf("Revalidator: starting batch over %d items", len(items))

	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dates, err := r.prices.Dates(item.ID)
		if err != nil {
			log.Printf("Revalidator: failed to list dates for item %s: %v", item.ItemCode, err)
			continue
		}

		summary.ItemsChecked++
		for _, date := range dates {
			demoted, err := r.revalidateGroup(item, date)
			if err != nil {
				log.Printf("Revalidator: item %s date %s failed: %v", item.ItemCode, date, err)
				continue
			}
			summary.GroupsChecked++
			summary.Demoted += demoted
		}
	}

	summary.Duration = time.Since(summary.StartedAt)

	metrics.RevalidationRunsTotal.Inc()
	metrics.RevalidationDemotionsTotal.Add(float64(summary.Demoted))

	log.Printf("Revalidator: batch completed in %v - %d groups checked, %d records demoted",
		summary.Duration.Round(time.Millisecond), summary.GroupsChecked, summary.Demoted)

	return summary, nil
}

// revalidateGroup recomputes bounds for one (item, date) group and demotes
// out-of-range ACTIVE records. The read-then-demote runs in one transaction
// so a concurrent collection insert cannot interleave with the demote step.
func (r *Revalidator) revalidateGroup(item models.Item, date string) (int, error) {
	demoted := 0
	err := r.prices.Transaction(func(tx *store.PriceStore) error {
		records, err := tx.ListByItemDate(item.ID, date)
		if err != nil {
			return err
		}
		if len(records) < minGroupSize {
			return nil
		}

		prices := make([]int64, len(records))
		for i, rec := range records {
			prices[i] = rec.Price
		}
		bounds, enough := IQRBounds(prices)
		if !enough {
			return nil
		}

		var ids []uint
		for _, rec := range records {
			if rec.Status == models.StatusActive && !bounds.Contains(rec.Price) {
				ids = append(ids, rec.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.MarkInactive(ids); err != nil {
			return err
		}
		demoted = len(ids)
		log.Printf("Revalidator: item %s (%s) date %s - demoted %d of %d records",
			item.Name, item.ItemCode, date, demoted, len(records))
		return nil
	})
	return demoted, err
}
