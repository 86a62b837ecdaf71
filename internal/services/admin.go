package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

var (
	// ErrNoPriceData means the item has no records at all on the given date.
	ErrNoPriceData = errors.New("no price data for that date")
	// ErrPriceNotFound means records exist for the date but none are ACTIVE
	// at the given price.
	ErrPriceNotFound = errors.New("price not found or already inactive")
)

// AdminService implements manual corrections to stored price data. Credential
// checking belongs to the HTTP layer; this service only applies effects.
type AdminService struct {
	items  *store.ItemStore
	prices *store.PriceStore
}

func NewAdminService(items *store.ItemStore, prices *store.PriceStore) *AdminService {
	return &AdminService{items: items, prices: prices}
}

// DisablePrice demotes every ACTIVE record for (itemCode, date) whose price
// equals the given value. Several listings can share the same price; all of
// them are demoted. Returns how many records changed.
func (s *AdminService) DisablePrice(itemCode, date string, price int64) (int64, error) {
	item, err := s.items.FindByCode(itemCode)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return 0, fmt.Errorf("%w: %s", store.ErrItemNotFound, itemCode)
		}
		return 0, err
	}

	count, err := s.prices.CountByItemDate(item.ID, date)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrNoPriceData
	}

	demoted, err := s.prices.DemoteMatching(item.ID, date, price)
	if err != nil {
		return 0, err
	}
	if demoted == 0 {
		return 0, ErrPriceNotFound
	}

	log.Printf("Admin: disabled %d price records - item=%s date=%s price=%d",
		demoted, item.Name, date, price)
	return demoted, nil
}

// ValidateDate rejects inputs that do not parse as a calendar day.
func ValidateDate(date string) error {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q, expected %s", date, models.DateFormat)
	}
	return nil
}
