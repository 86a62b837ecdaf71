package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nangoso/maple-price-tracker/internal/services"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

type ItemHandler struct {
	catalog    *services.CatalogService
	aggregator *services.Aggregator
	items      *store.ItemStore
	prices     *store.PriceStore
}

func NewItemHandler(catalog *services.CatalogService, aggregator *services.Aggregator, items *store.ItemStore, prices *store.PriceStore) *ItemHandler {
	return &ItemHandler{
		catalog:    catalog,
		aggregator: aggregator,
		items:      items,
		prices:     prices,
	}
}

// ListItems returns the public catalog (code, name, icon) for the frontend
// search index.
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.catalog.ExportItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// PopularItems returns the most-viewed items.
func (h *ItemHandler) PopularItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	items, err := h.catalog.PopularItems(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RegisterItem starts tracking a new item code.
func (h *ItemHandler) RegisterItem(c *gin.Context) {
	var req struct {
		ItemCode string `json:"item_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_code is required"})
		return
	}

	item, err := h.catalog.RegisterItem(c.Request.Context(), req.ItemCode)
	if err != nil {
		if errors.Is(err, services.ErrItemExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem returns an item's detail view with today's aggregates.
func (h *ItemHandler) GetItem(c *gin.Context) {
	detail, err := h.catalog.ItemDetail(c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetItemHistory returns per-day aggregates for the last N days (default 30).
func (h *ItemHandler) GetItemHistory(c *gin.Context) {
	item, err := h.items.FindByCode(c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	history, err := h.aggregator.History(item.ID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_code": item.ItemCode, "history": history})
}

// GetItemPrices returns the raw price records for an item, newest day first.
func (h *ItemHandler) GetItemPrices(c *gin.Context) {
	item, err := h.items.FindByCode(c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records, err := h.prices.ListByItem(item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_code": item.ItemCode, "prices": records})
}
