package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nangoso/maple-price-tracker/internal/services"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// AdminResponse is the uniform reply shape for admin operations.
type AdminResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AdminHandler struct {
	admin         *services.AdminService
	collector     *services.Collector
	revalidator   *services.Revalidator
	adminPassword string
}

func NewAdminHandler(admin *services.AdminService, collector *services.Collector, revalidator *services.Revalidator, adminPassword string) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		collector:     collector,
		revalidator:   revalidator,
		adminPassword: adminPassword,
	}
}

// checkCredential validates the submitted admin password. The password is the
// whole credential model; failures are user-facing messages, never panics.
func (h *AdminHandler) checkCredential(c *gin.Context, submitted string) bool {
	if h.adminPassword == "" || submitted != h.adminPassword {
		c.JSON(http.StatusUnauthorized, AdminResponse{
			Success: false,
			Message: "admin password does not match",
		})
		return false
	}
	return true
}

// DisablePrice demotes all ACTIVE records matching (itemCode, date, price).
func (h *AdminHandler) DisablePrice(c *gin.Context) {
	var req struct {
		ItemCode      string `json:"item_code" binding:"required"`
		Date          string `json:"date" binding:"required"`
		Price         int64  `json:"price" binding:"required"`
		AdminPassword string `json:"admin_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AdminResponse{
			Success: false,
			Message: "item_code, date and price are required",
		})
		return
	}

	if !h.checkCredential(c, req.AdminPassword) {
		return
	}
	if err := services.ValidateDate(req.Date); err != nil {
		c.JSON(http.StatusBadRequest, AdminResponse{Success: false, Message: err.Error()})
		return
	}

	demoted, err := h.admin.DisablePrice(req.ItemCode, req.Date, req.Price)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, store.ErrItemNotFound),
			errors.Is(err, services.ErrNoPriceData),
			errors.Is(err, services.ErrPriceNotFound):
			status = http.StatusNotFound
		}
		c.JSON(status, AdminResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, AdminResponse{
		Success: true,
		Message: fmt.Sprintf("disabled %d price records (item: %s, date: %s, price: %d)",
			demoted, req.ItemCode, req.Date, req.Price),
	})
}

// TriggerCollection runs one collection pass out of band. Returns 409 if a
// run is already in progress.
func (h *AdminHandler) TriggerCollection(c *gin.Context) {
	summary, err := h.collector.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerRevalidation runs the revalidation batch out of band.
func (h *AdminHandler) TriggerRevalidation(c *gin.Context) {
	summary, err := h.revalidator.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CollectionStatus reports the last completed collection run.
func (h *AdminHandler) CollectionStatus(c *gin.Context) {
	last := h.collector.LastRun()
	if last == nil {
		c.JSON(http.StatusOK, gin.H{"last_run": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_run": last})
}
