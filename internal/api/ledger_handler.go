package api

import (
	"context"
	"net/http"
	"strconv"

	"AdAttribution/internal/dates"
	"AdAttribution/internal/model"
	"AdAttribution/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LedgerReader is the read side of the attribution ledger.
type LedgerReader interface {
	ListWindow(ctx context.Context, siteID int64, date string) ([]*model.AttributedVisit, error)
	ChannelSummary(ctx context.Context, siteID int64, from, to string) ([]repository.ChannelTotal, error)
}

// LedgerHandler serves reporting queries over attributed visits.
type LedgerHandler struct {
	ledger LedgerReader
	logger logrus.FieldLogger
}

func NewLedgerHandler(ledger LedgerReader, logger logrus.FieldLogger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// GetWindow lists the ledger rows of one site and date.
// GET /api/ledger/:site_id?date=2024-03-10
func (h *LedgerHandler) GetWindow(c *gin.Context) {
	siteID, ok := siteParam(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if _, err := dates.ParseDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.ledger.ListWindow(c.Request.Context(), siteID, date)
	if err != nil {
		h.logger.WithError(err).Error("GetWindow failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"site_id": siteID, "date": date, "rows": rows})
}

// ChannelSummary aggregates cost and visits per channel.
// GET /api/ledger/:site_id/channels?from=2024-03-01&to=2024-03-31
func (h *LedgerHandler) ChannelSummary(c *gin.Context) {
	siteID, ok := siteParam(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c, "from", "to")
	if !ok {
		return
	}
	if to < from {
		from, to = to, from
	}

	totals, err := h.ledger.ChannelSummary(c.Request.Context(), siteID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("ChannelSummary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"site_id": siteID, "from": from, "to": to, "channels": totals})
}

func siteParam(c *gin.Context) (int64, bool) {
	siteID, err := strconv.ParseInt(c.Param("site_id"), 10, 64)
	if err != nil || siteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id must be a positive integer"})
		return 0, false
	}
	return siteID, true
}
