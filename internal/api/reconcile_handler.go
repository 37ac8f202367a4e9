package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/dates"
	"AdAttribution/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Runner is the reprocessing entry point.
type Runner interface {
	Run(ctx context.Context, req service.RunRequest) (*service.RunReport, error)
}

// Importer runs one platform import.
type Importer interface {
	Import(ctx context.Context, platform, start, end string) error
}

// ReconcileHandler exposes reprocessing and on-demand imports over HTTP.
type ReconcileHandler struct {
	runner   Runner
	importer Importer
	logger   logrus.FieldLogger
}

func NewReconcileHandler(runner Runner, importer Importer, logger logrus.FieldLogger) *ReconcileHandler {
	return &ReconcileHandler{runner: runner, importer: importer, logger: logger}
}

// Reprocess reconciles every window in [start, end].
// POST /reprocess?start=2024-03-01&end=2024-03-07&site=1&skip_import=true
func (h *ReconcileHandler) Reprocess(c *gin.Context) {
	start, end, ok := dateRange(c, "start", "end")
	if !ok {
		return
	}
	sites, err := parseSites(c.QueryArray("site"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	skip, _ := strconv.ParseBool(c.DefaultQuery("skip_import", "false"))

	report, err := h.runner.Run(c.Request.Context(), service.RunRequest{Start: start, End: end, Sites: sites, SkipImport: skip})
	if err != nil {
		h.logger.WithError(err).Error("reprocess failed")
		status := http.StatusInternalServerError
		if apperr.IsConfiguration(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ImportPlatform replaces one platform's stored cost for [start, end].
// POST /import/:platform?start=&end=
func (h *ReconcileHandler) ImportPlatform(c *gin.Context) {
	platform := c.Param("platform")
	start, end, ok := dateRange(c, "start", "end")
	if !ok {
		return
	}

	if err := h.importer.Import(c.Request.Context(), platform, start, end); err != nil {
		h.logger.WithError(err).WithField("platform", platform).Error("import failed")
		var inactive *service.ErrPlatformInactive
		var ie *apperr.ImportError
		switch {
		case errors.As(err, &inactive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &ie):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": ie.Kind})
		case errors.Is(err, service.ErrUnsupportedPlatform):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s cost imported", platform),
		"start":   start,
		"end":     end,
	})
}

func dateRange(c *gin.Context, fromKey, toKey string) (string, string, bool) {
	from, to := c.Query(fromKey), c.Query(toKey)
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s and %s are required", fromKey, toKey)})
		return "", "", false
	}
	for _, d := range []string{from, to} {
		if _, err := dates.ParseDate(d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return "", "", false
		}
	}
	return from, to, true
}

func parseSites(raw []string) ([]int64, error) {
	var out []int64
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid site id %q", part)
			}
			out = append(out, id)
		}
	}
	return out, nil
}
