package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route on a fresh gin engine. gatherer may be nil
// for the default registry.
func NewRouter(reconcile *ReconcileHandler, ledger *LedgerHandler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	pprof.Register(r)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.POST("/reprocess", reconcile.Reprocess)
	r.POST("/import/:platform", reconcile.ImportPlatform)

	r.GET("/api/ledger/:site_id", ledger.GetWindow)
	r.GET("/api/ledger/:site_id/channels", ledger.ChannelSummary)
	return r
}
