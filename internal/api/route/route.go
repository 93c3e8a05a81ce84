package route

import (
	"net/http"

	"github.com/bassista/go_discover/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, appCtx *app.App) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
			"run":     appCtx.RunID,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	timeout := appCtx.Config.Server.RequestTimeout

	NewWeightsRouter(timeout, api, appCtx.Store)
	NewFeedRouter(timeout, api, appCtx)
	NewWorkRouter(timeout, api, appCtx)
}
