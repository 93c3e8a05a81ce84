package route

import (
	"time"

	"github.com/bassista/go_discover/internal/api/controller"
	"github.com/bassista/go_discover/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewWeightsRouter(timeout time.Duration, group *gin.RouterGroup, profile controller.WeightSource) {
	g := group.Group("", middleware.RequestTimeout(timeout))

	wc := controller.NewWeightsController(profile)

	g.GET("weights", wc.Top)
}
