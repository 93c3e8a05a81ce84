package route

import (
	"time"

	"github.com/bassista/go_discover/internal/api/controller"
	"github.com/bassista/go_discover/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewFeedRouter(timeout time.Duration, group *gin.RouterGroup, rounds controller.RoundSource) {
	g := group.Group("feed", middleware.RequestTimeout(timeout))

	fc := controller.NewFeedController(rounds)

	g.GET("", fc.Latest)
	g.POST("refresh", fc.Refresh)
}
