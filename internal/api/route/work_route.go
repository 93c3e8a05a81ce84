package route

import (
	"time"

	"github.com/bassista/go_discover/internal/api/controller"
	"github.com/bassista/go_discover/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewWorkRouter(timeout time.Duration, group *gin.RouterGroup, opener controller.WorkOpener) {
	g := group.Group("works", middleware.RequestTimeout(timeout))

	wc := controller.NewWorkController(opener)

	g.POST(":id/open", wc.Open)
}
