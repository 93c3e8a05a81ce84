package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/interest"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/gin-gonic/gin"
)

// WorkOpener learns from a work the user picked.
type WorkOpener interface {
	OpenWork(ctx context.Context, id int64) (app.Opened, error)
}

type WorkController struct {
	opener WorkOpener
}

func NewWorkController(opener WorkOpener) *WorkController {
	return &WorkController{opener: opener}
}

// Open handles POST /api/works/:id/open.
func (wc *WorkController) Open(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work id"})
		return
	}

	opened, err := wc.opener.OpenWork(c.Request.Context(), id)
	if err != nil {
		logger.WithComponent("work_controller").Errorf("open work %d: %v", id, err)
		_ = c.Error(err)

		var se *feed.StatusError
		switch {
		case errors.Is(err, interest.ErrSave):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save interest profile"})
		case errors.As(err, &se) && se.Code == http.StatusNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "work not found"})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "work lookup timed out"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, opened)
}
