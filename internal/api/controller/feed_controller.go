package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/gin-gonic/gin"
)

// RoundSource runs and remembers discovery rounds.
type RoundSource interface {
	Discover(ctx context.Context) (app.Round, error)
	Latest() (app.Round, bool)
}

type FeedController struct {
	rounds RoundSource
}

func NewFeedController(rounds RoundSource) *FeedController {
	return &FeedController{rounds: rounds}
}

// Latest returns the last completed round.
func (fc *FeedController) Latest(c *gin.Context) {
	round, ok := fc.rounds.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no discovery round has completed yet"})
		return
	}
	c.JSON(http.StatusOK, round)
}

// Refresh runs a new round within the request deadline.
func (fc *FeedController) Refresh(c *gin.Context) {
	round, err := fc.rounds.Discover(c.Request.Context())
	if err != nil {
		logger.WithComponent("feed_controller").Errorf("refresh failed: %v", err)
		_ = c.Error(err)
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "refresh timed out"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, round)
}
