package controller

import (
	"net/http"
	"strconv"

	"github.com/bassista/go_discover/internal/interest"
	"github.com/gin-gonic/gin"
)

// WeightSource is the read side of the interest profile.
type WeightSource interface {
	TopWeights(n int) []interest.TagWeight
	Total() int
	Len() int
}

type WeightsController struct {
	profile WeightSource
}

func NewWeightsController(profile WeightSource) *WeightsController {
	return &WeightsController{profile: profile}
}

// Top returns the heaviest tags. ?top=N limits the list; 0 or missing means all.
func (wc *WeightsController) Top(c *gin.Context) {
	n := 0
	if raw := c.Query("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a non-negative integer"})
			return
		}
		n = v
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   wc.profile.Total(),
		"tags":    wc.profile.Len(),
		"weights": wc.profile.TopWeights(n),
	})
}
