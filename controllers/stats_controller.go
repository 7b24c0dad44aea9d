package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// StatsController provides community statistics.
type StatsController struct {
	manager *store.Manager
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(manager *store.Manager) *StatsController {
	return &StatsController{manager: manager}
}

// GetStats returns live entity counts.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var stats store.Stats
	err := s.manager.Run(ctx.Request.Context(), func(sess *store.Session) error {
		var err error
		stats, err = sess.Stats()
		return err
	})
	if err != nil {
		fail(ctx, err, 50)
		return
	}
	utils.Success(ctx, stats)
}
