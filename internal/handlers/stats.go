package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/scrimhub/internal/scrim"
)

type StatsHandler struct {
	svc *scrim.Service
}

func NewStatsHandler(svc *scrim.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// MyScrims возвращает историю участия текущего пользователя
func (h *StatsHandler) MyScrims(c *gin.Context) {
	actor := currentActor(c)

	entries, err := h.svc.PlayerHistory(actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	scrimIDs := make([]uint, len(entries))
	for i, e := range entries {
		scrimIDs[i] = e.ScrimID
	}

	c.JSON(http.StatusOK, gin.H{
		"scrim_ids": scrimIDs,
		"total":     len(scrimIDs),
	})
}
