package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/scrimhub/internal/handlers/dto"
	"github.com/thereayou/scrimhub/internal/models"
	"github.com/thereayou/scrimhub/internal/scrim"
)

// AdminHandler обрабатывает операции управления скримом: старт, отмена,
// завершение, рассылка и чистка старых записей
type AdminHandler struct {
	svc *scrim.Service
}

func NewAdminHandler(svc *scrim.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Start делит игроков из зала ожидания на команды и запускает скрим
func (h *AdminHandler) Start(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	result, err := h.svc.Start(c.Request.Context(), scrimID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"team1": playerNames(result.Team1),
		"team2": playerNames(result.Team2),
	})
}

// Cancel отменяет скрим и уведомляет игроков
func (h *AdminHandler) Cancel(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	notified, total, err := h.svc.Cancel(c.Request.Context(), scrimID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "scrim cancelled",
		"notified": notified,
		"total":    total,
	})
}

// End завершает скрим и возвращает составы команд
func (h *AdminHandler) End(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	result, err := h.svc.End(c.Request.Context(), scrimID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"team1_names": result.Team1Names,
		"team2_names": result.Team2Names,
	})
}

// Message рассылает сообщение создателя всем игрокам скрима
func (h *AdminHandler) Message(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	var req dto.MessageScrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, total, err := h.svc.MessagePlayers(scrimID, actor, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sent_count": sent,
		"total":      total,
	})
}

// Purge удаляет скримы старше окна хранения
func (h *AdminHandler) Purge(c *gin.Context) {
	actor := currentActor(c)

	deleted, err := h.svc.PurgeOldScrims(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

func playerNames(players []models.ScrimPlayer) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.PlayerName
	}
	return names
}
