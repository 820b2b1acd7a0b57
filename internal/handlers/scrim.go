package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/scrimhub/internal/handlers/dto"
	"github.com/thereayou/scrimhub/internal/scrim"
)

const defaultPerPage = 5

type ScrimHandler struct {
	svc *scrim.Service
}

func NewScrimHandler(svc *scrim.Service) *ScrimHandler {
	return &ScrimHandler{svc: svc}
}

// Create создает новый скрим
func (h *ScrimHandler) Create(c *gin.Context) {
	actor := currentActor(c)

	var req dto.CreateScrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.Create(actor, req.Title, req.GameMode, req.Time, req.MaxPlayers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"scrim_id":       created.ID,
		"title":          created.Title,
		"game_mode":      created.GameMode,
		"scheduled_time": created.ScheduledTime,
		"max_players":    created.MaxPlayers,
		"status":         created.Status,
	})
}

// Join регистрирует текущего пользователя в скриме
func (h *ScrimHandler) Join(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	count, max, err := h.svc.Join(scrimID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"players_count": count,
		"max_players":   max,
	})
}

// Leave убирает текущего пользователя из скрима
func (h *ScrimHandler) Leave(c *gin.Context) {
	actor := currentActor(c)

	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.Leave(scrimID, actor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left scrim"})
}

// List возвращает страницу активных скримов
func (h *ScrimHandler) List(c *gin.Context) {
	scrims, err := h.svc.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if perPage < 1 {
		perPage = defaultPerPage
	}

	start := (page - 1) * perPage
	if start > len(scrims) {
		start = len(scrims)
	}
	end := start + perPage
	if end > len(scrims) {
		end = len(scrims)
	}

	items := make([]gin.H, 0, end-start)
	for _, s := range scrims[start:end] {
		items = append(items, gin.H{
			"id":           s.ID,
			"title":        s.Title,
			"game_mode":    s.GameMode,
			"player_count": s.PlayerCount,
			"max_players":  s.MaxPlayers,
			"status":       s.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"scrims":   items,
		"page":     page,
		"per_page": perPage,
		"total":    len(scrims),
	})
}

// Info возвращает детали скрима
func (h *ScrimHandler) Info(c *gin.Context) {
	scrimID, ok := scrimIDParam(c)
	if !ok {
		return
	}

	info, err := h.svc.Info(scrimID)
	if err != nil {
		respondError(c, err)
		return
	}

	players := make([]gin.H, len(info.Players))
	for i, p := range info.Players {
		players[i] = gin.H{
			"player_id":   p.PlayerID,
			"player_name": p.PlayerName,
			"team":        p.Team,
			"joined_at":   p.JoinedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             info.Scrim.ID,
		"title":          info.Scrim.Title,
		"game_mode":      info.Scrim.GameMode,
		"scheduled_time": info.Scrim.ScheduledTime,
		"player_count":   info.Scrim.PlayerCount,
		"max_players":    info.Scrim.MaxPlayers,
		"status":         info.Scrim.Status,
		"created_by":     info.CreatorName,
		"created_at":     info.Scrim.CreatedAt,
		"players":        players,
	})
}
