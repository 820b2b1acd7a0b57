package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/scrimhub/internal/middleware"
	"github.com/thereayou/scrimhub/internal/scrim"
)

func currentActor(c *gin.Context) scrim.Actor {
	return c.MustGet(middleware.ActorKey).(scrim.Actor)
}

func scrimIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scrim id"})
		return 0, false
	}
	return uint(id), true
}

// respondError переводит ошибки жизненного цикла в HTTP статусы
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, scrim.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scrim.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, scrim.ErrInvalidTimeFormat),
		errors.Is(err, scrim.ErrTimeInPast),
		errors.Is(err, scrim.ErrInvalidMaxPlayers):
		status = http.StatusBadRequest
	case errors.Is(err, scrim.ErrInvalidState),
		errors.Is(err, scrim.ErrAlreadyJoined),
		errors.Is(err, scrim.ErrScrimFull),
		errors.Is(err, scrim.ErrNotRegistered),
		errors.Is(err, scrim.ErrInsufficientPlayers):
		status = http.StatusConflict
	case errors.Is(err, scrim.ErrProvisioning):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
