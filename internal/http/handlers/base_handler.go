// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leash/internal/http/middleware"
	"leash/internal/modules/sitter"
	"leash/internal/modules/walk"
	"leash/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// callerID reads the authenticated UID stored by the auth middleware.
func callerID(c *gin.Context) types.ID {
	return types.ID(c.GetString(middleware.UIDKey))
}

// isValidID ensures IDs are lowercase hex and at most 32 chars, the shape the
// ID generator emits.
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, ch := range v {
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeWalkError(c *gin.Context, err error) {
	var tooFar *sitter.TooFarError
	if errors.As(err, &tooFar) {
		writeJSON(c, http.StatusConflict, gin.H{
			"error":           tooFar.Error(),
			"distance_meters": tooFar.DistanceMeters,
			"max_meters":      tooFar.MaxMeters,
		})
		return
	}
	switch {
	case errors.Is(err, walk.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, walk.ErrUnauthenticated):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, walk.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, walk.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, walk.ErrInvalidTransition),
		errors.Is(err, walk.ErrConflict),
		errors.Is(err, walk.ErrActiveWalk):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
