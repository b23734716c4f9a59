// README: Route/ETA overlay for walks in a route phase.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"leash/internal/modules/walk"
	"leash/internal/types"
)

// Router computes a walking ETA between two points.
type Router interface {
	GetWalkETA(ctx context.Context, origin, destination types.Point) (time.Duration, string, error)
}

type RouteHandler struct {
	walks  *walk.Service
	routes Router
}

func NewRouteHandler(walks *walk.Service, routes Router) *RouteHandler {
	return &RouteHandler{walks: walks, routes: routes}
}

// ETA returns the walking ETA from the caller's reported position to the
// walk's pickup point. Only meaningful while the walk is in a route phase
// (assigned, going to owner, or returning).
func (h *RouteHandler) ETA(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng query params required")
		return
	}

	w, err := h.walks.Get(c.Request.Context(), callerID(c), types.ID(id))
	if err != nil {
		writeWalkError(c, err)
		return
	}
	if !w.Status.IsRoutePhase() {
		writeError(c, http.StatusConflict, "walk is not in a route phase")
		return
	}

	eta, distance, err := h.routes.GetWalkETA(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, w.Pickup)
	if err != nil {
		writeError(c, http.StatusBadGateway, "route lookup failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"eta_seconds": int(eta.Seconds()),
		"distance":    distance,
	})
}
