// README: Internal ingress for the external matcher's mission offers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leash/internal/modules/sitter"
	"leash/internal/types"
)

// DispatchHandler receives mission offers from the matching process. It sits
// behind the internal-token guard, not user auth: the matcher acts on behalf
// of sitters it selected, so the sitter id arrives in the payload.
type DispatchHandler struct {
	sitters *sitter.Service
}

func NewDispatchHandler(sitters *sitter.Service) *DispatchHandler {
	return &DispatchHandler{sitters: sitters}
}

type offerReq struct {
	WalkID      string  `json:"walk_id"`
	SitterID    string  `json:"sitter_id"`
	SitterLat   float64 `json:"sitter_lat"`
	SitterLng   float64 `json:"sitter_lng"`
	DeviceToken string  `json:"device_token"`
}

func (h *DispatchHandler) Offer(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.WalkID) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	m, err := h.sitters.Offer(c.Request.Context(), sitter.OfferCommand{
		SitterID:       types.ID(req.SitterID),
		SitterLocation: types.Point{Lat: req.SitterLat, Lng: req.SitterLng},
		DeviceToken:    req.DeviceToken,
		WalkID:         types.ID(req.WalkID),
	})
	if err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"walk_id":         m.WalkID,
		"sitter_id":       m.SitterID,
		"distance_meters": m.DistanceMeters,
		"expires_at":      m.ExpiresAt.Format(time.RFC3339),
	})
}
