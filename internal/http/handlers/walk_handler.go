// README: Owner-facing walk request handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leash/internal/modules/walk"
	"leash/internal/types"
)

// Geocoder resolves a display address for a pickup point. Optional; when nil
// the client-supplied address is used as-is.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

type WalkHandler struct {
	walks    *walk.Service
	geocoder Geocoder
}

func NewWalkHandler(svc *walk.Service, geocoder Geocoder) *WalkHandler {
	return &WalkHandler{walks: svc, geocoder: geocoder}
}

type createWalkReq struct {
	OwnerName     string   `json:"owner_name"`
	PetIDs        []string `json:"pet_ids"`
	PetNames      []string `json:"pet_names"`
	PickupLat     float64  `json:"pickup_lat"`
	PickupLng     float64  `json:"pickup_lng"`
	PickupAddress string   `json:"pickup_address"`
	DurationMins  int      `json:"duration_mins"`
}

type walkResponse struct {
	WalkID        string      `json:"walk_id"`
	Status        walk.Status `json:"status"`
	OwnerID       string      `json:"owner_id"`
	OwnerName     string      `json:"owner_name"`
	PetIDs        []string    `json:"pet_ids"`
	PetNames      []string    `json:"pet_names"`
	PickupLat     float64     `json:"pickup_lat"`
	PickupLng     float64     `json:"pickup_lng"`
	PickupAddress string      `json:"pickup_address"`
	DurationMins  int         `json:"duration_mins"`
	SitterID      string      `json:"sitter_id,omitempty"`
	SitterName    string      `json:"sitter_name,omitempty"`
	CancelledBy   string      `json:"cancelled_by,omitempty"`
	FeeAmount     int64       `json:"fee_amount"`
	FeeCurrency   string      `json:"fee_currency"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

func toWalkResponse(w *walk.WalkRequest) walkResponse {
	resp := walkResponse{
		WalkID:        string(w.ID),
		Status:        w.Status,
		OwnerID:       string(w.OwnerID),
		OwnerName:     w.OwnerName,
		PetIDs:        w.PetIDs,
		PetNames:      w.PetNames,
		PickupLat:     w.Pickup.Lat,
		PickupLng:     w.Pickup.Lng,
		PickupAddress: w.PickupAddress,
		DurationMins:  w.DurationMins,
		FeeAmount:     w.EstimatedFee.Amount,
		FeeCurrency:   w.EstimatedFee.Currency,
		CreatedAt:     w.CreatedAt,
		CompletedAt:   w.CompletedAt,
	}
	if w.SitterID != nil {
		resp.SitterID = string(*w.SitterID)
	}
	if w.SitterName != nil {
		resp.SitterName = *w.SitterName
	}
	if w.CancelledBy != nil {
		resp.CancelledBy = *w.CancelledBy
	}
	return resp
}

func (h *WalkHandler) Create(c *gin.Context) {
	var req createWalkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup := types.Point{Lat: req.PickupLat, Lng: req.PickupLng}
	address := req.PickupAddress
	if address == "" && h.geocoder != nil {
		if resolved, err := h.geocoder.ReverseGeocode(c.Request.Context(), pickup); err == nil {
			address = resolved
		}
	}
	id, err := h.walks.Create(c.Request.Context(), walk.CreateCommand{
		OwnerID:       callerID(c),
		OwnerName:     req.OwnerName,
		PetIDs:        req.PetIDs,
		PetNames:      req.PetNames,
		Pickup:        pickup,
		PickupAddress: address,
		DurationMins:  req.DurationMins,
	})
	if err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"walk_id": id, "status": walk.StatusPending})
}

func (h *WalkHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	w, err := h.walks.Get(c.Request.Context(), callerID(c), types.ID(id))
	if err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toWalkResponse(w))
}

func (h *WalkHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	err := h.walks.Cancel(c.Request.Context(), walk.CancelCommand{
		Caller: callerID(c),
		WalkID: types.ID(id),
	})
	if err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": walk.StatusCancelled})
}

func (h *WalkHandler) Dismiss(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	err := h.walks.Dismiss(c.Request.Context(), walk.DismissCommand{
		Caller: callerID(c),
		WalkID: types.ID(id),
	})
	if err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": walk.StatusDismissed})
}

func (h *WalkHandler) Active(c *gin.Context) {
	w, err := h.walks.Active(c.Request.Context(), callerID(c))
	if err != nil {
		writeWalkError(c, err)
		return
	}
	if w == nil {
		writeJSON(c, http.StatusOK, gin.H{"active": nil})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"active": toWalkResponse(w)})
}

func (h *WalkHandler) History(c *gin.Context) {
	walks, err := h.walks.History(c.Request.Context(), callerID(c))
	if err != nil {
		writeWalkError(c, err)
		return
	}
	out := make([]walkResponse, 0, len(walks))
	for _, w := range walks {
		out = append(out, toWalkResponse(w))
	}
	writeJSON(c, http.StatusOK, gin.H{"history": out})
}
