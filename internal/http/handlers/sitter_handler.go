// README: Petsitter-facing handlers: presence, missions, and walk execution.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leash/internal/modules/sitter"
	"leash/internal/types"
)

type SitterHandler struct {
	sitters *sitter.Service
}

func NewSitterHandler(svc *sitter.Service) *SitterHandler {
	return &SitterHandler{sitters: svc}
}

func (h *SitterHandler) Online(c *gin.Context) {
	if err := h.sitters.GoOnline(c.Request.Context(), callerID(c)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"online": true})
}

func (h *SitterHandler) Offline(c *gin.Context) {
	if err := h.sitters.GoOffline(c.Request.Context(), callerID(c)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"online": false})
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *SitterHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p := types.Point{Lat: req.Lat, Lng: req.Lng}
	if err := h.sitters.UpdateLocation(c.Request.Context(), callerID(c), p); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ok": true})
}

func (h *SitterHandler) Missions(c *gin.Context) {
	missions, err := h.sitters.PendingMissions(c.Request.Context(), callerID(c))
	if err != nil {
		writeWalkError(c, err)
		return
	}
	if missions == nil {
		missions = []sitter.Mission{}
	}
	writeJSON(c, http.StatusOK, gin.H{"missions": missions})
}

func (h *SitterHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	if err := h.sitters.AcceptMission(c.Request.Context(), callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"accepted": true})
}

func (h *SitterHandler) Decline(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	if err := h.sitters.DeclineMission(c.Request.Context(), callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"accepted": false})
}

func (h *SitterHandler) StartWalk(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	if err := h.sitters.StartWalk(c.Request.Context(), callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "walking"})
}

func (h *SitterHandler) MarkReturning(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	if err := h.sitters.MarkReturning(c.Request.Context(), callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "returning"})
}

type completeWalkReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *SitterHandler) CompleteWalk(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	var req completeWalkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p := types.Point{Lat: req.Lat, Lng: req.Lng}
	if err := h.sitters.CompleteWalk(c.Request.Context(), callerID(c), types.ID(id), p); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "completed"})
}

func (h *SitterHandler) CancelMission(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	if err := h.sitters.CancelMission(c.Request.Context(), callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "cancelled"})
}
