// README: SSE streaming handlers for the owner feed and live walk tracking.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"leash/internal/modules/track"
	"leash/internal/modules/walk"
	"leash/internal/types"
)

type StreamHandler struct {
	walks   *walk.Service
	watcher *walk.Watcher
	tracks  *track.Store
}

func NewStreamHandler(walks *walk.Service, watcher *walk.Watcher, tracks *track.Store) *StreamHandler {
	return &StreamHandler{walks: walks, watcher: watcher, tracks: tracks}
}

type ownerFeedEvent struct {
	Active  *walkResponse  `json:"active"`
	History []walkResponse `json:"history"`
}

// OwnerFeed streams the caller's walk snapshot as server-sent events. The
// first event arrives immediately; later events follow each change to one of
// the owner's requests. The web dashboard consumes this; the mobile apps
// listen to the RTDB mirrors instead.
func (h *StreamHandler) OwnerFeed(c *gin.Context) {
	ctx := c.Request.Context()
	feed, err := h.watcher.WatchOwner(ctx, callerID(c))
	if err != nil {
		writeWalkError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.Stream(func(_ io.Writer) bool {
		select {
		case snap, ok := <-feed:
			if !ok {
				return false
			}
			ev := ownerFeedEvent{History: make([]walkResponse, 0, len(snap.History))}
			if snap.Active != nil {
				r := toWalkResponse(snap.Active)
				ev.Active = &r
			}
			for _, item := range snap.History {
				ev.History = append(ev.History, toWalkResponse(item))
			}
			c.SSEvent("feed", ev)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// WalkTrack streams the ephemeral tracking record of one walk: status
// sub-state, positions, and timer fields, ending with a tombstone event when
// the record is removed.
func (h *StreamHandler) WalkTrack(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid walk id")
		return
	}
	ctx := c.Request.Context()
	// The durable record gates who may watch the live stream: the walk's
	// owner and its assigned sitter only.
	if _, err := h.walks.Get(ctx, callerID(c), types.ID(id)); err != nil {
		writeWalkError(c, err)
		return
	}
	updates := h.tracks.Subscribe(ctx, types.ID(id))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.Stream(func(_ io.Writer) bool {
		select {
		case aw, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("track", aw)
			// A removed record is the last event the stream carries.
			return !aw.Removed
		case <-ctx.Done():
			return false
		}
	})
}
