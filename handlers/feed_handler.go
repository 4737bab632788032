package handlers

import (
	"log"
	"net/http"

	"anonq/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type FeedHandler struct {
	hub *services.Hub
}

func NewFeedHandler(hub *services.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

func (h *FeedHandler) PublicFeed(c *gin.Context) {
	h.serve(c, services.ChannelPublic)
}

// AdminFeed must be mounted behind middleware.RequireAdmin.
func (h *FeedHandler) AdminFeed(c *gin.Context) {
	h.serve(c, services.ChannelAdmin)
}

func (h *FeedHandler) serve(c *gin.Context, channel string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		log.Printf("WebSocket upgrade failed for %s feed: %v", channel, err)
		return
	}

	h.hub.RegisterClient(conn, channel)
}
