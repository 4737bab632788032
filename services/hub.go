package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"anonq/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	ChannelPublic = "public"
	ChannelAdmin  = "admin"

	EventQuestionSubmitted = "question_submitted"
	EventQuestionAnswered  = "question_answered"
	EventQuestionDeleted   = "question_deleted"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub fans feed events out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub     *Hub
	id      string
	socket  *websocket.Conn
	send    chan []byte
	channel string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Feed client registered: %s on %s - Total clients: %d", client.id, client.channel, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Feed client unregistered: %s on %s - Total clients: %d", client.id, client.channel, len(h.clients))
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast sends an event to every client on the given channels.
func (h *Hub) Broadcast(messageType string, payload interface{}, channels ...string) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}

	want := make(map[string]bool, len(channels))
	for _, c := range channels {
		want[c] = true
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if !want[client.channel] {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Feed client %s send buffer full, closing connection", client.id)
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) QuestionSubmitted(q models.Question) {
	h.Broadcast(EventQuestionSubmitted, q, ChannelAdmin)
}

func (h *Hub) QuestionAnswered(qa models.QA) {
	h.Broadcast(EventQuestionAnswered, qa, ChannelPublic, ChannelAdmin)
}

func (h *Hub) QuestionDeleted(id string) {
	h.Broadcast(EventQuestionDeleted, map[string]string{"id": id}, ChannelPublic, ChannelAdmin)
}

func (h *Hub) ClientCount(channel string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	n := 0
	for client := range h.clients {
		if client.channel == channel {
			n++
		}
	}
	return n
}

func (h *Hub) RegisterClient(conn *websocket.Conn, channel string) *Client {
	client := &Client{
		hub:     h,
		id:      uuid.NewString(),
		socket:  conn,
		send:    make(chan []byte, 256),
		channel: channel,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// readPump only handles keepalives; feed clients never publish.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(4096)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			c.reply(Message{Type: "pong", Payload: "pong"})
		}
	}
}

func (c *Client) reply(msg Message) {
	data, _ := json.Marshal(msg)

	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
