package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ffarena/tournament-engine/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// firehoseRoom receives every event regardless of tournament. Clients that
// connect without a tournament id subscribe here.
const firehoseRoom = ""

// Hub fans domain events out to connected WebSocket clients. Clients join a
// room keyed by tournament id, or the firehose room for all events.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.logger.Debug("event client subscribed", slog.String("room", client.room))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, stillThere := clients[client]; stillThere {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("event client unsubscribed", slog.String("room", client.room))
		}
	}
}

// TournamentCreated implements Publisher.
func (h *Hub) TournamentCreated(t *models.Tournament) {
	h.publish(t.ID, Message{
		Type:         TypeTournamentCreated,
		TournamentID: t.ID,
		Payload: TournamentCreatedPayload{
			Name:       t.Name,
			Date:       t.Date,
			EntryFee:   t.EntryFee,
			MaxPlayers: t.MaxPlayers,
			PrizePool:  t.PrizePool,
		},
	})
}

// RegistrationClosed implements Publisher.
func (h *Hub) RegistrationClosed(t *models.Tournament) {
	h.publish(t.ID, Message{
		Type:         TypeRegistrationClosed,
		TournamentID: t.ID,
		Payload: RegistrationClosedPayload{
			RegisteredPlayers: t.RegisteredPlayers,
		},
	})
}

// ResultsPublished implements Publisher.
func (h *Hub) ResultsPublished(t *models.Tournament) {
	h.publish(t.ID, Message{
		Type:         TypeResultsPublished,
		TournamentID: t.ID,
		Payload: ResultsPublishedPayload{
			PrizePool: t.PrizePool,
			Results:   t.Results,
		},
	})
}

// publish sends the message to the tournament's room and to the firehose.
func (h *Hub) publish(tournamentID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal event", slog.Any("error", err), slog.String("type", string(msg.Type)))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendToRoom(tournamentID, data)
	if tournamentID != firehoseRoom {
		h.sendToRoom(firehoseRoom, data)
	}
}

// sendToRoom requires h.mu to be held.
func (h *Hub) sendToRoom(room string, data []byte) {
	for client := range h.rooms[room] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the event rather than block the engine.
		}
		client.mu.Unlock()
	}
}

// Client is one WebSocket subscriber. ReadPump and WritePump must each run
// in their own goroutine for the lifetime of the connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
		room: room,
	}
}

// Subscribe registers the client with the hub.
func (c *Client) Subscribe() {
	c.hub.register <- c
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Inbound messages are ignored; the feed is one-way.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("event client read error", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
