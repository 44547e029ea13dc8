package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types published when a room's bookings change.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

const (
	sendBuffer   = 16
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
)

// Event tells subscribers of a room that its bookings for Date changed.
type Event struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Date      string `json:"date"`
	BookingID string `json:"bookingId"`
}

// Hub fans booking events out to websocket subscribers, keyed by room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*subscriber]struct{}
	log    *zap.Logger
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*subscriber]struct{}),
		log:   logger,
	}
}

type subscriber struct {
	hub       *Hub
	conn      *websocket.Conn
	roomID    string
	send      chan []byte
	closeOnce sync.Once
}

// Subscribers returns the number of live subscribers for a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Publish delivers e to every subscriber of e.RoomID. Slow subscribers whose
// buffer is full are dropped.
func (h *Hub) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error("marshalling event", zap.Error(err))
		return
	}

	// Sends happen under the read lock so a subscriber cannot be detached,
	// and its channel closed, mid-send.
	h.mu.RLock()
	subs := h.rooms[e.RoomID]
	for sub := range subs {
		select {
		case sub.send <- data:
		default:
			h.log.Warn("subscriber buffer full, dropping", zap.String("room", e.RoomID))
			go h.detach(sub)
		}
	}
	n := len(subs)
	h.mu.RUnlock()

	h.log.Debug("event published",
		zap.String("type", e.Type),
		zap.String("room", e.RoomID),
		zap.Int("subscribers", n))
}

// Close detaches every subscriber. Later attaches are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	var subs []*subscriber
	for _, set := range h.rooms {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.rooms = make(map[string]map[*subscriber]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// serve attaches conn as a subscriber of roomID and blocks until the
// connection goes away.
func (h *Hub) serve(conn *websocket.Conn, roomID string) {
	sub := &subscriber{
		hub:    h,
		conn:   conn,
		roomID: roomID,
		send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*subscriber]struct{})
	}
	h.rooms[roomID][sub] = struct{}{}
	h.mu.Unlock()
	h.log.Info("subscriber attached", zap.String("room", roomID))

	go sub.writePump()
	sub.readPump()
}

func (h *Hub) detach(sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.rooms[sub.roomID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.rooms, sub.roomID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		_ = s.conn.Close()
		s.hub.log.Info("subscriber detached", zap.String("room", s.roomID))
	})
}

func (s *subscriber) writePump() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.hub.log.Warn("websocket write error", zap.Error(err))
				go s.hub.detach(s)
				return
			}
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.hub.log.Warn("websocket ping error", zap.Error(err))
				go s.hub.detach(s)
				return
			}
		}
	}
}

// readPump only services control frames; subscribers never send commands.
func (s *subscriber) readPump() {
	defer s.hub.detach(s)

	s.conn.SetReadLimit(1 << 10)
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.hub.log.Debug("websocket read ended", zap.String("room", s.roomID), zap.Error(err))
			}
			return
		}
	}
}
