package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/logger"
)

type Event string

const (
	EventHabitCompleted      Event = "habit_completed"
	EventAchievementUnlocked Event = "achievement_unlocked"
	EventStreakMilestone     Event = "streak_milestone"
	EventLevelUp             Event = "level_up"
	EventReminderTriggered   Event = "reminder_triggered"
	EventUserJoinedBoard     Event = "user_joined_board"
)

// UserRoom is the personal room every connection joins at registration.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// BoardRoom is the shared room for clients viewing the same board.
func BoardRoom(boardID string) string {
	return "board:" + boardID
}

type Message struct {
	Room  string `json:"room"`
	Event Event  `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one live connection. Outbound is bounded; the hub never
// blocks on a slow consumer.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Rooms    map[string]bool
	Outbound chan Message
	done     chan struct{}
	closed   sync.Once
	dead     bool // guarded by hub.mu; set before removal, checked by Join
}

// Hub tracks live connections and their room membership, and fans
// domain events out to every connection in a room. All state is
// process-local; clients reconnect and re-join after a restart.
type Hub struct {
	mu     sync.RWMutex
	logger *logger.Logger
	rooms  map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log.With("component", "Hub"),
		rooms:  make(map[string]map[*Client]bool),
	}
}

// NewClient registers a connection for userID and auto-joins its
// personal room.
func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Rooms:    make(map[string]bool),
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
	hub.Join(client, UserRoom(userID))
	return client
}

// Join adds the client to a room. It refuses clients that have already
// been closed, so a join racing a disconnect cannot re-insert a dead
// connection into the registry. Returns whether the client is a member
// of the room afterwards.
func (hub *Hub) Join(client *Client, room string) bool {
	room = strings.TrimSpace(room)
	if room == "" {
		return false
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	if client.dead {
		hub.logger.Debug("Refusing join for closed client", "clientID", client.ID, "room", room)
		return false
	}

	client.Rooms[room] = true
	members, exists := hub.rooms[room]
	if !exists {
		members = make(map[*Client]bool)
		hub.rooms[room] = members
	}
	members[client] = true

	hub.logger.Debug("Client joined room", "clientID", client.ID, "room", room)
	return true
}

func (hub *Hub) Leave(client *Client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	delete(client.Rooms, room)
	if members, ok := hub.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(hub.rooms, room)
		}
	}
	hub.logger.Debug("Client left room", "clientID", client.ID, "room", room)
}

// RemoveClient takes the connection out of every room it belongs to and
// garbage-collects rooms left empty.
func (hub *Hub) RemoveClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for room := range client.Rooms {
		if members, ok := hub.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(hub.rooms, room)
			}
		}
	}
	client.Rooms = make(map[string]bool)
	hub.logger.Debug("Client removed from all rooms", "clientID", client.ID)
}

// Broadcast delivers msg to every connection in the room at call time.
// Delivery is per-connection and non-blocking: a full outbound buffer
// drops the message for that connection only.
func (hub *Hub) Broadcast(msg Message) {
	if msg.Room == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	members, ok := hub.rooms[msg.Room]
	if !ok {
		return
	}
	for c := range members {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping event; outbound buffer full", "clientID", c.ID, "room", msg.Room, "event", msg.Event)
		}
	}
}

// RoomSize reports current membership; zero means the room does not
// exist.
func (hub *Hub) RoomSize(room string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.rooms[room])
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("Client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			jsonBytes, err := json.Marshal(msg)
			if err != nil {
				hub.logger.Warn("Failed to marshal event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: message\ndata: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}

// CloseClient is safe to call more than once; a reconnecting session
// closes its predecessor while the old stream's teardown runs too. The
// client is marked dead under the registry lock before removal, so no
// later Join can resurrect it, and Outbound is only closed once no room
// references the client.
func (hub *Hub) CloseClient(client *Client) {
	client.closed.Do(func() {
		hub.mu.Lock()
		client.dead = true
		hub.mu.Unlock()

		close(client.done)
		hub.RemoveClient(client)
		close(client.Outbound)
	})
}
