package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/services"
	"github.com/yungbote/habitflow-backend/internal/sse"
)

// RealtimeHandler owns the SSE stream plus room membership. Clients
// are keyed by session id so a reconnect with the same token replaces
// the previous subscription instead of leaking it.
type RealtimeHandler struct {
	log      *logger.Logger
	hub      *sse.Hub
	notifier services.Notifier

	mu      sync.Mutex
	clients map[uuid.UUID]*sse.Client
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub, notifier services.Notifier) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		notifier: notifier,
		clients:  make(map[uuid.UUID]*sse.Client),
	}
}

// Stream attaches the caller to the hub and blocks until the
// connection drops. The personal room user:<id> is joined
// automatically; board rooms are managed via JoinBoard/LeaveBoard.
func (rh *RealtimeHandler) Stream(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	client := rh.hub.NewClient(rd.UserID)

	rh.mu.Lock()
	if prev, exists := rh.clients[rd.SessionID]; exists {
		rh.hub.CloseClient(prev)
	}
	rh.clients[rd.SessionID] = client
	rh.mu.Unlock()

	defer func() {
		rh.mu.Lock()
		if rh.clients[rd.SessionID] == client {
			delete(rh.clients, rd.SessionID)
		}
		rh.mu.Unlock()
		rh.hub.CloseClient(client)
	}()

	rh.hub.ServeHTTP(c.Writer, c.Request, client)
}

func (rh *RealtimeHandler) JoinBoard(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	boardID := c.Param("id")
	if boardID == "" {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("board id is required")))
		return
	}

	rh.mu.Lock()
	client := rh.clients[rd.SessionID]
	rh.mu.Unlock()
	if client == nil {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("no active event stream for session")))
		return
	}

	if !rh.hub.Join(client, sse.BoardRoom(boardID)) {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("no active event stream for session")))
		return
	}
	rh.notifier.UserJoinedBoard(rd.UserID, boardID)
	RespondOK(c, http.StatusOK, gin.H{"board_id": boardID, "joined": true})
}

func (rh *RealtimeHandler) LeaveBoard(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	boardID := c.Param("id")
	if boardID == "" {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("board id is required")))
		return
	}

	rh.mu.Lock()
	client := rh.clients[rd.SessionID]
	rh.mu.Unlock()
	if client == nil {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("no active event stream for session")))
		return
	}

	rh.hub.Leave(client, sse.BoardRoom(boardID))
	RespondOK(c, http.StatusOK, gin.H{"board_id": boardID, "joined": false})
}
