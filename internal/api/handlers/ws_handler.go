package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

type WSHandler struct {
	runs     services.ExtractionService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(runs services.ExtractionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		runs:  runs,
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func terminal(status string) bool {
	return status == models.RunSucceeded || status == models.RunFailed
}

// RunStatusWS streams status events of one extraction run. The current
// state is sent first; the socket closes after a terminal status.
func (h *WSHandler) RunStatusWS(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	runID := c.Param("run_id")
	if runID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.RunStatusWS", "missing run_id", nil))
		return
	}
	run, err := h.runs.GetRun(c.Request.Context(), runID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before the snapshot so no transition is missed in between
	pubsub := h.redis.Subscribe(ctx, services.RunStatusChannel(runID))
	defer pubsub.Close()

	snapshot, _ := json.Marshal(models.RunStatusEvent{
		RunID:   run.RunID,
		Status:  run.Status,
		Failure: run.Failure,
		At:      time.Now().UTC(),
	})
	if err := wc.writeText(snapshot); err != nil || terminal(run.Status) {
		return
	}

	// reader only watches for the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	msgs := pubsub.Channel()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			wc.mu.Lock()
			perr := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
			if perr != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
			var ev models.RunStatusEvent
			if json.Unmarshal([]byte(m.Payload), &ev) == nil && terminal(ev.Status) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ev.Status),
					time.Now().Add(5*time.Second))
				return
			}
		}
	}
}
