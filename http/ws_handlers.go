package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	socketWriteWait = 10 * time.Second
	socketIdleWait  = 2 * time.Minute
)

type socketReply struct {
	Prediction string `json:"prediction,omitempty"`
	Error      string `json:"error,omitempty"`
	Status     int    `json:"status"`
}

// handlePredictSocket answers each JSON record frame with one reply frame.
// Frames are handled in order on the connection's goroutine.
func (a *API) handlePredictSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := GetRequestID(r.Context())
	ctx := context.WithoutCancel(r.Context())
	conn.SetReadLimit(a.maxBodyBytes)

	for {
		conn.SetReadDeadline(time.Now().Add(socketIdleWait))
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.log.Debug("websocket closed", zap.Error(err), zap.String("request_id", requestID))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply := socketReply{Status: http.StatusOK}
		prediction, err := a.predictor.PredictJSON(ctx, bytes.NewReader(payload))
		if err != nil {
			reply.Status = statusForError(err)
			reply.Error = messageForError(err)
		} else {
			reply.Prediction = prediction.Label
		}

		conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			a.log.Debug("websocket write failed", zap.Error(err), zap.String("request_id", requestID))
			return
		}
	}
}
