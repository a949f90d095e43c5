package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"namd/pkg/types"
)

// eventsHandler streams plugin notifications as NDJSON until the client goes
// away or the server shuts down.
func eventsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		notes, cancel := svc.Subscribe(0)
		defer cancel()
		streamClients.WithLabelValues("ndjson").Inc()
		defer streamClients.WithLabelValues("ndjson").Dec()

		ctx, stop := joinContexts(serverBaseCtx, r.Context())
		defer stop()

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		writer := io.Writer(w)
		if requestLogLevel(r) >= LevelDebug {
			writer = io.MultiWriter(w, &loggingLineWriter{prefix: "events"})
		}
		enc := json.NewEncoder(writer)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-notes:
				if !ok {
					return
				}
				if err := enc.Encode(n); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || !corsEnabled {
			return true
		}
		for _, o := range corsAllowedOrigins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	},
}

// wsHandler is a bidirectional control socket: clients send WSCommand messages
// and receive every notification plus one reply per command.
func wsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		session := uuid.NewString()
		streamClients.WithLabelValues("ws").Inc()
		defer streamClients.WithLabelValues("ws").Dec()
		if zlog != nil {
			z := zlog.Info().Str("session", session)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("ws connected")
			defer zlog.Info().Str("session", session).Msg("ws closed")
		}

		notes, cancel := svc.Subscribe(0)
		defer cancel()
		ctx, stop := joinContexts(serverBaseCtx, r.Context())
		defer stop()

		replies := make(chan any, 4)
		readDone := make(chan struct{})
		go wsReadLoop(ctx, conn, svc, replies, readDone)

		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()
		for {
			var msg any
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
					time.Now().Add(time.Second))
				return
			case <-readDone:
				return
			case n, ok := <-notes:
				if !ok {
					return
				}
				msg = n
			case rep := <-replies:
				msg = rep
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func wsReadLoop(ctx context.Context, conn *websocket.Conn, svc Service, replies chan<- any, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	})
	for {
		var cmd types.WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
		var reply any
		switch cmd.Op {
		case "set":
			resp, err := svc.SetModel(types.SetModelRequest{Path: cmd.Path})
			if err != nil {
				reply = types.ErrorResponse{Error: err.Error(), Code: statusFor(err)}
			} else {
				reply = resp
			}
		case "get":
			if err := svc.RequestPath(); err != nil {
				reply = types.ErrorResponse{Error: err.Error(), Code: statusFor(err)}
			} else {
				reply = svc.Model()
			}
		case "status":
			reply = svc.Status()
		default:
			reply = types.ErrorResponse{Error: "unknown op: " + cmd.Op, Code: http.StatusBadRequest}
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}
