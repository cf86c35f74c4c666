package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/auth"
	"github.com/sochat/realtime-server/internal/chat"
	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/membership"
	"github.com/sochat/realtime-server/internal/presence"
	"github.com/sochat/realtime-server/internal/proto"
	"github.com/sochat/realtime-server/internal/store"
)

// WSHandler authenticates the handshake, upgrades the connection and
// runs the per-connection pipeline: gate, then handler, in received
// order.
type WSHandler struct {
	verifier *auth.Verifier
	users    store.UserStore
	hub      *core.Hub
	gate     *Gate
	joins    *membership.Service
	fanout   *chat.Service
	tracker  *presence.Tracker

	pingInterval time.Duration
	idleTimeout  time.Duration

	log *zerolog.Logger
}

// NewWSHandler builds the WebSocket handler.
func NewWSHandler(
	verifier *auth.Verifier,
	users store.UserStore,
	hub *core.Hub,
	gate *Gate,
	joins *membership.Service,
	fanout *chat.Service,
	tracker *presence.Tracker,
	pingInterval, idleTimeout time.Duration,
	logger *zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		verifier:     verifier,
		users:        users,
		hub:          hub,
		gate:         gate,
		joins:        joins,
		fanout:       fanout,
		tracker:      tracker,
		pingInterval: pingInterval,
		idleTimeout:  idleTimeout,
		log:          logger,
	}
}

// bearerToken pulls the handshake credential from the Authorization
// header or the token query parameter.
func bearerToken(r *stdhttp.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return after
		}
	}
	return r.URL.Query().Get("token")
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token := bearerToken(r)
	if token == "" {
		stdhttp.Error(w, "authentication token not provided", stdhttp.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("handshake rejected: bad token")
		stdhttp.Error(w, "invalid or expired token", stdhttp.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			stdhttp.Error(w, "user not found", stdhttp.StatusUnauthorized)
			return
		}
		h.log.Error().Err(err).Str("user_id", claims.UserID).Msg("handshake user lookup failed")
		stdhttp.Error(w, "internal server error", stdhttp.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(uuid.NewString(), user.ID, user.Username, user.Name, user.Email)
	h.hub.Register(client)
	h.hub.Join(client, core.UserRoom(user.ID))

	h.log.Info().Str("user_id", user.ID).Str("conn_id", client.ID).Msg("user authenticated")

	h.joins.AutoRejoin(ctx, client)
	h.tracker.HandleConnect(ctx, client)

	defer func() {
		h.hub.Unregister(client)
		// connection ctx is gone by now; presence cleanup gets its own
		offCtx, offCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer offCancel()
		h.tracker.HandleDisconnect(offCtx, client)
	}()

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.pingLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutines

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.sendError(client, protoErr.Message, protoErr.Code)
			continue
		}

		// Gate first, handler second, strictly in order per connection.
		h.handleCommand(ctx, client, *cmd)
	}
}

func (h *WSHandler) handleCommand(ctx context.Context, client *core.Client, cmd core.Command) {
	if cerr := h.gate.Check(ctx, client, cmd); cerr != nil {
		h.sendError(client, cerr.Message, cerr.Code)
		return
	}

	switch cmd.Kind {
	case core.CommandJoinChat:
		h.handleJoin(ctx, client, cmd)
	case core.CommandSendMessage:
		if cerr := h.fanout.HandleMessage(client, cmd); cerr != nil {
			h.sendError(client, cerr.Message, cerr.Code)
		}
	case core.CommandTyping:
		h.tracker.HandleTyping(ctx, client, cmd.ChatID, cmd.IsTyping)
	case core.CommandMarkRead:
		if cerr := h.fanout.HandleRead(client, cmd); cerr != nil {
			h.sendError(client, cerr.Message, cerr.Code)
		}
	case core.CommandReaction:
		if cerr := h.fanout.HandleReaction(client, cmd); cerr != nil {
			h.sendError(client, cerr.Message, cerr.Code)
		}
	case core.CommandDeleteMessage:
		if cerr := h.fanout.HandleDelete(client, cmd); cerr != nil {
			h.sendError(client, cerr.Message, cerr.Code)
		}
	case core.CommandHeartbeat:
		h.tracker.HandleHeartbeat(ctx, client)
	case core.CommandGoOffline:
		h.tracker.HandleDisconnect(ctx, client)
	}
}

func (h *WSHandler) handleJoin(ctx context.Context, client *core.Client, cmd core.Command) {
	if cmd.ChatID == "" {
		h.sendAck(client, proto.JoinAck{OK: false, Error: core.ErrCodeBadRequest})
		return
	}
	if cerr := h.joins.Join(ctx, client, cmd.ChatID); cerr != nil {
		h.sendAck(client, proto.JoinAck{OK: false, ChatID: cmd.ChatID, Error: cerr.Code})
		return
	}
	h.sendAck(client, proto.JoinAck{OK: true, ChatID: cmd.ChatID})
}

func (h *WSHandler) sendAck(client *core.Client, ack proto.JoinAck) {
	ev, err := core.NewEvent(proto.OutChatJoinAck, ack)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode join ack")
		return
	}
	client.Send(ev)
}

func (h *WSHandler) sendError(client *core.Client, message, code string) {
	ev, err := core.NewEvent(proto.OutError, proto.ErrorEvent{Message: message, Code: code})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode error event")
		return
	}
	client.Send(ev)
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out := proto.Outbound{Type: event.Type, Data: event.Data}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pingLoop enforces transport liveness: a peer that misses pongs for
// the idle window gets disconnected, which drives the offline presence
// transition independently of the presence TTL.
func (h *WSHandler) pingLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	if h.pingInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.idleTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Info().Err(err).Str("conn_id", client.ID).Msg("ping timeout, disconnecting")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
