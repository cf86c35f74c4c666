// Interactive chat client for local testing. Signs its own token, so
// the server must run with the same JWT settings.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sochat/realtime-server/internal/auth"
	"github.com/sochat/realtime-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	userID := flag.String("user-id", "cli-user", "user id to sign into the token")
	username := flag.String("username", "cli", "username claim")
	chatID := flag.String("chat", "general", "chat to join")
	secret := flag.String("secret", "change-me", "JWT secret the server runs with")
	issuer := flag.String("issuer", "sochat", "JWT issuer")
	audience := flag.String("audience", "sochat-clients", "JWT audience")
	flag.Parse()

	token, err := auth.Sign(auth.Config{
		Secret:   []byte(*secret),
		Issuer:   *issuer,
		Audience: *audience,
	}, *userID, *username, "", "", time.Hour)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{ChatID: *chatID})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InChatJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s, joining chat %s\n", *addr, *username, *chatID)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *chatID)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch out.Type {
		case proto.OutChatMessage:
			var evt proto.MessageEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.ChatID, evt.SenderUsername, evt.Content)
		case proto.OutChatJoined:
			var evt proto.JoinedEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal joined: %v", err)
				continue
			}
			fmt.Printf("[%s] %s joined\n", evt.ChatID, evt.Username)
		case proto.OutChatTyping:
			var evt proto.TypingEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal typing: %v", err)
				continue
			}
			if evt.IsTyping {
				fmt.Printf("[%s] %s is typing...\n", evt.ChatID, evt.Username)
			}
		case proto.OutUserOnline, proto.OutUserOffline:
			var evt proto.PresenceEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal presence: %v", err)
				continue
			}
			state := "online"
			if out.Type == proto.OutUserOffline {
				state = "offline"
			}
			fmt.Printf("* %s is %s\n", evt.Username, state)
		case proto.OutError:
			var evt proto.ErrorEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal error: %v", err)
				continue
			}
			fmt.Printf("! error: %s (%s)\n", evt.Message, evt.Code)
		default:
			fmt.Printf("event=%s data=%s\n", out.Type, string(out.Data))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, chatID string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.MessageData{ChatID: chatID, Content: text})
			if err != nil {
				log.Printf("marshal message: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InChatMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
