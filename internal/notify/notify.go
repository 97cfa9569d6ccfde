// Package notify delivers chat-style messages to players over an embedded
// NATS server. Services publish fire-and-forget; a single subscriber fans
// messages out to whatever delivery function the transport layer registers.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const (
	subjectNationPrefix = "nation.msg."
	subjectPlayerPrefix = "player.msg."

	startupTimeout = 5 * time.Second
)

// nationPayload carries a nation broadcast with its recipient list, so the
// delivery side needs no membership lookup of its own.
type nationPayload struct {
	Text    string      `json:"text"`
	Members []uuid.UUID `json:"members"`
}

type playerPayload struct {
	Text string `json:"text"`
}

// DeliverFunc receives every message addressed to one player. It is called
// from the NATS dispatch goroutine and must not block.
type DeliverFunc func(player uuid.UUID, text string)

// Notifier runs an embedded NATS server and a client connection to it.
type Notifier struct {
	srv  *server.Server
	conn *nats.Conn
	subs []*nats.Subscription
}

// New starts the embedded server on the given port (-1 picks a free port)
// and connects to it.
func New(port int) (*Notifier, error) {
	srv, err := server.NewServer(&server.Options{
		Host:           "127.0.0.1",
		Port:           port,
		NoLog:          true,
		NoSigs:         true,
		JetStream:      false,
		MaxControlLine: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("creating message bus server: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(startupTimeout) {
		srv.Shutdown()
		return nil, fmt.Errorf("message bus server not ready after %v", startupTimeout)
	}

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("connecting to message bus: %w", err)
	}

	return &Notifier{srv: srv, conn: conn}, nil
}

// Close drains the connection and stops the embedded server.
func (n *Notifier) Close() {
	for _, sub := range n.subs {
		sub.Unsubscribe()
	}
	n.conn.Close()
	n.srv.Shutdown()
	n.srv.WaitForShutdown()
}

// NationMessage broadcasts text to a nation's members. Fire and forget;
// publish errors are logged, never returned to domain code.
func (n *Notifier) NationMessage(nationID int64, members []uuid.UUID, text string) {
	data, err := json.Marshal(nationPayload{Text: text, Members: members})
	if err != nil {
		log.Printf("notify: marshaling nation message: %v", err)
		return
	}
	subject := fmt.Sprintf("%s%d", subjectNationPrefix, nationID)
	if err := n.conn.Publish(subject, data); err != nil {
		log.Printf("notify: publishing to %s: %v", subject, err)
	}
}

// PlayerMessage sends text to one player. Fire and forget.
func (n *Notifier) PlayerMessage(player uuid.UUID, text string) {
	data, err := json.Marshal(playerPayload{Text: text})
	if err != nil {
		log.Printf("notify: marshaling player message: %v", err)
		return
	}
	subject := subjectPlayerPrefix + player.String()
	if err := n.conn.Publish(subject, data); err != nil {
		log.Printf("notify: publishing to %s: %v", subject, err)
	}
}

// StartDelivery subscribes to every message subject and forwards each
// addressed recipient to deliver.
func (n *Notifier) StartDelivery(deliver DeliverFunc) error {
	nationSub, err := n.conn.Subscribe(subjectNationPrefix+">", func(msg *nats.Msg) {
		var payload nationPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Printf("notify: bad nation payload on %s: %v", msg.Subject, err)
			return
		}
		for _, member := range payload.Members {
			deliver(member, payload.Text)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to nation messages: %w", err)
	}

	playerSub, err := n.conn.Subscribe(subjectPlayerPrefix+"*", func(msg *nats.Msg) {
		raw := msg.Subject[len(subjectPlayerPrefix):]
		player, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("notify: bad player subject %s: %v", msg.Subject, err)
			return
		}
		var payload playerPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Printf("notify: bad player payload on %s: %v", msg.Subject, err)
			return
		}
		deliver(player, payload.Text)
	})
	if err != nil {
		nationSub.Unsubscribe()
		return fmt.Errorf("subscribing to player messages: %w", err)
	}

	n.subs = append(n.subs, nationSub, playerSub)
	return nil
}
