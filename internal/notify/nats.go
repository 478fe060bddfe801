package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/store"
)

const connectAttempts = 5

// conn is the subset of *nats.Conn the notifier needs.
type conn interface {
	Publish(subject string, data []byte) error
}

// Payload is the JSON body published for every event.
type Payload struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	PairProfiles []string        `json:"pairProfiles"`
	Message      *PayloadMessage `json:"message,omitempty"`
	At           time.Time       `json:"at"`
}

// PayloadMessage is the message part of a Payload.
type PayloadMessage struct {
	ID       string `json:"id"`
	SenderID string `json:"sender"`
	Text     string `json:"message"`
	Seq      int64  `json:"seq"`
}

// Notifier publishes room and message events to NATS subjects of the form
// <prefix>.<event kind>.
type Notifier struct {
	nc     conn
	prefix string
	log    zerolog.Logger
	now    func() time.Time
}

// New wraps an established connection.
func New(nc conn, prefix string, logger *zerolog.Logger) *Notifier {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Notifier{nc: nc, prefix: prefix, log: l, now: time.Now}
}

// Connect dials NATS, retrying while the server comes up.
func Connect(ctx context.Context, url string, logger *zerolog.Logger) (*nats.Conn, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	var (
		nc  *nats.Conn
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		nc, err = nats.Connect(url,
			nats.Name("duochat-server"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn().Err(err).Msg("nats disconnected")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
			}),
		)
		if err == nil {
			return nc, nil
		}
		logger.Info().Int("attempt", attempt).Err(err).Msg("waiting for nats")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("connect nats %s: %w", url, err)
}

// Subject returns the subject an event kind is published on.
func (n *Notifier) Subject(kind chat.EventKind) string {
	return n.prefix + "." + string(kind)
}

// Publish implements chat.EventPublisher. Failures are logged and dropped.
func (n *Notifier) Publish(_ context.Context, ev chat.Event) {
	if ev.Room == nil {
		return
	}
	data, err := json.Marshal(n.payload(ev))
	if err != nil {
		n.log.Error().Err(err).Str("type", string(ev.Kind)).Msg("marshal notification")
		return
	}
	subject := n.Subject(ev.Kind)
	if err := n.nc.Publish(subject, data); err != nil {
		n.log.Warn().Err(err).Str("subject", subject).Msg("publish notification")
	}
}

func (n *Notifier) payload(ev chat.Event) Payload {
	p := Payload{
		Type:         string(ev.Kind),
		RoomID:       ev.Room.ID,
		PairProfiles: ev.Room.PairProfiles[:],
		At:           n.now().UTC(),
	}
	if ev.Message != nil {
		p.Message = messagePayload(ev.Message)
	}
	return p
}

func messagePayload(m *store.Message) *PayloadMessage {
	return &PayloadMessage{ID: m.ID, SenderID: m.SenderID, Text: m.Text, Seq: m.Seq}
}
