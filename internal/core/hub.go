package core

import (
	"context"

	"github.com/rs/zerolog"
)

// MembershipVerifier answers whether a profile participates in a room.
type MembershipVerifier interface {
	IsParticipant(ctx context.Context, profileID, roomID string) (bool, error)
}

// Observer receives relay lifecycle notifications, typically for metrics.
type Observer interface {
	ClientRegistered()
	ClientUnregistered()
	DeliveryDropped(n int)
}

// Options configures a Hub.
type Options struct {
	// Verifier is consulted on join and relay when VerifyMembership is set.
	Verifier         MembershipVerifier
	VerifyMembership bool
	Observer         Observer
	Logger           *zerolog.Logger
}

type clientCommand struct {
	client *Client
	cmd    *Command
	// rejected is set when the command failed a check outside the loop.
	rejected *CoreError
}

type publication struct {
	room     string
	message  Message
	snapshot RoomSnapshot
}

// Hub owns the room channel table. All mutation happens on the goroutine
// running Run.
type Hub struct {
	opts Options
	log  zerolog.Logger

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	publish    chan publication
	stopped    chan struct{}

	clients  map[*Client]struct{}
	channels map[string]*channel
}

// NewHub creates a relay hub. Run must be started before clients register.
func NewHub(opts Options) *Hub {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Hub{
		opts:       opts,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
		publish:    make(chan publication, 64),
		stopped:    make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		channels:   make(map[string]*channel),
	}
}

// SetVerifier installs the membership verifier. It must be called before Run.
func (h *Hub) SetVerifier(v MembershipVerifier) {
	h.opts.Verifier = v
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.opts.Observer != nil {
				h.opts.Observer.ClientRegistered()
			}
			go h.pump(ctx, c)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case cc := <-h.commands:
			if _, ok := h.clients[cc.client]; !ok {
				continue
			}
			h.handleCommand(cc)
		case p := <-h.publish:
			h.deliver(p.room, &Event{
				Kind:     EventReceiveMessage,
				Room:     p.room,
				Message:  p.message,
				Snapshot: p.snapshot,
			})
		}
	}
}

// RegisterClient attaches a client to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient detaches a client and clears its channel membership. Safe
// to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Publish delivers a message to every client joined to roomID, the sender's
// own connections included. Delivery is best effort.
func (h *Hub) Publish(ctx context.Context, roomID string, msg Message, snapshot RoomSnapshot) {
	select {
	case h.publish <- publication{room: roomID, message: msg, snapshot: snapshot}:
	case <-h.stopped:
	case <-ctx.Done():
	}
}

// pump forwards client commands into the hub loop, running membership checks
// on the way so the loop never waits on storage.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			cc := clientCommand{client: c, cmd: cmd, rejected: h.check(ctx, c, cmd)}
			select {
			case h.commands <- cc:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) check(ctx context.Context, c *Client, cmd *Command) *CoreError {
	if cmd.Kind == CommandLeaveRoom {
		return nil
	}
	if cmd.Room == "" {
		return coreError(ErrCodeBadRequest, ErrMissingRoom.Error())
	}
	if !h.opts.VerifyMembership || h.opts.Verifier == nil {
		return nil
	}
	if c.Anonymous() {
		return coreError(ErrCodeNotParticipant, ErrNotParticipant.Error())
	}
	ok, err := h.opts.Verifier.IsParticipant(ctx, c.ProfileID, cmd.Room)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Str("room", cmd.Room).Msg("verify membership")
		return coreError(ErrCodeInternal, "membership check failed")
	}
	if !ok {
		return coreError(ErrCodeNotParticipant, ErrNotParticipant.Error())
	}
	return nil
}

func (h *Hub) handleCommand(cc clientCommand) {
	c, cmd := cc.client, cc.cmd
	if cc.rejected != nil {
		h.sendTo(c, &Event{Kind: EventError, Room: cmd.Room, Error: cc.rejected})
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(c, cmd.Room)
	case CommandLeaveRoom:
		h.leave(c)
	case CommandRelayMessage:
		h.deliver(cmd.Room, &Event{
			Kind:     EventReceiveMessage,
			Room:     cmd.Room,
			Message:  cmd.Message,
			Snapshot: cmd.Snapshot,
		})
	default:
		h.sendTo(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) join(c *Client, room string) {
	if c.room != room {
		h.leave(c)
		ch, ok := h.channels[room]
		if !ok {
			ch = newChannel(room)
			h.channels[room] = ch
		}
		ch.add(c)
		c.room = room
		h.log.Debug().Str("client_id", c.ID).Str("room", room).Msg("client joined")
	}
	h.sendTo(c, &Event{Kind: EventJoined, Room: room})
}

func (h *Hub) leave(c *Client) {
	if c.room == "" {
		return
	}
	if ch, ok := h.channels[c.room]; ok {
		ch.remove(c)
		if ch.empty() {
			delete(h.channels, c.room)
		}
	}
	c.room = ""
}

func (h *Hub) drop(c *Client) {
	h.leave(c)
	delete(h.clients, c)
	close(c.done)
	close(c.Events)
	if h.opts.Observer != nil {
		h.opts.Observer.ClientUnregistered()
	}
}

func (h *Hub) deliver(room string, ev *Event) {
	ch, ok := h.channels[room]
	if !ok {
		return
	}
	if dropped := ch.broadcast(ev); dropped > 0 {
		h.log.Warn().Str("room", room).Int("dropped", dropped).Msg("slow consumers skipped")
		if h.opts.Observer != nil {
			h.opts.Observer.DeliveryDropped(dropped)
		}
	}
}

func (h *Hub) sendTo(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		if h.opts.Observer != nil {
			h.opts.Observer.DeliveryDropped(1)
		}
	}
}
