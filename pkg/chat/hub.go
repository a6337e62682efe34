// Package chat implements the hub that owns every live connection and
// authenticated session, and the websocket endpoints feeding it.
//
// All three tables (connections, users, moderation) are mutated only on the
// Run goroutine; endpoints talk to the hub through its event channel and the
// hub talks back through each connection's buffered send channel.
package chat

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid"
	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/auth"
	"github.com/suprohub/axochat-server/pkg/config"
	"github.com/suprohub/axochat-server/pkg/moderation"
	"github.com/suprohub/axochat-server/pkg/packet"
	"github.com/suprohub/axochat-server/pkg/ratelimit"
)

const statsPeriod = 60 * time.Second

// User is the authenticated binding of a connection.
type User struct {
	auth.UserInfo
	AllowMessages bool
}

// connection is the hub's record of one endpoint.
type connection struct {
	send chan packet.ClientPacket

	// pending Mojang challenge; empty unless the connection is mid-handshake
	sessionHash string

	user *User
}

// userSession is the hub's per-identity bookkeeping. It exists exactly while
// the user has at least one logged-in connection.
type userSession struct {
	limiter     *ratelimit.Limiter
	connections map[packet.ConnID]struct{}
}

// Hub routes packets between connections and enforces auth, rate limits, and
// bans.
type Hub struct {
	cfg      config.Config
	store    *moderation.Store
	auth     *auth.Authenticator // nil when no auth section is configured
	verifier auth.SessionVerifier

	events   chan event
	instance string

	// owned by the Run goroutine
	nextID      packet.ConnID
	connections map[packet.ConnID]*connection
	users       map[string]*userSession
}

// NewHub builds a hub. authenticator may be nil; store and verifier must not
// be.
func NewHub(cfg config.Config, store *moderation.Store, authenticator *auth.Authenticator, verifier auth.SessionVerifier) *Hub {
	return &Hub{
		cfg:         cfg,
		store:       store,
		auth:        authenticator,
		verifier:    verifier,
		events:      make(chan event, 64),
		instance:    shortuuid.New(),
		connections: make(map[packet.ConnID]*connection),
		users:       make(map[string]*userSession),
	}
}

type event interface{}

type connectEvent struct {
	send  chan packet.ClientPacket
	reply chan packet.ConnID
}

type disconnectEvent struct {
	id packet.ConnID
}

type packetEvent struct {
	id  packet.ConnID
	pkt packet.ServerPacket
}

// mojangVerifiedEvent re-enters the hub when a hasJoined call finishes.
type mojangVerifiedEvent struct {
	id      packet.ConnID
	user    User
	profile *auth.SessionProfile
	err     error
}

type doEvent struct {
	fn func()
}

// Run processes events until ctx is cancelled. It must run exactly once.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(statsPeriod)
	defer ticker.Stop()

	log.Info().Str("hub", h.instance).Msg("hub-started")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.dispatch(ev)
		case <-ticker.C:
			log.Info().Str("hub", h.instance).
				Int("num-conns", len(h.connections)).
				Int("num-users", len(h.users)).Msg("conn-stats")
		}
	}
}

func (h *Hub) dispatch(ev event) {
	switch ev := ev.(type) {
	case connectEvent:
		ev.reply <- h.addConnection(ev.send)
	case disconnectEvent:
		h.removeConnection(ev.id)
	case packetEvent:
		h.handlePacket(ev.id, ev.pkt)
	case mojangVerifiedEvent:
		h.finishLoginMojang(ev)
	case doEvent:
		ev.fn()
	}
}

// Connect registers a connection's outbound queue and returns its id. The hub
// owns the channel from here on and closes it when the connection is removed.
func (h *Hub) Connect(send chan packet.ClientPacket) packet.ConnID {
	reply := make(chan packet.ConnID, 1)
	h.events <- connectEvent{send: send, reply: reply}
	return <-reply
}

// Disconnect removes a connection. Safe to call after the hub already dropped
// the record.
func (h *Hub) Disconnect(id packet.ConnID) {
	h.events <- disconnectEvent{id: id}
}

// Handle forwards a decoded server-bound packet to the hub. Packets from one
// connection are processed in the order they arrive here.
func (h *Hub) Handle(id packet.ConnID, pkt packet.ServerPacket) {
	h.events <- packetEvent{id: id, pkt: pkt}
}

// do runs fn on the hub goroutine and waits for it. Tests use it to observe
// table state without racing the loop.
func (h *Hub) do(fn func()) {
	done := make(chan struct{})
	h.events <- doEvent{fn: func() {
		fn()
		close(done)
	}}
	<-done
}

func (h *Hub) addConnection(send chan packet.ClientPacket) packet.ConnID {
	h.nextID++
	id := h.nextID
	h.connections[id] = &connection{send: send}
	log.Debug().Stringer("conn", id).Msg("connection-registered")
	return id
}

func (h *Hub) removeConnection(id packet.ConnID) {
	conn, ok := h.connections[id]
	if !ok {
		// Disconnect raced a ban or a full-queue drop.
		return
	}
	delete(h.connections, id)
	close(conn.send)
	if conn.user != nil {
		h.detachUser(id, conn.user.Name)
	}
	log.Debug().Stringer("conn", id).Msg("connection-removed")
}

func (h *Hub) detachUser(id packet.ConnID, name string) {
	sess, ok := h.users[name]
	if !ok {
		return
	}
	delete(sess.connections, id)
	if len(sess.connections) == 0 {
		delete(h.users, name)
	}
}

func (h *Hub) handlePacket(id packet.ConnID, pkt packet.ServerPacket) {
	conn, ok := h.connections[id]
	if !ok {
		log.Debug().Stringer("conn", id).Msg("packet-from-gone-connection")
		return
	}

	switch p := pkt.(type) {
	case *packet.Message:
		h.handleMessage(id, conn, p)
	case *packet.PrivateMessage:
		h.handlePrivateMessage(id, conn, p)
	case *packet.RequestMojangInfo:
		h.handleRequestMojangInfo(id, conn)
	case *packet.LoginMojang:
		h.handleLoginMojang(id, conn, p)
	case *packet.RequestJWT:
		h.handleRequestJWT(id, conn)
	case *packet.LoginJWT:
		h.handleLoginJWT(id, conn, p)
	case *packet.BanUser:
		h.handleBanUser(id, conn, p)
	case *packet.UnbanUser:
		h.handleUnbanUser(id, conn, p)
	case *packet.RequestUserCount:
		h.handleRequestUserCount(id, conn)
	default:
		log.Warn().Stringer("conn", id).Msgf("unhandled packet type %T", pkt)
	}
}

// send queues a packet without blocking the loop; a connection that cannot
// keep up is dropped.
func (h *Hub) send(id packet.ConnID, conn *connection, pkt packet.ClientPacket) {
	select {
	case conn.send <- pkt:
	default:
		log.Debug().Stringer("conn", id).Msg("send-queue-full")
		h.removeConnection(id)
	}
}

func (h *Hub) sendError(id packet.ConnID, conn *connection, cerr packet.ClientError) {
	h.send(id, conn, &packet.Error{Message: cerr})
}

// checkSender gates every outgoing message: the connection must be logged in
// and the identity must not be banned.
func (h *Hub) checkSender(conn *connection) (*User, *packet.ClientError) {
	if conn.user == nil {
		return nil, &packet.ErrNotLoggedIn
	}
	if h.store.IsBanned(conn.user.UUID) {
		return nil, &packet.ErrBanned
	}
	return conn.user, nil
}

// completeLogin binds a verified identity to a connection.
func (h *Hub) completeLogin(id packet.ConnID, conn *connection, user User) {
	sess, ok := h.users[user.Name]
	if !ok {
		sess = &userSession{
			limiter:     ratelimit.New(h.cfg.Message.Capacity, time.Duration(h.cfg.Message.RegenTime)),
			connections: make(map[packet.ConnID]struct{}),
		}
		h.users[user.Name] = sess
	}
	sess.connections[id] = struct{}{}
	conn.user = &user
	conn.sessionHash = ""

	log.Info().Stringer("conn", id).Str("name", user.Name).
		Str("uuid", user.UUID.String()).Msg("logged-in")
	h.send(id, conn, &packet.Success{Reason: packet.ReasonLogin})
}
