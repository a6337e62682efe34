package chat

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/packet"
)

var AllowedOrigins = []string{}

func init() {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			origin = strings.TrimSpace(origin)
			AllowedOrigins = append(AllowedOrigins, origin)
		}
	}
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 15 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 5 * time.Second

	// Maximum frame size allowed from peer. Larger than any packet around a
	// max-length message.
	maxFrameSize = 8192

	// Outbound queue depth; a connection that falls this far behind is
	// dropped.
	sendQueueSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		if len(AllowedOrigins) == 0 {
			return true
		}
		originHeader := r.Header.Get("Origin")
		for _, origin := range AllowedOrigins {
			if originHeader == origin {
				return true
			}
		}
		return false
	},
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound packets, owned by the hub once registered.
	send chan packet.ClientPacket

	id packet.ConnID
}

// readPump pumps decoded packets from the websocket connection to the hub.
//
// The application runs readPump in a per-connection goroutine; all reads
// happen here so there is at most one reader per connection. Ping frames are
// answered with pongs by gorilla's default handler without involving the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c.id)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Err(err).Stringer("conn", c.id).Msg("unexpected-close")
			}
			return
		}

		if msgType != websocket.TextMessage {
			// Not worth closing over; drop the frame and keep reading.
			log.Warn().Stringer("conn", c.id).Int("frame-type", msgType).Msg("non-text-frame-dropped")
			continue
		}

		pkt, err := packet.Decode(data)
		if err != nil {
			log.Warn().Err(err).Stringer("conn", c.id).Msg("could-not-decode-packet")
			continue
		}
		c.hub.Handle(c.id, pkt)
	}
}

// writePump pumps packets from the hub to the websocket connection.
//
// A goroutine running writePump is started for each connection; all writes
// happen here so there is at most one writer per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case pkt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel: removed, kicked, or banned.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := packet.Encode(pkt)
			if err != nil {
				log.Error().Err(err).Stringer("conn", c.id).Msg("could-not-encode-packet")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS handles websocket requests from peers. This runs in its own
// goroutine (the HTTP handler's).
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("upgrading-socket")
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan packet.ClientPacket, sendQueueSize),
	}
	client.id = hub.Connect(client.send)

	go client.writePump()
	go client.readPump()
	log.Debug().Stringer("conn", client.id).Str("remote", r.RemoteAddr).Msg("websocket-connected")
}
