// Package packet defines the JSON wire protocol spoken over websocket text
// frames.
//
// Every packet is a tagged envelope {"m": "<Variant>", "c": {...}} where "m"
// names the variant and "c" carries its fields. Variants without fields omit
// "c". UUIDs are serialized canonically; connection ids are serialized as
// plain integers.
package packet

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ConnID identifies a single connection for the lifetime of the hub.
// Ids are assigned monotonically and never reused.
type ConnID uint64

// String renders the id as the zero-padded hex tag used in logs.
func (id ConnID) String() string {
	return fmt.Sprintf("%08x", uint64(id))
}

// ServerPacket is a packet sent by a client to the server.
type ServerPacket interface {
	variant() string
}

// Message requests a public broadcast to all logged-in connections.
type Message struct {
	Content string `json:"content"`
}

// PrivateMessage requests a directed message to all accepting connections of
// the named user.
type PrivateMessage struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

// RequestMojangInfo asks the server for a session hash to send to Mojang.
type RequestMojangInfo struct{}

// LoginMojang finishes the Mojang handshake; the server checks the claimed
// uuid against the session server.
type LoginMojang struct {
	Name          string    `json:"name"`
	UUID          uuid.UUID `json:"uuid"`
	AllowMessages bool      `json:"allow_messages"`
}

// RequestJWT asks for a fresh token for the currently logged-in user.
type RequestJWT struct{}

// LoginJWT logs in with a locally-issued signed token.
type LoginJWT struct {
	Token         string `json:"token"`
	AllowMessages bool   `json:"allow_messages"`
}

// BanUser bans a uuid and kicks its connections. Moderators only.
type BanUser struct {
	UUID uuid.UUID `json:"uuid"`
}

// UnbanUser lifts a ban. Moderators only.
type UnbanUser struct {
	UUID uuid.UUID `json:"uuid"`
}

// RequestUserCount asks for connection statistics. Moderators only.
type RequestUserCount struct{}

func (Message) variant() string           { return "Message" }
func (PrivateMessage) variant() string    { return "PrivateMessage" }
func (RequestMojangInfo) variant() string { return "RequestMojangInfo" }
func (LoginMojang) variant() string       { return "LoginMojang" }
func (RequestJWT) variant() string        { return "RequestJWT" }
func (LoginJWT) variant() string          { return "LoginJWT" }
func (BanUser) variant() string           { return "BanUser" }
func (UnbanUser) variant() string         { return "UnbanUser" }
func (RequestUserCount) variant() string  { return "RequestUserCount" }

// ClientPacket is a packet sent by the server to a client.
type ClientPacket interface {
	clientVariant() string
}

// ChatMessage is a public broadcast. Wire variant "Message".
type ChatMessage struct {
	AuthorID   ConnID `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// PrivateChatMessage is a directed message. Wire variant "PrivateMessage".
type PrivateChatMessage struct {
	AuthorID   ConnID `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// MojangInfo carries the session hash the client forwards to Mojang's join
// endpoint.
type MojangInfo struct {
	SessionHash string `json:"session_hash"`
}

// NewJWT carries a freshly minted login token.
type NewJWT struct {
	Token string `json:"token"`
}

// UserCount reports connection statistics.
type UserCount struct {
	Connections uint32 `json:"connections"`
	LoggedIn    uint32 `json:"logged_in"`
}

// SuccessReason says which operation a Success packet acknowledges.
type SuccessReason string

const (
	ReasonLogin SuccessReason = "Login"
	ReasonBan   SuccessReason = "Ban"
	ReasonUnban SuccessReason = "Unban"
)

// Success acknowledges a login, ban, or unban.
type Success struct {
	Reason SuccessReason `json:"reason"`
}

// Error reports a ClientError to the client.
type Error struct {
	Message ClientError `json:"message"`
}

func (ChatMessage) clientVariant() string        { return "Message" }
func (PrivateChatMessage) clientVariant() string { return "PrivateMessage" }
func (MojangInfo) clientVariant() string         { return "MojangInfo" }
func (NewJWT) clientVariant() string             { return "NewJWT" }
func (UserCount) clientVariant() string          { return "UserCount" }
func (Success) clientVariant() string            { return "Success" }
func (Error) clientVariant() string              { return "Error" }

type envelope struct {
	M string          `json:"m"`
	C json.RawMessage `json:"c,omitempty"`
}

// Decode parses a server-bound packet from a text frame.
func Decode(data []byte) (ServerPacket, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding packet envelope: %w", err)
	}

	var pkt ServerPacket
	switch env.M {
	case "Message":
		pkt = &Message{}
	case "PrivateMessage":
		pkt = &PrivateMessage{}
	case "RequestMojangInfo":
		return &RequestMojangInfo{}, nil
	case "LoginMojang":
		pkt = &LoginMojang{}
	case "RequestJWT":
		return &RequestJWT{}, nil
	case "LoginJWT":
		pkt = &LoginJWT{}
	case "BanUser":
		pkt = &BanUser{}
	case "UnbanUser":
		pkt = &UnbanUser{}
	case "RequestUserCount":
		return &RequestUserCount{}, nil
	default:
		return nil, fmt.Errorf("unknown packet variant %q", env.M)
	}

	if len(env.C) == 0 {
		return nil, fmt.Errorf("packet %q is missing its body", env.M)
	}
	if err := json.Unmarshal(env.C, pkt); err != nil {
		return nil, fmt.Errorf("decoding %q body: %w", env.M, err)
	}
	return pkt, nil
}

// Encode serializes a client-bound packet for a text frame. It only fails on
// packets that are not JSON-encodable, which is a programmer error.
func Encode(pkt ClientPacket) ([]byte, error) {
	body, err := json.Marshal(pkt)
	if err != nil {
		return nil, fmt.Errorf("encoding %q body: %w", pkt.clientVariant(), err)
	}
	return json.Marshal(envelope{M: pkt.clientVariant(), C: body})
}

// EncodeServer serializes a server-bound packet. Chat clients and tests use
// it; the server itself only decodes this direction.
func EncodeServer(pkt ServerPacket) ([]byte, error) {
	var body json.RawMessage
	switch pkt.(type) {
	case *RequestMojangInfo, *RequestJWT, *RequestUserCount,
		RequestMojangInfo, RequestJWT, RequestUserCount:
	default:
		var err error
		body, err = json.Marshal(pkt)
		if err != nil {
			return nil, fmt.Errorf("encoding %q body: %w", pkt.variant(), err)
		}
	}
	return json.Marshal(envelope{M: pkt.variant(), C: body})
}

// DecodeClient parses a client-bound packet. The counterpart of EncodeServer
// for chat clients and tests.
func DecodeClient(data []byte) (ClientPacket, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding packet envelope: %w", err)
	}

	var pkt ClientPacket
	switch env.M {
	case "Message":
		pkt = &ChatMessage{}
	case "PrivateMessage":
		pkt = &PrivateChatMessage{}
	case "MojangInfo":
		pkt = &MojangInfo{}
	case "NewJWT":
		pkt = &NewJWT{}
	case "UserCount":
		pkt = &UserCount{}
	case "Success":
		pkt = &Success{}
	case "Error":
		pkt = &Error{}
	default:
		return nil, fmt.Errorf("unknown packet variant %q", env.M)
	}

	if len(env.C) == 0 {
		return nil, fmt.Errorf("packet %q is missing its body", env.M)
	}
	if err := json.Unmarshal(env.C, pkt); err != nil {
		return nil, fmt.Errorf("decoding %q body: %w", env.M, err)
	}
	return pkt, nil
}
