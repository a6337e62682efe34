package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/auth"
	"github.com/suprohub/axochat-server/pkg/packet"
)

func (h *Hub) handleRequestMojangInfo(id packet.ConnID, conn *connection) {
	if conn.user != nil {
		h.sendError(id, conn, packet.ErrAlreadyLoggedIn)
		return
	}

	hash, err := auth.GenerateSessionHash()
	if err != nil {
		log.Error().Err(err).Stringer("conn", id).Msg("generating-session-hash")
		h.sendError(id, conn, packet.ErrInternal)
		return
	}
	conn.sessionHash = hash
	h.send(id, conn, &packet.MojangInfo{SessionHash: hash})
}

func (h *Hub) handleLoginMojang(id packet.ConnID, conn *connection, p *packet.LoginMojang) {
	if conn.user != nil {
		log.Info().Stringer("conn", id).Msg("tried-to-log-in-twice")
		h.sendError(id, conn, packet.ErrAlreadyLoggedIn)
		return
	}
	if conn.sessionHash == "" {
		log.Info().Stringer("conn", id).Msg("login-without-mojang-request")
		h.sendError(id, conn, packet.ErrMojangRequestMissing)
		return
	}

	// The nonce is consumed here, whether or not verification succeeds.
	serverID := conn.sessionHash
	conn.sessionHash = ""

	user := User{
		UserInfo:      auth.UserInfo{Name: p.Name, UUID: p.UUID},
		AllowMessages: p.AllowMessages,
	}
	// The hasJoined call must not stall the loop; it re-enters as an event
	// carrying the connection id by value.
	go func() {
		profile, err := h.verifier.HasJoined(context.Background(), p.Name, serverID)
		h.events <- mojangVerifiedEvent{id: id, user: user, profile: profile, err: err}
	}()
}

func (h *Hub) finishLoginMojang(ev mojangVerifiedEvent) {
	conn, ok := h.connections[ev.id]
	if !ok || conn.user != nil {
		// Connection went away, or logged in some other way, while the
		// verification was in flight.
		return
	}

	if ev.err != nil {
		log.Warn().Err(ev.err).Stringer("conn", ev.id).Msg("mojang-verification-failed")
		h.sendError(ev.id, conn, packet.ErrLoginFailed)
		return
	}

	mojangUUID, err := uuid.Parse(ev.profile.ID)
	if err != nil {
		log.Warn().Err(err).Stringer("conn", ev.id).Str("id", ev.profile.ID).
			Msg("unparsable-session-server-uuid")
		h.sendError(ev.id, conn, packet.ErrInternal)
		return
	}
	if mojangUUID != ev.user.UUID {
		log.Info().Stringer("conn", ev.id).Str("claimed", ev.user.UUID.String()).
			Str("actual", mojangUUID.String()).Msg("uuid-mismatch")
		h.sendError(ev.id, conn, packet.ErrInvalidID)
		return
	}

	h.completeLogin(ev.id, conn, ev.user)
}
