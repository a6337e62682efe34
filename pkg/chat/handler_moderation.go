package chat

import (
	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/packet"
)

// checkModerator gates the moderation packets: logged in and listed as a
// moderator.
func (h *Hub) checkModerator(conn *connection) *packet.ClientError {
	if conn.user == nil {
		return &packet.ErrNotLoggedIn
	}
	if !h.store.IsModerator(conn.user.UUID) {
		return &packet.ErrNotPermitted
	}
	return nil
}

func (h *Hub) handleBanUser(id packet.ConnID, conn *connection, p *packet.BanUser) {
	if cerr := h.checkModerator(conn); cerr != nil {
		log.Info().Stringer("conn", id).Msg("ban-not-permitted")
		h.sendError(id, conn, *cerr)
		return
	}

	if err := h.store.Ban(p.UUID); err != nil {
		// The in-memory ban stands even when the rewrite fails.
		log.Error().Err(err).Str("uuid", p.UUID.String()).Msg("persisting-ban")
	}
	for cid, c := range h.connections {
		if c.user != nil && c.user.UUID == p.UUID {
			log.Info().Stringer("conn", cid).Str("name", c.user.Name).Msg("kicking-banned-user")
			h.removeConnection(cid)
		}
	}

	// The moderator's own connection is gone if they banned themselves.
	if _, ok := h.connections[id]; ok {
		h.send(id, conn, &packet.Success{Reason: packet.ReasonBan})
	}
}

func (h *Hub) handleUnbanUser(id packet.ConnID, conn *connection, p *packet.UnbanUser) {
	if cerr := h.checkModerator(conn); cerr != nil {
		log.Info().Stringer("conn", id).Msg("unban-not-permitted")
		h.sendError(id, conn, *cerr)
		return
	}

	removed, err := h.store.Unban(p.UUID)
	if err != nil {
		log.Error().Err(err).Str("uuid", p.UUID.String()).Msg("persisting-unban")
	}
	if !removed {
		h.sendError(id, conn, packet.ErrNotBanned)
		return
	}
	h.send(id, conn, &packet.Success{Reason: packet.ReasonUnban})
}

func (h *Hub) handleRequestUserCount(id packet.ConnID, conn *connection) {
	if cerr := h.checkModerator(conn); cerr != nil {
		log.Info().Stringer("conn", id).Msg("user-count-not-permitted")
		h.sendError(id, conn, *cerr)
		return
	}

	h.send(id, conn, &packet.UserCount{
		Connections: uint32(len(h.connections)),
		LoggedIn:    uint32(len(h.users)),
	})
}
