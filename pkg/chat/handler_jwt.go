package chat

import (
	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/packet"
)

func (h *Hub) handleLoginJWT(id packet.ConnID, conn *connection, p *packet.LoginJWT) {
	if h.auth == nil {
		log.Info().Stringer("conn", id).Msg("jwt-login-not-supported")
		h.sendError(id, conn, packet.ErrNotSupported)
		return
	}
	if conn.user != nil {
		log.Info().Stringer("conn", id).Msg("tried-to-log-in-twice")
		h.sendError(id, conn, packet.ErrAlreadyLoggedIn)
		return
	}

	info, err := h.auth.Verify(p.Token)
	if err != nil {
		log.Info().Err(err).Stringer("conn", id).Msg("jwt-login-failed")
		h.sendError(id, conn, packet.ErrLoginFailed)
		return
	}

	h.completeLogin(id, conn, User{UserInfo: info, AllowMessages: p.AllowMessages})
}

func (h *Hub) handleRequestJWT(id packet.ConnID, conn *connection) {
	if h.auth == nil {
		log.Info().Stringer("conn", id).Msg("jwt-mint-not-supported")
		h.sendError(id, conn, packet.ErrNotSupported)
		return
	}
	if conn.user == nil {
		h.sendError(id, conn, packet.ErrNotLoggedIn)
		return
	}

	token, err := h.auth.NewToken(conn.user.UserInfo)
	if err != nil {
		log.Warn().Err(err).Stringer("conn", id).Msg("minting-token")
		h.sendError(id, conn, packet.ErrInternal)
		return
	}
	h.send(id, conn, &packet.NewJWT{Token: token})
}
