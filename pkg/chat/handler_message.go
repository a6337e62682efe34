package chat

import (
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/suprohub/axochat-server/pkg/packet"
)

func (h *Hub) handleMessage(id packet.ConnID, conn *connection, p *packet.Message) {
	user, cerr := h.checkSender(conn)
	if cerr != nil {
		h.sendError(id, conn, *cerr)
		return
	}
	if cerr := validateContent(p.Content, h.cfg.Message.MaxLength); cerr != nil {
		h.sendError(id, conn, *cerr)
		return
	}
	if !h.users[user.Name].limiter.Allow() {
		log.Debug().Stringer("conn", id).Str("name", user.Name).Msg("rate-limited")
		h.sendError(id, conn, packet.ErrRateLimited)
		return
	}

	out := &packet.ChatMessage{
		AuthorID:   id,
		AuthorName: user.Name,
		Content:    p.Content,
	}
	// Broadcasts go to every logged-in connection, the sender included;
	// allow_messages only gates private messages.
	for cid, c := range h.connections {
		if c.user == nil {
			continue
		}
		h.send(cid, c, out)
	}
	log.Debug().Stringer("conn", id).Str("name", user.Name).Msg("broadcast")
}

func (h *Hub) handlePrivateMessage(id packet.ConnID, conn *connection, p *packet.PrivateMessage) {
	user, cerr := h.checkSender(conn)
	if cerr != nil {
		h.sendError(id, conn, *cerr)
		return
	}
	if cerr := validateContent(p.Content, h.cfg.Message.MaxLength); cerr != nil {
		h.sendError(id, conn, *cerr)
		return
	}

	sess, ok := h.users[p.Receiver]
	if !ok {
		h.sendError(id, conn, packet.ErrInvalidID)
		return
	}
	var recipients []packet.ConnID
	for cid := range sess.connections {
		if c := h.connections[cid]; c != nil && c.user != nil && c.user.AllowMessages {
			recipients = append(recipients, cid)
		}
	}
	if len(recipients) == 0 {
		h.sendError(id, conn, packet.ErrPrivateMessageNotAccepted)
		return
	}

	if !h.users[user.Name].limiter.Allow() {
		log.Debug().Stringer("conn", id).Str("name", user.Name).Msg("rate-limited")
		h.sendError(id, conn, packet.ErrRateLimited)
		return
	}

	out := &packet.PrivateChatMessage{
		AuthorID:   id,
		AuthorName: user.Name,
		Content:    p.Content,
	}
	for _, cid := range recipients {
		if c, ok := h.connections[cid]; ok {
			h.send(cid, c, out)
		}
	}
	log.Debug().Stringer("conn", id).Str("name", user.Name).
		Str("receiver", p.Receiver).Msg("private-message")
}

// validateContent applies the message content policy: no empty messages,
// at most maxLength bytes, and every rune must satisfy unicode.IsGraphic
// (printable letters, marks, numbers, punctuation, symbols, and ordinary
// space). All control characters, including tab and newline, are rejected.
func validateContent(content string, maxLength int) *packet.ClientError {
	if len(content) == 0 {
		return &packet.ErrEmptyMessage
	}
	if len(content) > maxLength {
		return &packet.ErrMessageTooLong
	}
	for _, r := range content {
		if !unicode.IsGraphic(r) {
			cerr := packet.InvalidCharacter(r)
			return &cerr
		}
	}
	return nil
}
