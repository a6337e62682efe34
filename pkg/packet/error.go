package packet

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the user-visible failure kinds.
type Kind string

const (
	KindNotSupported              Kind = "NotSupported"
	KindLoginFailed               Kind = "LoginFailed"
	KindNotLoggedIn               Kind = "NotLoggedIn"
	KindAlreadyLoggedIn           Kind = "AlreadyLoggedIn"
	KindMojangRequestMissing      Kind = "MojangRequestMissing"
	KindNotPermitted              Kind = "NotPermitted"
	KindNotBanned                 Kind = "NotBanned"
	KindBanned                    Kind = "Banned"
	KindRateLimited               Kind = "RateLimited"
	KindPrivateMessageNotAccepted Kind = "PrivateMessageNotAccepted"
	KindEmptyMessage              Kind = "EmptyMessage"
	KindMessageTooLong            Kind = "MessageTooLong"
	KindInvalidCharacter          Kind = "InvalidCharacter"
	KindInvalidID                 Kind = "InvalidId"
	KindInternal                  Kind = "Internal"
)

// ClientError is a failure reported to the client inside an Error packet.
// Every kind serializes as its bare name; InvalidCharacter carries the
// offending character and serializes as {"InvalidCharacter": "<ch>"}.
type ClientError struct {
	Kind Kind
	Char rune // only set for KindInvalidCharacter
}

var (
	ErrNotSupported              = ClientError{Kind: KindNotSupported}
	ErrLoginFailed               = ClientError{Kind: KindLoginFailed}
	ErrNotLoggedIn               = ClientError{Kind: KindNotLoggedIn}
	ErrAlreadyLoggedIn           = ClientError{Kind: KindAlreadyLoggedIn}
	ErrMojangRequestMissing      = ClientError{Kind: KindMojangRequestMissing}
	ErrNotPermitted              = ClientError{Kind: KindNotPermitted}
	ErrNotBanned                 = ClientError{Kind: KindNotBanned}
	ErrBanned                    = ClientError{Kind: KindBanned}
	ErrRateLimited               = ClientError{Kind: KindRateLimited}
	ErrPrivateMessageNotAccepted = ClientError{Kind: KindPrivateMessageNotAccepted}
	ErrEmptyMessage              = ClientError{Kind: KindEmptyMessage}
	ErrMessageTooLong            = ClientError{Kind: KindMessageTooLong}
	ErrInvalidID                 = ClientError{Kind: KindInvalidID}
	ErrInternal                  = ClientError{Kind: KindInternal}
)

// InvalidCharacter names the first offending character of a rejected message.
func InvalidCharacter(ch rune) ClientError {
	return ClientError{Kind: KindInvalidCharacter, Char: ch}
}

func (e ClientError) Error() string {
	switch e.Kind {
	case KindNotSupported:
		return "method not supported"
	case KindLoginFailed:
		return "login failed"
	case KindNotLoggedIn:
		return "not logged in"
	case KindAlreadyLoggedIn:
		return "already logged in"
	case KindMojangRequestMissing:
		return "mojang request missing"
	case KindNotPermitted:
		return "not permitted"
	case KindNotBanned:
		return "not banned"
	case KindBanned:
		return "banned"
	case KindRateLimited:
		return "rate limited"
	case KindPrivateMessageNotAccepted:
		return "private message not accepted"
	case KindEmptyMessage:
		return "empty message"
	case KindMessageTooLong:
		return "message was too long"
	case KindInvalidCharacter:
		return fmt.Sprintf("message contained invalid character: `%c`", e.Char)
	case KindInvalidID:
		return "invalid id"
	case KindInternal:
		return "internal error"
	}
	return string(e.Kind)
}

func (e ClientError) MarshalJSON() ([]byte, error) {
	if e.Kind == KindInvalidCharacter {
		return json.Marshal(map[Kind]string{KindInvalidCharacter: string(e.Char)})
	}
	return json.Marshal(string(e.Kind))
}

func (e *ClientError) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*e = ClientError{Kind: Kind(kind)}
		return nil
	}
	var tagged map[Kind]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	ch, ok := tagged[KindInvalidCharacter]
	if !ok || len(ch) == 0 {
		return fmt.Errorf("malformed client error %s", data)
	}
	*e = InvalidCharacter([]rune(ch)[0])
	return nil
}
