package packet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeServerPackets(t *testing.T) {
	aliceUUID := uuid.MustParse("d2e9b8c1-3f44-4b7a-9c5e-8a1f2b3c4d5e")

	tests := []struct {
		name string
		data string
		want ServerPacket
	}{
		{
			name: "Message",
			data: `{"m":"Message","c":{"content":"hi"}}`,
			want: &Message{Content: "hi"},
		},
		{
			name: "PrivateMessage",
			data: `{"m":"PrivateMessage","c":{"receiver":"Bob","content":"hey"}}`,
			want: &PrivateMessage{Receiver: "Bob", Content: "hey"},
		},
		{
			name: "RequestMojangInfo",
			data: `{"m":"RequestMojangInfo"}`,
			want: &RequestMojangInfo{},
		},
		{
			name: "LoginMojang",
			data: `{"m":"LoginMojang","c":{"name":"Alice","uuid":"d2e9b8c1-3f44-4b7a-9c5e-8a1f2b3c4d5e","allow_messages":true}}`,
			want: &LoginMojang{Name: "Alice", UUID: aliceUUID, AllowMessages: true},
		},
		{
			name: "RequestJWT",
			data: `{"m":"RequestJWT"}`,
			want: &RequestJWT{},
		},
		{
			name: "LoginJWT",
			data: `{"m":"LoginJWT","c":{"token":"abc.def.ghi","allow_messages":false}}`,
			want: &LoginJWT{Token: "abc.def.ghi"},
		},
		{
			name: "BanUser",
			data: `{"m":"BanUser","c":{"uuid":"d2e9b8c1-3f44-4b7a-9c5e-8a1f2b3c4d5e"}}`,
			want: &BanUser{UUID: aliceUUID},
		},
		{
			name: "UnbanUser",
			data: `{"m":"UnbanUser","c":{"uuid":"d2e9b8c1-3f44-4b7a-9c5e-8a1f2b3c4d5e"}}`,
			want: &UnbanUser{UUID: aliceUUID},
		},
		{
			name: "RequestUserCount",
			data: `{"m":"RequestUserCount"}`,
			want: &RequestUserCount{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `hello there`},
		{"unknown variant", `{"m":"FormatHardDrive","c":{}}`},
		{"missing body", `{"m":"Message"}`},
		{"wrong body type", `{"m":"Message","c":{"content":42}}`},
		{"bad uuid", `{"m":"BanUser","c":{"uuid":"not-a-uuid"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestEncodeClientPackets(t *testing.T) {
	tests := []struct {
		name string
		pkt  ClientPacket
		want string
	}{
		{
			name: "ChatMessage",
			pkt:  &ChatMessage{AuthorID: 7, AuthorName: "Alice", Content: "hi"},
			want: `{"m":"Message","c":{"author_id":7,"author_name":"Alice","content":"hi"}}`,
		},
		{
			name: "PrivateChatMessage",
			pkt:  &PrivateChatMessage{AuthorID: 7, AuthorName: "Alice", Content: "psst"},
			want: `{"m":"PrivateMessage","c":{"author_id":7,"author_name":"Alice","content":"psst"}}`,
		},
		{
			name: "MojangInfo",
			pkt:  &MojangInfo{SessionHash: "f00ba4"},
			want: `{"m":"MojangInfo","c":{"session_hash":"f00ba4"}}`,
		},
		{
			name: "UserCount",
			pkt:  &UserCount{Connections: 10, LoggedIn: 4},
			want: `{"m":"UserCount","c":{"connections":10,"logged_in":4}}`,
		},
		{
			name: "Success",
			pkt:  &Success{Reason: ReasonBan},
			want: `{"m":"Success","c":{"reason":"Ban"}}`,
		},
		{
			name: "Error",
			pkt:  &Error{Message: ErrNotLoggedIn},
			want: `{"m":"Error","c":{"message":"NotLoggedIn"}}`,
		},
		{
			name: "Error with character",
			pkt:  &Error{Message: InvalidCharacter('\n')},
			want: `{"m":"Error","c":{"message":{"InvalidCharacter":"\n"}}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.pkt)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestServerPacketRoundTrip(t *testing.T) {
	pkts := []ServerPacket{
		&Message{Content: "hi"},
		&PrivateMessage{Receiver: "Bob", Content: "hey"},
		&RequestMojangInfo{},
		&LoginMojang{Name: "Alice", UUID: uuid.New(), AllowMessages: true},
		&RequestJWT{},
		&LoginJWT{Token: "tok"},
		&BanUser{UUID: uuid.New()},
		&UnbanUser{UUID: uuid.New()},
		&RequestUserCount{},
	}

	for _, pkt := range pkts {
		data, err := EncodeServer(pkt)
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err, "decoding %s", data)
		assert.Equal(t, pkt, got)
	}
}

func TestClientPacketRoundTrip(t *testing.T) {
	pkts := []ClientPacket{
		&ChatMessage{AuthorID: 1, AuthorName: "Alice", Content: "hi"},
		&PrivateChatMessage{AuthorID: 1, AuthorName: "Alice", Content: "psst"},
		&MojangInfo{SessionHash: "abc123"},
		&NewJWT{Token: "tok"},
		&UserCount{Connections: 2, LoggedIn: 1},
		&Success{Reason: ReasonLogin},
		&Error{Message: ErrRateLimited},
		&Error{Message: InvalidCharacter('\x07')},
	}

	for _, pkt := range pkts {
		data, err := Encode(pkt)
		require.NoError(t, err)
		got, err := DecodeClient(data)
		require.NoError(t, err, "decoding %s", data)
		assert.Equal(t, pkt, got)
	}
}

func TestClientErrorMessages(t *testing.T) {
	assert.Equal(t, "not logged in", ErrNotLoggedIn.Error())
	assert.Equal(t, "rate limited", ErrRateLimited.Error())
	assert.Equal(t, "message contained invalid character: `\x07`", InvalidCharacter('\x07').Error())
}

func TestConnIDString(t *testing.T) {
	assert.Equal(t, "000000ab", ConnID(0xab).String())
	assert.Equal(t, "deadbeef", ConnID(0xdeadbeef).String())
}
