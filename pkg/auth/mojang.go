package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// DefaultSessionServerURL is Mojang's hasJoined endpoint.
const DefaultSessionServerURL = "https://sessionserver.mojang.com/session/minecraft/hasJoined"

// SessionProfile is the part of the session server response the hub cares
// about. The id is a hex uuid, with or without dashes.
type SessionProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionVerifier checks that a user joined with the given server id. Any
// error collapses to a failed login for the client.
type SessionVerifier interface {
	HasJoined(ctx context.Context, username, serverID string) (*SessionProfile, error)
}

// MojangVerifier is the production SessionVerifier backed by Mojang's
// session server.
type MojangVerifier struct {
	Client *http.Client
	URL    string
}

// NewMojangVerifier returns a verifier against the real session server using
// the default HTTP client.
func NewMojangVerifier() *MojangVerifier {
	return &MojangVerifier{Client: http.DefaultClient, URL: DefaultSessionServerURL}
}

func (v *MojangVerifier) HasJoined(ctx context.Context, username, serverID string) (*SessionProfile, error) {
	u, err := url.Parse(v.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing session server url: %w", err)
	}
	q := u.Query()
	q.Set("username", username)
	q.Set("serverId", serverID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building hasJoined request: %w", err)
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling session server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Str("status", resp.Status).Str("username", username).Msg("session-server-rejected")
		return nil, fmt.Errorf("session server returned %s", resp.Status)
	}

	var profile SessionProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding session server response: %w", err)
	}
	return &profile, nil
}
