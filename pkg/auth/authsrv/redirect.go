package authsrv

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/poacpm/api/pkg/auth"
	"github.com/poacpm/api/pkg/user"
)

// RedirectEncoder builds the outbound URL that hands the frontend the raw
// access token plus a base64 encoding of the public user payload.
type RedirectEncoder struct {
	// Base is the frontend URL receiving the login, e.g.
	// https://poac.pm/api/auth.
	Base string
}

// Encode serializes the canonical user and token into the redirect target.
// The payload carries only the public DTO fields; email and status never
// leave the server this way.
func (e RedirectEncoder) Encode(u *user.User, token string) (string, error) {
	payload, err := json.Marshal(u.ToDTO())
	if err != nil {
		return "", auth.ErrEncodeFailed(err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	return fmt.Sprintf("%s?access_token=%s&user_metadata=%s", e.Base, token, encoded), nil
}
