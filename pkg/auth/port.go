package auth

import "context"

// ProfileClient is the contract with the external identity provider.
// Implementations return identity facts only and make no auth decisions.
//
// The three calls are strictly ordered within one login: the profile
// needs the token from Exchange, and Email is only called on the
// first-login creation path.
type ProfileClient interface {
	// Exchange trades a single-use authorization code for an access
	// token.
	Exchange(ctx context.Context, code string) (string, error)

	// Profile fetches the provider-side profile for an access token.
	Profile(ctx context.Context, token string) (*ProviderProfile, error)

	// Email fetches the verified primary email for an access token.
	Email(ctx context.Context, token string) (string, error)
}
