package auth

import (
	"net/http"

	"github.com/poacpm/api/pkg/errx"
)

// ProviderProfile is the provider-side view of an identity, fetched once
// per login. It is never persisted as-is; it only seeds a new account or
// refreshes an existing one.
type ProviderProfile struct {
	// UserName is the stable handle assigned by the provider. Immutable,
	// unique key for local accounts.
	UserName string

	// Name is the display name as currently set on the provider.
	Name string

	// AvatarURL is the avatar as currently set on the provider.
	AvatarURL string
}

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeExchangeFailed     = ErrRegistry.Register("EXCHANGE_FAILED", errx.TypeExternal, http.StatusBadGateway, "Authorization code exchange failed")
	CodeProfileFetchFailed = ErrRegistry.Register("PROFILE_FETCH_FAILED", errx.TypeExternal, http.StatusBadGateway, "Provider profile fetch failed")
	CodeEmailFetchFailed   = ErrRegistry.Register("EMAIL_FETCH_FAILED", errx.TypeExternal, http.StatusBadGateway, "Provider email fetch failed")
	CodeNotAuthorized      = ErrRegistry.Register("NOT_AUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "You are not authorized.")
	CodeEncodeFailed       = ErrRegistry.Register("ENCODE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Redirect payload encoding failed")
)

func ErrExchangeFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeExchangeFailed, cause)
}

func ErrProfileFetchFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeProfileFetchFailed, cause)
}

func ErrEmailFetchFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeEmailFetchFailed, cause)
}

func ErrNotAuthorized() *errx.Error {
	return ErrRegistry.New(CodeNotAuthorized)
}

func ErrEncodeFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeEncodeFailed, cause)
}
