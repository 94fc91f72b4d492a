package user

import (
	"net/http"

	"github.com/poacpm/api/pkg/errx"
)

// Status is the account status. It is only ever changed by out-of-band
// administrative action, never by the login flow.
type Status string

const (
	// StatusActive marks an account that may log in.
	StatusActive Status = "active"

	// StatusDisabled marks an account whose logins are rejected.
	StatusDisabled Status = "disabled"
)

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDisabled:
		return true
	}
	return false
}

// User is a locally persisted registry account. UserName is the stable
// handle assigned by the identity provider and is the unique key; name
// and avatar URL are refreshed from the provider on login, email is set
// once at creation.
type User struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	UserName  string `db:"user_name" json:"user_name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url"`
	Email     string `db:"email" json:"email"`
	Status    Status `db:"status" json:"status"`
}

// DTO is the public shape of a user. It carries exactly the fields the
// frontend receives in the login redirect payload; email and status are
// deliberately absent.
type DTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UserName  string `json:"user_name"`
	AvatarURL string `json:"avatar_url"`
}

// ToDTO converts the user to its public shape.
func (u User) ToDTO() DTO {
	return DTO{
		ID:        u.ID,
		Name:      u.Name,
		UserName:  u.UserName,
		AvatarURL: u.AvatarURL,
	}
}

// NewUser carries the provider-sourced fields of a first-time account.
type NewUser struct {
	UserName  string
	Name      string
	AvatarURL string
	Email     string
}

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeStorageFailed = ErrRegistry.Register("STORAGE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "User storage operation failed")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrStorageFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStorageFailed, cause)
}
