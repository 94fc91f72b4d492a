package authsrv

import (
	"context"
	"time"

	"github.com/poacpm/api/pkg/asyncx"
	"github.com/poacpm/api/pkg/auth"
	"github.com/poacpm/api/pkg/errx"
	"github.com/poacpm/api/pkg/logx"
	"github.com/poacpm/api/pkg/user"
)

// LoginResult is the outcome of a successful login callback: the
// canonical account and the provider access token to forward.
type LoginResult struct {
	User  *user.User
	Token string
}

// Service reconciles a provider identity with the local account store on
// every login callback. It holds no per-request state; concurrency safety
// on first-time creation comes from the store's uniqueness constraint.
type Service struct {
	profiles    auth.ProfileClient
	users       user.Repository
	callTimeout time.Duration
}

// NewService creates a login service. callTimeout bounds each provider
// and store call individually.
func NewService(profiles auth.ProfileClient, users user.Repository, callTimeout time.Duration) *Service {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Service{
		profiles:    profiles,
		users:       users,
		callTimeout: callTimeout,
	}
}

// Callback runs the login reconciliation for a single-use authorization
// code. The four external calls are strictly sequential: token needs the
// code, profile needs the token, email is fetched only when creating, and
// the status gate runs before any write.
//
// There are no retries; a failed callback requires a fresh code.
func (s *Service) Callback(ctx context.Context, code string) (*LoginResult, error) {
	token, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (string, error) {
		return s.profiles.Exchange(ctx, code)
	})
	if err != nil {
		return nil, auth.ErrExchangeFailed(err)
	}

	profile, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*auth.ProviderProfile, error) {
		return s.profiles.Profile(ctx, token)
	})
	if err != nil {
		return nil, auth.ErrProfileFetchFailed(err)
	}

	canonical, err := s.reconcile(ctx, token, profile)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: canonical, Token: token}, nil
}

// reconcile finds, creates, or refreshes the local account for a provider
// profile and enforces the status gate.
func (s *Service) reconcile(ctx context.Context, token string, profile *auth.ProviderProfile) (*user.User, error) {
	stored, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*user.User, error) {
		return s.users.FindByUserName(ctx, profile.UserName)
	})
	if err != nil {
		if errx.HasCode(err, user.CodeUserNotFound) {
			return s.provision(ctx, token, profile)
		}
		return nil, err
	}

	switch stored.Status {
	case user.StatusActive:
		// fall through to the staleness check
	case user.StatusDisabled:
		s.auditRejectedLogin(stored)
		return nil, auth.ErrNotAuthorized()
	default:
		// Unknown status values are treated as not active; the gate only
		// ever admits accounts that are explicitly active.
		s.auditRejectedLogin(stored)
		return nil, auth.ErrNotAuthorized().WithDetail("status", string(stored.Status))
	}

	if profile.Name == stored.Name && profile.AvatarURL == stored.AvatarURL {
		return stored, nil
	}

	// Any drift writes both fields together, so the returned row always
	// mirrors the provider's current profile.
	return asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*user.User, error) {
		return s.users.UpdateProfile(ctx, profile.UserName, profile.Name, profile.AvatarURL)
	})
}

// provision creates the account on first login. The email is collected
// once here, for registration, and never refreshed afterwards.
func (s *Service) provision(ctx context.Context, token string, profile *auth.ProviderProfile) (*user.User, error) {
	email, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (string, error) {
		return s.profiles.Email(ctx, token)
	})
	if err != nil {
		return nil, auth.ErrEmailFetchFailed(err)
	}

	created, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*user.User, error) {
		return s.users.Create(ctx, user.NewUser{
			UserName:  profile.UserName,
			Name:      profile.Name,
			AvatarURL: profile.AvatarURL,
			Email:     email,
		})
	})
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id":   created.ID,
		"user_name": created.UserName,
	}).Info("new account provisioned")

	return created, nil
}

func (s *Service) auditRejectedLogin(u *user.User) {
	logx.WithFields(logx.Fields{
		"user_id":   u.ID,
		"user_name": u.UserName,
		"status":    string(u.Status),
	}).Warn("disabled account attempted to log in")
}
