package user

import "context"

// Repository is the persistence contract for registry accounts.
//
// The store's uniqueness constraint on user_name is the source of truth
// for "one account per handle". Create must resolve a lost creation race
// internally: when a concurrent first login already inserted the row,
// Create returns the existing row instead of an error.
type Repository interface {
	// FindByUserName returns the account for a stable handle, or
	// ErrUserNotFound when no such account exists.
	FindByUserName(ctx context.Context, userName string) (*User, error)

	// Create inserts a new active account. On a uniqueness conflict it
	// re-reads and returns the winning row.
	Create(ctx context.Context, nu NewUser) (*User, error)

	// UpdateProfile writes both display fields for the given handle and
	// returns the post-update row.
	UpdateProfile(ctx context.Context, userName, name, avatarURL string) (*User, error)
}
