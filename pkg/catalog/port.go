package catalog

import "context"

// Repository is the read contract over published packages. All methods
// are pass-through queries; the catalog never mutates package rows.
type Repository interface {
	// All lists packages, optionally restricted to names containing
	// filter.
	All(ctx context.Context, filter string) ([]Package, error)

	// Search finds packages whose name contains query, newest first,
	// capped at perPage.
	Search(ctx context.Context, query string, perPage int64) ([]Package, error)

	// Versions lists the published version strings for a name, newest
	// first. Missing packages yield an empty slice, not an error.
	Versions(ctx context.Context, name string) ([]string, error)

	// RepoInfo returns the repository and checksum of one published
	// version, or ErrPackageNotFound.
	RepoInfo(ctx context.Context, name, version string) (*RepoInfo, error)

	// Deps returns the dependency requirements of one published version,
	// or ErrPackageNotFound.
	Deps(ctx context.Context, name, version string) (Dependencies, error)
}
