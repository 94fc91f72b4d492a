package catalogsrv

import (
	"context"

	"github.com/poacpm/api/pkg/catalog"
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// Service answers catalog read queries. The endpoints are pass-through
// reads; the only logic here is input normalization.
type Service struct {
	packages catalog.Repository
}

// NewService creates a catalog service.
func NewService(packages catalog.Repository) *Service {
	return &Service{packages: packages}
}

// All lists packages, optionally filtered by a name substring.
func (s *Service) All(ctx context.Context, filter string) ([]catalog.Package, error) {
	return s.packages.All(ctx, filter)
}

// Search finds packages by name substring with a bounded page size.
func (s *Service) Search(ctx context.Context, query string, perPage int64) ([]catalog.Package, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return s.packages.Search(ctx, query, perPage)
}

// Versions lists the published versions of a package.
func (s *Service) Versions(ctx context.Context, name string) ([]string, error) {
	return s.packages.Versions(ctx, name)
}

// RepoInfo returns the repository and checksum of one published version.
func (s *Service) RepoInfo(ctx context.Context, name, version string) (*catalog.RepoInfo, error) {
	return s.packages.RepoInfo(ctx, name, version)
}

// Deps returns the dependency requirements of one published version.
func (s *Service) Deps(ctx context.Context, name, version string) (catalog.Dependencies, error) {
	return s.packages.Deps(ctx, name, version)
}
