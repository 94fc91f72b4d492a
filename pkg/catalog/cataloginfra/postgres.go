package cataloginfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/poacpm/api/pkg/catalog"
	"github.com/poacpm/api/pkg/errx"
)

const packageColumns = `id, published_at, name, version, edition, description, repository, sha256sum`

// PostgresPackageRepository is the Postgres implementation of
// catalog.Repository.
type PostgresPackageRepository struct {
	db *sqlx.DB
}

// NewPostgresPackageRepository crea una nueva instancia del repositorio.
func NewPostgresPackageRepository(db *sqlx.DB) *PostgresPackageRepository {
	return &PostgresPackageRepository{db: db}
}

// EnsureSchema creates the packages table if it does not exist.
func (r *PostgresPackageRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS packages (
			id           BIGSERIAL PRIMARY KEY,
			published_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			name         TEXT NOT NULL,
			version      TEXT NOT NULL,
			edition      INTEGER NOT NULL DEFAULT 0,
			description  TEXT NOT NULL DEFAULT '',
			repository   TEXT NOT NULL DEFAULT '',
			sha256sum    TEXT NOT NULL DEFAULT '',
			metadata     JSONB NOT NULL DEFAULT '{}',
			UNIQUE (name, version)
		)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return errx.Wrap(err, "failed to ensure packages schema", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresPackageRepository) All(ctx context.Context, filter string) ([]catalog.Package, error) {
	var rows []packageRow
	var err error
	if filter == "" {
		query := `SELECT ` + packageColumns + ` FROM packages ORDER BY name, published_at DESC`
		err = r.db.SelectContext(ctx, &rows, query)
	} else {
		query := `SELECT ` + packageColumns + ` FROM packages WHERE name ILIKE '%' || $1 || '%' ORDER BY name, published_at DESC`
		err = r.db.SelectContext(ctx, &rows, query, filter)
	}
	if err != nil {
		return nil, catalog.ErrStorageFailed(err)
	}
	return toDomainSlice(rows), nil
}

func (r *PostgresPackageRepository) Search(ctx context.Context, query string, perPage int64) ([]catalog.Package, error) {
	var rows []packageRow
	q := `SELECT ` + packageColumns + ` FROM packages WHERE name ILIKE '%' || $1 || '%' ORDER BY published_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, q, query, perPage); err != nil {
		return nil, catalog.ErrStorageFailed(err)
	}
	return toDomainSlice(rows), nil
}

func (r *PostgresPackageRepository) Versions(ctx context.Context, name string) ([]string, error) {
	versions := []string{}
	query := `SELECT version FROM packages WHERE name = $1 ORDER BY published_at DESC`
	if err := r.db.SelectContext(ctx, &versions, query, name); err != nil {
		return nil, catalog.ErrStorageFailed(err)
	}
	return versions, nil
}

func (r *PostgresPackageRepository) RepoInfo(ctx context.Context, name, version string) (*catalog.RepoInfo, error) {
	var info catalog.RepoInfo
	query := `SELECT repository, sha256sum FROM packages WHERE name = $1 AND version = $2`
	err := r.db.QueryRowxContext(ctx, query, name, version).Scan(&info.Repository, &info.Sha256sum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrPackageNotFound(name, version)
		}
		return nil, catalog.ErrStorageFailed(err)
	}
	return &info, nil
}

func (r *PostgresPackageRepository) Deps(ctx context.Context, name, version string) (catalog.Dependencies, error) {
	var metadata types.JSONText
	query := `SELECT metadata FROM packages WHERE name = $1 AND version = $2`
	err := r.db.QueryRowxContext(ctx, query, name, version).Scan(&metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrPackageNotFound(name, version)
		}
		return nil, catalog.ErrStorageFailed(err)
	}

	var parsed struct {
		Dependencies catalog.Dependencies `json:"dependencies"`
	}
	if err := json.Unmarshal(metadata, &parsed); err != nil {
		return nil, errx.Wrap(err, "failed to decode package metadata", errx.TypeInternal)
	}
	if parsed.Dependencies == nil {
		parsed.Dependencies = catalog.Dependencies{}
	}
	return parsed.Dependencies, nil
}

// packageRow is the persistence shape of a published package version.
type packageRow struct {
	ID          int64          `db:"id"`
	PublishedAt sql.NullTime   `db:"published_at"`
	Name        string         `db:"name"`
	Version     string         `db:"version"`
	Edition     int            `db:"edition"`
	Description sql.NullString `db:"description"`
	Repository  sql.NullString `db:"repository"`
	Sha256sum   sql.NullString `db:"sha256sum"`
}

func (row packageRow) toDomain() catalog.Package {
	return catalog.Package{
		ID:          row.ID,
		PublishedAt: row.PublishedAt.Time,
		Name:        row.Name,
		Version:     row.Version,
		Edition:     row.Edition,
		Description: row.Description.String,
		Repository:  row.Repository.String,
		Sha256sum:   row.Sha256sum.String,
	}
}

func toDomainSlice(rows []packageRow) []catalog.Package {
	packages := make([]catalog.Package, len(rows))
	for i, row := range rows {
		packages[i] = row.toDomain()
	}
	return packages
}
