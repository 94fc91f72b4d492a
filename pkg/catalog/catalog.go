package catalog

import (
	"net/http"
	"time"

	"github.com/poacpm/api/pkg/errx"
)

// Package is one published version of a registry package. Org-scoped
// packages use the joined "org/name" form in Name.
type Package struct {
	ID          int64     `db:"id" json:"id"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	Name        string    `db:"name" json:"name"`
	Version     string    `db:"version" json:"version"`
	Edition     int       `db:"edition" json:"edition"`
	Description string    `db:"description" json:"description"`
	Repository  string    `db:"repository" json:"repository"`
	Sha256sum   string    `db:"sha256sum" json:"sha256sum"`
}

// RepoInfo is the source location of one published version, used by the
// client to fetch and verify the archive.
type RepoInfo struct {
	Repository string `json:"repository"`
	Sha256sum  string `json:"sha256sum"`
}

// Dependencies maps dependency package names to version requirements.
type Dependencies map[string]string

var ErrRegistry = errx.NewRegistry("CATALOG")

var (
	CodePackageNotFound = ErrRegistry.Register("PACKAGE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Package not found")
	CodeStorageFailed   = ErrRegistry.Register("STORAGE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Catalog storage operation failed")
)

// ErrPackageNotFound reports a missing name/version pair with the message
// shape the frontend expects.
func ErrPackageNotFound(name, version string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodePackageNotFound,
		"No package found where name = `"+name+"` & version = `"+version+"`")
}

func ErrStorageFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStorageFailed, cause)
}
