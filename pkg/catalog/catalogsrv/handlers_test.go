package catalogsrv_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/poacpm/api/pkg/catalog"
	"github.com/poacpm/api/pkg/catalog/catalogsrv"
	"github.com/poacpm/api/pkg/errx"
)

// mockPackageRepo records queries and returns canned catalog data.
type mockPackageRepo struct {
	packages []catalog.Package
	versions []string
	repoInfo *catalog.RepoInfo
	deps     catalog.Dependencies

	lastFilter   string
	lastQuery    string
	lastPerPage  int64
	lastName     string
	lastVersion  string
	notFoundPair bool
}

func (m *mockPackageRepo) All(_ context.Context, filter string) ([]catalog.Package, error) {
	m.lastFilter = filter
	return m.packages, nil
}

func (m *mockPackageRepo) Search(_ context.Context, query string, perPage int64) ([]catalog.Package, error) {
	m.lastQuery = query
	m.lastPerPage = perPage
	return m.packages, nil
}

func (m *mockPackageRepo) Versions(_ context.Context, name string) ([]string, error) {
	m.lastName = name
	return m.versions, nil
}

func (m *mockPackageRepo) RepoInfo(_ context.Context, name, version string) (*catalog.RepoInfo, error) {
	m.lastName, m.lastVersion = name, version
	if m.notFoundPair {
		return nil, catalog.ErrPackageNotFound(name, version)
	}
	return m.repoInfo, nil
}

func (m *mockPackageRepo) Deps(_ context.Context, name, version string) (catalog.Dependencies, error) {
	m.lastName, m.lastVersion = name, version
	if m.notFoundPair {
		return nil, catalog.ErrPackageNotFound(name, version)
	}
	return m.deps, nil
}

func newTestApp(repo catalog.Repository) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *errx.Error
			if errx.As(err, &e) {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	catalogsrv.NewHandlers(catalogsrv.NewService(repo)).RegisterRoutes(app)
	return app
}

func TestAllPackages(t *testing.T) {
	repo := &mockPackageRepo{packages: []catalog.Package{{ID: 1, Name: "fmt", Version: "1.0.0"}}}
	app := newTestApp(repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/packages?filter=fm", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastFilter != "fm" {
		t.Errorf("filter not forwarded, got %q", repo.lastFilter)
	}

	var body struct {
		Data []catalog.Package `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != "fmt" {
		t.Errorf("unexpected data envelope: %+v", body)
	}
}

func TestSearch_DefaultsPerPage(t *testing.T) {
	repo := &mockPackageRepo{}
	app := newTestApp(repo)

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"query":"json"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastQuery != "json" {
		t.Errorf("query not forwarded, got %q", repo.lastQuery)
	}
	if repo.lastPerPage != 30 {
		t.Errorf("expected default per_page 30, got %d", repo.lastPerPage)
	}
}

func TestSearch_CapsPerPage(t *testing.T) {
	repo := &mockPackageRepo{}
	app := newTestApp(repo)

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"query":"x","per_page":5000}`))
	req.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}
	if repo.lastPerPage != 100 {
		t.Errorf("expected per_page capped at 100, got %d", repo.lastPerPage)
	}
}

func TestVersions_JoinsOrgScopedNames(t *testing.T) {
	repo := &mockPackageRepo{versions: []string{"2.0.0", "1.0.0"}}
	app := newTestApp(repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/packages/boost/config/versions", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastName != "boost/config" {
		t.Errorf("expected joined name boost/config, got %q", repo.lastName)
	}
}

func TestVersions_OfficialNames(t *testing.T) {
	repo := &mockPackageRepo{versions: []string{"1.0.0"}}
	app := newTestApp(repo)

	if _, err := app.Test(httptest.NewRequest("GET", "/v1/packages/fmt/versions", nil)); err != nil {
		t.Fatal(err)
	}
	if repo.lastName != "fmt" {
		t.Errorf("expected name fmt, got %q", repo.lastName)
	}
}

func TestRepoInfo_NotFoundMessage(t *testing.T) {
	repo := &mockPackageRepo{notFoundPair: true}
	app := newTestApp(repo)

	req := httptest.NewRequest("POST", "/v1/repoinfo", strings.NewReader(`{"name":"ghost","version":"9.9.9"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Message, "ghost") || !strings.Contains(body.Message, "9.9.9") {
		t.Errorf("not-found message must name the pair, got %q", body.Message)
	}
}

func TestDeps(t *testing.T) {
	repo := &mockPackageRepo{deps: catalog.Dependencies{"fmt": ">=1.0.0"}}
	app := newTestApp(repo)

	req := httptest.NewRequest("POST", "/v1/deps", strings.NewReader(`{"name":"app","version":"1.0.0"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data catalog.Dependencies `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data["fmt"] != ">=1.0.0" {
		t.Errorf("unexpected deps: %v", body.Data)
	}
	if repo.lastName != "app" || repo.lastVersion != "1.0.0" {
		t.Errorf("name/version not forwarded: %q %q", repo.lastName, repo.lastVersion)
	}
}
