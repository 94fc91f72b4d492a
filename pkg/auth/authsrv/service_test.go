package authsrv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poacpm/api/pkg/auth"
	"github.com/poacpm/api/pkg/auth/authsrv"
	"github.com/poacpm/api/pkg/errx"
	"github.com/poacpm/api/pkg/user"
)

// mockProfileClient is a fake provider returning canned identity facts.
type mockProfileClient struct {
	token   string
	profile auth.ProviderProfile
	email   string

	exchangeErr error
	profileErr  error
	emailErr    error

	emailCalls int
}

func (m *mockProfileClient) Exchange(_ context.Context, code string) (string, error) {
	if m.exchangeErr != nil {
		return "", m.exchangeErr
	}
	return m.token, nil
}

func (m *mockProfileClient) Profile(_ context.Context, token string) (*auth.ProviderProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	p := m.profile
	return &p, nil
}

func (m *mockProfileClient) Email(_ context.Context, token string) (string, error) {
	m.emailCalls++
	if m.emailErr != nil {
		return "", m.emailErr
	}
	return m.email, nil
}

// mockUserRepo is an in-memory user.Repository that mirrors the Postgres
// adapter's conflict-resolved creation behavior.
type mockUserRepo struct {
	mu     sync.Mutex
	users  map[string]user.User
	nextID int64

	createCalls int
	updateCalls int

	findErr   error
	createErr error
	updateErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]user.User), nextID: 1}
}

func (m *mockUserRepo) FindByUserName(_ context.Context, userName string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[userName]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	return &u, nil
}

func (m *mockUserRepo) Create(_ context.Context, nu user.NewUser) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if existing, ok := m.users[nu.UserName]; ok {
		// Lost the creation race: resolve to the winning row.
		return &existing, nil
	}
	u := user.User{
		ID:        m.nextID,
		Name:      nu.Name,
		UserName:  nu.UserName,
		AvatarURL: nu.AvatarURL,
		Email:     nu.Email,
		Status:    user.StatusActive,
	}
	m.nextID++
	m.users[nu.UserName] = u
	return &u, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, userName, name, avatarURL string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[userName]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	u.Name = name
	u.AvatarURL = avatarURL
	m.users[userName] = u
	return &u, nil
}

func (m *mockUserRepo) seed(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserName] = u
}

func newService(profiles auth.ProfileClient, users user.Repository) *authsrv.Service {
	return authsrv.NewService(profiles, users, time.Second)
}

func TestCallback_FirstLoginCreatesActiveUser(t *testing.T) {
	profiles := &mockProfileClient{
		token:   "tok1",
		profile: auth.ProviderProfile{UserName: "alice", Name: "Alice", AvatarURL: "a.png"},
		email:   "alice@x.com",
	}
	repo := newMockUserRepo()

	result, err := newService(profiles, repo).Callback(context.Background(), "code1")
	if err != nil {
		t.Fatal(err)
	}

	if result.Token != "tok1" {
		t.Errorf("expected token tok1, got %q", result.Token)
	}
	u := result.User
	if u.UserName != "alice" || u.Name != "Alice" || u.AvatarURL != "a.png" {
		t.Errorf("unexpected user fields: %+v", u)
	}
	if u.Email != "alice@x.com" {
		t.Errorf("expected creation email, got %q", u.Email)
	}
	if u.Status != user.StatusActive {
		t.Errorf("expected active status, got %q", u.Status)
	}
	if repo.createCalls != 1 {
		t.Errorf("expected 1 create, got %d", repo.createCalls)
	}
}

func TestCallback_UnchangedProfilePerformsNoWrite(t *testing.T) {
	stored := user.User{
		ID: 7, Name: "Alice", UserName: "alice", AvatarURL: "a.png",
		Email: "alice@x.com", Status: user.StatusActive,
	}
	repo := newMockUserRepo()
	repo.seed(stored)
	profiles := &mockProfileClient{
		token:   "tok2",
		profile: auth.ProviderProfile{UserName: "alice", Name: "Alice", AvatarURL: "a.png"},
	}

	result, err := newService(profiles, repo).Callback(context.Background(), "code2")
	if err != nil {
		t.Fatal(err)
	}

	if repo.createCalls != 0 || repo.updateCalls != 0 {
		t.Errorf("expected zero writes, got %d creates %d updates", repo.createCalls, repo.updateCalls)
	}
	if *result.User != stored {
		t.Errorf("expected stored record returned unchanged, got %+v", result.User)
	}
	if profiles.emailCalls != 0 {
		t.Errorf("email must not be fetched for existing users, got %d calls", profiles.emailCalls)
	}
}

func TestCallback_StaleProfileUpdatesBothFields(t *testing.T) {
	repo := newMockUserRepo()
	repo.seed(user.User{
		ID: 7, Name: "Alice", UserName: "alice", AvatarURL: "a.png",
		Email: "alice@x.com", Status: user.StatusActive,
	})
	profiles := &mockProfileClient{
		token:   "tok3",
		profile: auth.ProviderProfile{UserName: "alice", Name: "Alice B.", AvatarURL: "a2.png"},
	}

	result, err := newService(profiles, repo).Callback(context.Background(), "code3")
	if err != nil {
		t.Fatal(err)
	}

	if repo.updateCalls != 1 {
		t.Fatalf("expected 1 update, got %d", repo.updateCalls)
	}
	u := result.User
	if u.Name != "Alice B." || u.AvatarURL != "a2.png" {
		t.Errorf("expected refreshed display fields, got %+v", u)
	}
	if u.ID != 7 || u.Email != "alice@x.com" || u.Status != user.StatusActive {
		t.Errorf("id/email/status must be untouched, got %+v", u)
	}
}

func TestCallback_SingleFieldDriftStillWritesBoth(t *testing.T) {
	repo := newMockUserRepo()
	repo.seed(user.User{
		ID: 7, Name: "Alice", UserName: "alice", AvatarURL: "a.png",
		Email: "alice@x.com", Status: user.StatusActive,
	})
	profiles := &mockProfileClient{
		token:   "tok",
		profile: auth.ProviderProfile{UserName: "alice", Name: "Alice", AvatarURL: "new.png"},
	}

	result, err := newService(profiles, repo).Callback(context.Background(), "code")
	if err != nil {
		t.Fatal(err)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("expected 1 update, got %d", repo.updateCalls)
	}
	if result.User.Name != "Alice" || result.User.AvatarURL != "new.png" {
		t.Errorf("unexpected display fields: %+v", result.User)
	}
}

func TestCallback_DisabledAccountIsRejectedWithoutWrites(t *testing.T) {
	repo := newMockUserRepo()
	repo.seed(user.User{
		ID: 9, Name: "Old Bob", UserName: "bob", AvatarURL: "old.png",
		Email: "bob@x.com", Status: user.StatusDisabled,
	})
	// Profile drift must not matter for a disabled account.
	profiles := &mockProfileClient{
		token:   "tok4",
		profile: auth.ProviderProfile{UserName: "bob", Name: "New Bob", AvatarURL: "new.png"},
	}

	_, err := newService(profiles, repo).Callback(context.Background(), "code4")
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if !errx.HasCode(err, auth.CodeNotAuthorized) {
		t.Fatalf("expected NOT_AUTHORIZED, got %v", err)
	}
	var e *errx.Error
	if !errx.As(err, &e) || e.HTTPStatus != 401 {
		t.Errorf("expected HTTP 401, got %+v", e)
	}
	if repo.createCalls != 0 || repo.updateCalls != 0 {
		t.Errorf("expected zero writes, got %d creates %d updates", repo.createCalls, repo.updateCalls)
	}
}

func TestCallback_ExchangeFailureIsExternal(t *testing.T) {
	profiles := &mockProfileClient{exchangeErr: errors.New("provider down")}
	repo := newMockUserRepo()

	_, err := newService(profiles, repo).Callback(context.Background(), "bad")
	if !errx.HasCode(err, auth.CodeExchangeFailed) {
		t.Fatalf("expected EXCHANGE_FAILED, got %v", err)
	}
	if !errx.IsType(err, errx.TypeExternal) {
		t.Errorf("expected external error type, got %v", err)
	}
}

func TestCallback_ProfileFailureIsExternal(t *testing.T) {
	profiles := &mockProfileClient{token: "tok", profileErr: errors.New("api 500")}
	repo := newMockUserRepo()

	_, err := newService(profiles, repo).Callback(context.Background(), "code")
	if !errx.HasCode(err, auth.CodeProfileFetchFailed) {
		t.Fatalf("expected PROFILE_FETCH_FAILED, got %v", err)
	}
}

func TestCallback_EmailFailureAbortsCreation(t *testing.T) {
	profiles := &mockProfileClient{
		token:    "tok",
		profile:  auth.ProviderProfile{UserName: "carol", Name: "Carol", AvatarURL: "c.png"},
		emailErr: errors.New("emails endpoint 500"),
	}
	repo := newMockUserRepo()

	_, err := newService(profiles, repo).Callback(context.Background(), "code")
	if !errx.HasCode(err, auth.CodeEmailFetchFailed) {
		t.Fatalf("expected EMAIL_FETCH_FAILED, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Errorf("no row may be created when the email fetch fails, got %d creates", repo.createCalls)
	}
}

func TestCallback_PersistenceFailureSurfaces(t *testing.T) {
	profiles := &mockProfileClient{
		token:   "tok",
		profile: auth.ProviderProfile{UserName: "dave", Name: "Dave", AvatarURL: "d.png"},
	}
	repo := newMockUserRepo()
	repo.findErr = user.ErrStorageFailed(errors.New("connection refused"))

	_, err := newService(profiles, repo).Callback(context.Background(), "code")
	if !errx.HasCode(err, user.CodeStorageFailed) {
		t.Fatalf("expected STORAGE_FAILED, got %v", err)
	}
}

func TestCallback_ConcurrentFirstLoginsCreateOneRow(t *testing.T) {
	profiles := &mockProfileClient{
		token:   "tok5",
		profile: auth.ProviderProfile{UserName: "carol", Name: "Carol", AvatarURL: "c.png"},
		email:   "carol@x.com",
	}
	repo := newMockUserRepo()
	svc := newService(profiles, repo)

	const logins = 8
	results := make([]*authsrv.LoginResult, logins)
	errs := make([]error, logins)

	var wg sync.WaitGroup
	wg.Add(logins)
	for i := 0; i < logins; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Callback(context.Background(), "code5")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("callback %d failed: %v", i, err)
		}
	}
	if n := len(repo.users); n != 1 {
		t.Fatalf("expected exactly one row for carol, got %d", n)
	}
	want := repo.users["carol"].ID
	for i, r := range results {
		if r.User.ID != want {
			t.Errorf("callback %d resolved to id %d, want %d", i, r.User.ID, want)
		}
	}
}
